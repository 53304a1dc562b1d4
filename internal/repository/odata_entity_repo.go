package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/dynabridge/internal/model"
	"github.com/hitoshi/dynabridge/internal/odata"
)

// ODataEntityRepo はODataエンティティセットに対する読み取り操作の共通実装。
// エンティティセット名と口座識別フィールド名のみが顧客・仕入先で異なる。
type ODataEntityRepo struct {
	requester    odata.PageRequester
	aggregator   *odata.Aggregator
	logger       *slog.Logger
	entitySet    string
	accountField string
}

// List はエンティティ一覧を取得する。
// CrossCompanyが指定された場合はcross-company=true句を付与し、
// FetchAllPagesが指定された場合は継続リンクを辿って全ページを平坦化する。
func (r *ODataEntityRepo) List(ctx context.Context, opts model.ListOptions) (any, error) {
	q := opts.QueryOptions
	if opts.CrossCompany {
		// 呼び出し側のスライスを変更しないようコピーへ追加する
		extra := make([]model.ExtraParam, 0, len(q.Extra)+1)
		extra = append(extra, q.Extra...)
		extra = append(extra, model.ExtraParam{Key: "cross-company", Value: "true"})
		q.Extra = extra
	}

	endpoint := "/data/" + r.entitySet
	if query := odata.BuildQuery(q); query != "" {
		endpoint += "?" + query
	}

	r.logger.Info("エンティティ一覧を取得します",
		slog.String("entity_set", r.entitySet),
		slog.Bool("cross_company", opts.CrossCompany),
		slog.Bool("fetch_all_pages", opts.FetchAllPages),
	)

	payload, err := r.requester.Request(ctx, endpoint, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	if opts.FetchAllPages {
		return r.aggregator.CollectAll(ctx, payload, r.requester)
	}

	return payload, nil
}

// GetByAccount は口座識別フィールドの等価フィルタとtop=1で1件取得する。
// 識別子の値は埋め込まれた引用符を二重化してからフィルタ式へ内挿する。
// 結果が空の場合はnilを返す。「見つからない」は値であり、エラーではない。
func (r *ODataEntityRepo) GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error) {
	q := opts
	q.Filter = fmt.Sprintf("%s eq '%s'", r.accountField, odata.EscapeODataString(account))
	q.Top = 1

	endpoint := "/data/" + r.entitySet + "?" + odata.BuildQuery(q)

	payload, err := r.requester.Request(ctx, endpoint, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	if page, ok := odata.ParsePage(payload); ok {
		if len(page.Records) == 0 {
			return nil, nil
		}
		return page.Records[0], nil
	}

	// エンドポイントによっては単一オブジェクトが直接返る
	if obj, isObj := payload.(map[string]any); isObj {
		return model.Record(obj), nil
	}

	return nil, nil
}
