package odata

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/dynabridge/internal/model"
)

// defaultMaxPages は継続リンク追跡回数のデフォルト上限。
const defaultMaxPages = 100

// LinkValidator は継続リンクの事前検証インターフェース。
type LinkValidator interface {
	ValidateContinuationLink(rawURL string) error
}

// PageRequester は次ページ取得のインターフェース。Clientが実装する。
type PageRequester interface {
	Request(ctx context.Context, endpoint, method string, body any) (any, error)
}

// PagesRecorder はページ収集数のメトリクス記録インターフェース。
type PagesRecorder interface {
	RecordPagesFetched(count int)
}

// Aggregator は継続リンクを辿って複数ページを1つの結果に平坦化する。
// バックエンドが循環または無限の継続チェーンを返す場合に備え、
// 追跡回数に明示的な上限を設ける。
type Aggregator struct {
	validator LinkValidator
	logger    *slog.Logger
	metrics   PagesRecorder
	maxPages  int
}

// NewAggregator はAggregatorを生成する。metricsはnil可。
// maxPagesが0以下の場合はデフォルト上限を使用する。
func NewAggregator(validator LinkValidator, logger *slog.Logger, metrics PagesRecorder, maxPages int) *Aggregator {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Aggregator{
		validator: validator,
		logger:    logger,
		metrics:   metrics,
		maxPages:  maxPages,
	}
}

// CollectAll は最初のページのペイロードから始めて全ページを収集する。
// ペイロードがページ形状でない場合はそのまま返す（すべてのエンドポイントが
// ページネーションされるわけではないため）。ページ形状の場合は継続リンクが
// 尽きるまでrequesterで次ページを取得し、全レコードを
// ページ到着順・ページ内順で1つの列に統合して返す。
// 途中のページがページ形状でない場合はループを中断し、蓄積分を返す。
func (a *Aggregator) CollectAll(ctx context.Context, firstPayload any, requester PageRequester) (any, error) {
	page, ok := ParsePage(firstPayload)
	if !ok {
		return firstPayload, nil
	}

	records := make([]model.Record, 0, len(page.Records))
	records = append(records, page.Records...)
	pages := 1

	for page.ContinuationLink != "" {
		if pages >= a.maxPages {
			a.logger.Error("ページネーションの上限を超えました",
				slog.Int("max_pages", a.maxPages),
				slog.String("next_link", page.ContinuationLink),
			)
			return nil, &model.PaginationLimitError{MaxPages: a.maxPages}
		}

		if err := a.validator.ValidateContinuationLink(page.ContinuationLink); err != nil {
			return nil, fmt.Errorf("継続リンクの検証に失敗しました: %w", err)
		}

		payload, err := requester.Request(ctx, page.ContinuationLink, http.MethodGet, nil)
		if err != nil {
			return nil, err
		}

		next, ok := ParsePage(payload)
		if !ok {
			a.logger.Warn("ページ形状でないペイロードを受信したため収集を中断します",
				slog.Int("pages_collected", pages),
			)
			break
		}

		records = append(records, next.Records...)
		pages++
		page = next
	}

	a.logger.Info("ページ収集が完了しました",
		slog.Int("pages", pages),
		slog.Int("records", len(records)),
	)
	if a.metrics != nil {
		a.metrics.RecordPagesFetched(pages)
	}

	return records, nil
}
