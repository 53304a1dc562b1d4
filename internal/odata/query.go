// Package odata はDynamics 365 ODataエンドポイントへのアクセス基盤を提供する。
// クエリ文字列の構築、ベアラー認証付きHTTPリクエスト、継続リンクの
// ページネーション集約を含む。
package odata

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/dynabridge/internal/model"
)

// BuildQuery はQueryOptionsからODataクエリ文字列を構築する。
// 先頭の「?」は含まない。純粋関数であり、同一入力に対して常に
// バイト単位で同一の文字列を返す（決定性契約）。
//
// 句の出力順序は固定: $filter → $select → $top → $orderby → 追加パラメータ。
// 各句の値は個別にパーセントエンコードされ、「&」で結合される。
// 適用される句がない場合は空文字列を返す。
func BuildQuery(opts model.QueryOptions) string {
	var clauses []string

	if opts.Filter != "" {
		clauses = append(clauses, "$filter="+escapeQueryValue(opts.Filter))
	}

	if len(opts.Select) > 0 {
		clauses = append(clauses, "$select="+escapeQueryValue(strings.Join(opts.Select, ",")))
	}

	// Topは正の値のみ有効。0以下は無視する。
	if opts.Top > 0 {
		clauses = append(clauses, "$top="+strconv.Itoa(opts.Top))
	}

	if opts.OrderBy != "" {
		clauses = append(clauses, "$orderby="+escapeQueryValue(opts.OrderBy))
	}

	for _, extra := range opts.Extra {
		clauses = append(clauses, extra.Key+"="+escapeQueryValue(extra.Value))
	}

	return strings.Join(clauses, "&")
}

// escapeQueryValue はクエリ値をパーセントエンコードする。
// url.QueryEscapeは空白を「+」に変換するが、ODataサービスは「%20」を
// 期待するため置き換える。
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// EscapeODataString はOData文字列リテラルに埋め込む値をエスケープする。
// 埋め込まれた単一引用符を二重化する。識別子をフィルタ式へ内挿する際の
// 唯一の注入防御であり、自由形式のフィルタ文字列には適用されない。
func EscapeODataString(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
