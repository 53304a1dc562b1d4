package odata

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/hitoshi/dynabridge/internal/model"
)

// IsHTMLDocument はボディがHTMLドキュメントかを判定する。
// 成功ステータスでHTMLが返るのは認証・リダイレクト失敗の偽装であり、
// データとして返却してはならない。単純な文字列前方一致ではなく
// HTMLトークナイザで判定し、空白やコメントで始まるドキュメントも検出する。
func IsHTMLDocument(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}

	z := html.NewTokenizer(bytes.NewReader(trimmed))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			// 「<」で始まりタグとして解釈できる時点でJSONではない
			name, _ := z.TagName()
			return len(name) > 0
		case html.CommentToken, html.TextToken:
			// コメント・空白テキストは読み飛ばして次のトークンで判定する
			continue
		}
	}
}

// ParsePage は生ペイロードを1ページ分の結果として解釈する。
// ページ形状（レコード配列を直接、またはvalueキー配下に持つ）でない場合は
// ok=falseを返す。継続リンクは大文字・小文字2種類のキー表記の両方を探す
// （バックエンド互換性のための仕様であり、見落としではない）。
func ParsePage(payload any) (page *model.ResultPage, ok bool) {
	switch v := payload.(type) {
	case []any:
		records, ok := toRecords(v)
		if !ok {
			return nil, false
		}
		return &model.ResultPage{Records: records}, true

	case map[string]any:
		raw, exists := v["value"]
		if !exists {
			return nil, false
		}
		arr, isArr := raw.([]any)
		if !isArr {
			return nil, false
		}
		records, ok := toRecords(arr)
		if !ok {
			return nil, false
		}
		return &model.ResultPage{
			Records:          records,
			ContinuationLink: continuationLink(v),
		}, true
	}

	return nil, false
}

// continuationLink はページペイロードから継続リンクを取り出す。
func continuationLink(envelope map[string]any) string {
	for _, key := range []string{"@odata.nextLink", "@odata.nextlink"} {
		if raw, exists := envelope[key]; exists {
			if link, isStr := raw.(string); isStr && strings.TrimSpace(link) != "" {
				return link
			}
		}
	}
	return ""
}

// toRecords は配列要素をレコード列に変換する。
// オブジェクトでない要素を含む配列はページ形状として扱わない。
func toRecords(arr []any) ([]model.Record, bool) {
	records := make([]model.Record, 0, len(arr))
	for _, elem := range arr {
		obj, isObj := elem.(map[string]any)
		if !isObj {
			return nil, false
		}
		records = append(records, model.Record(obj))
	}
	return records, true
}
