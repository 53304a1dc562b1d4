// Package model はドメインモデルを定義する。
package model

// Record はバックエンドから返される1件のエンティティレコード。
// Dynamics 365のエンティティスキーマはコンパイル時に未知であり、
// 呼び出し側が$selectで任意のフィールド部分集合を指定できるため、
// 固定構造体ではなくオープンスキーマのJSONオブジェクトとして扱う。
type Record map[string]any

// ResultPage はバックエンドの1ページ分のレスポンス。
// ContinuationLinkが空でない場合、次ページを指す絶対URLを保持する。
type ResultPage struct {
	Records          []Record
	ContinuationLink string
}
