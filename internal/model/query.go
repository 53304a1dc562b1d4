package model

// ExtraParam はODataの標準句以外の追加クエリパラメータ。
// マップではなくスライスで保持し、指定順序を保存する
// （同一入力から常に同一のクエリ文字列を生成するため）。
type ExtraParam struct {
	Key   string
	Value string
}

// QueryOptions はODataクエリの構成オプション。
// 呼び出しごとに生成されるイミュータブルな値として扱う。
type QueryOptions struct {
	// Filter は$filter式。空の場合は省略される。
	// 自由形式のフィルタ文字列はサニタイズされない（既知の注入面）。
	Filter string
	// Select は$selectのフィールド名リスト。順序を保存し、重複も許容する。
	Select []string
	// Top は$topの件数。0以下の場合は省略される。
	Top int
	// OrderBy は$orderby式。空の場合は省略される。
	OrderBy string
	// Extra は標準句以外の追加パラメータ（指定順に出力される）。
	Extra []ExtraParam
}

// ListOptions はエンティティ一覧取得のオプション。
type ListOptions struct {
	QueryOptions

	// CrossCompany がtrueの場合、cross-company=true句を付与して
	// 全法人エンティティ横断の結果を要求する。
	CrossCompany bool

	// FetchAllPages がtrueの場合、継続リンクを辿って全ページを
	// 1つの結果に平坦化する。
	FetchAllPages bool
}
