package model

// Preference はデュアルエンティティ解決の優先順序。
type Preference string

const (
	// PreferenceCustomerFirst は顧客を先に検索し、見つからない場合のみ仕入先を検索する。
	PreferenceCustomerFirst Preference = "customer-first"
	// PreferenceVendorFirst は仕入先を先に検索し、見つからない場合のみ顧客を検索する。
	PreferenceVendorFirst Preference = "vendor-first"
	// PreferenceParallel は両方を並行検索し、結果を統合する。
	PreferenceParallel Preference = "parallel"
)

// ValidPreference はpが定義済みの優先順序かを検証する。
func ValidPreference(p Preference) bool {
	switch p {
	case PreferenceCustomerFirst, PreferenceVendorFirst, PreferenceParallel:
		return true
	}
	return false
}

// MatchKind はエンティティ解決結果の種別。
type MatchKind string

const (
	// MatchCustomer は顧客レコードのみが一致したことを示す。
	MatchCustomer MatchKind = "customer"
	// MatchVendor は仕入先レコードのみが一致したことを示す。
	MatchVendor MatchKind = "vendor"
	// MatchBoth は顧客・仕入先の両方が一致したことを示す。
	MatchBoth MatchKind = "both"
	// MatchNone はどちらにも一致しなかったことを示す。
	MatchNone MatchKind = "none"
)

// EntityMatch はデュアルエンティティ解決の結果。
// KindがMatchCustomerまたはMatchBothの場合のみCustomerが非nil、
// MatchVendorまたはMatchBothの場合のみVendorが非nilとなる。
type EntityMatch struct {
	Kind     MatchKind
	Customer Record
	Vendor   Record
}
