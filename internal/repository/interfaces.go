// Package repository はDynamics 365エンティティの読み取り操作を提供する。
// 書き込み操作（作成・更新・削除）は意図的にサポートしない。
package repository

import (
	"context"

	"github.com/hitoshi/dynabridge/internal/model"
)

// CustomerRepository は顧客エンティティの読み取りインターフェース。
type CustomerRepository interface {
	// List は顧客一覧を取得する。FetchAllPagesが指定された場合は
	// 全ページを平坦化したレコード列、それ以外はバックエンドの
	// 生ペイロードを返す。
	List(ctx context.Context, opts model.ListOptions) (any, error)

	// GetByAccount は顧客口座番号で1件取得する。
	// 見つからない場合はnilを返す（エラーではない）。
	GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error)
}

// VendorRepository は仕入先エンティティの読み取りインターフェース。
type VendorRepository interface {
	// List は仕入先一覧を取得する。戻り値の形状はCustomerRepository.Listと同じ。
	List(ctx context.Context, opts model.ListOptions) (any, error)

	// GetByAccount は仕入先口座番号で1件取得する。
	// 見つからない場合はnilを返す（エラーではない）。
	GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error)
}
