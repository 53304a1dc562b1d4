// Package resolver は口座識別子から顧客・仕入先エンティティを解決する。
// 呼び出し側が口座識別子のみを提示した場合に、それが顧客を指すのか
// 仕入先を指すのか（あるいは両方か）を優先順序ポリシーに従って決定する。
package resolver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/dynabridge/internal/model"
	"github.com/hitoshi/dynabridge/internal/repository"
)

// MetricsRecorder は解決結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordResolverOutcome(kind string)
}

// Resolver はデュアルエンティティ解決を行う。
// 片方の検索が失敗（バックエンドエラー）しても、もう片方の検索は
// 継続される。失敗した枝は「見つからない」と同等に扱う。
type Resolver struct {
	customers repository.CustomerRepository
	vendors   repository.VendorRepository
	logger    *slog.Logger
	metrics   MetricsRecorder
}

// NewResolver はResolverを生成する。metricsはnil可。
func NewResolver(customers repository.CustomerRepository, vendors repository.VendorRepository, logger *slog.Logger, metrics MetricsRecorder) *Resolver {
	return &Resolver{
		customers: customers,
		vendors:   vendors,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve は口座識別子を優先順序に従って解決する。
//
// customer-first / vendor-first: 優先種別を先に検索し、一致すれば
// もう片方を試みずに短絡する。優先種別で見つからない場合のみ
// フォールバック種別を検索する。
//
// parallel: 両方の検索を同時に発行し、両方の完了（成功または失敗）を
// 待ってから結果を決定する。両方一致でBoth、片方のみでその種別、
// どちらも不一致でNone。
func (r *Resolver) Resolve(ctx context.Context, account string, preference model.Preference, opts model.QueryOptions) (model.EntityMatch, error) {
	var match model.EntityMatch

	switch preference {
	case model.PreferenceVendorFirst:
		if vendor := r.lookupVendor(ctx, account, opts); vendor != nil {
			match = model.EntityMatch{Kind: model.MatchVendor, Vendor: vendor}
		} else if customer := r.lookupCustomer(ctx, account, opts); customer != nil {
			match = model.EntityMatch{Kind: model.MatchCustomer, Customer: customer}
		} else {
			match = model.EntityMatch{Kind: model.MatchNone}
		}

	case model.PreferenceParallel:
		match = r.resolveParallel(ctx, account, opts)

	default:
		// customer-first（デフォルト）
		if customer := r.lookupCustomer(ctx, account, opts); customer != nil {
			match = model.EntityMatch{Kind: model.MatchCustomer, Customer: customer}
		} else if vendor := r.lookupVendor(ctx, account, opts); vendor != nil {
			match = model.EntityMatch{Kind: model.MatchVendor, Vendor: vendor}
		} else {
			match = model.EntityMatch{Kind: model.MatchNone}
		}
	}

	if err := ctx.Err(); err != nil {
		return model.EntityMatch{}, err
	}

	if r.metrics != nil {
		r.metrics.RecordResolverOutcome(string(match.Kind))
	}

	r.logger.Info("エンティティ解決が完了しました",
		slog.String("account", account),
		slog.String("preference", string(preference)),
		slog.String("kind", string(match.Kind)),
	)

	return match, nil
}

// resolveParallel は両方の検索を並行して発行し、両完了を待つ。
// 先勝ちの競争ではなく「全員待ち・部分失敗許容」の合流である。
func (r *Resolver) resolveParallel(ctx context.Context, account string, opts model.QueryOptions) model.EntityMatch {
	var (
		wg       sync.WaitGroup
		customer model.Record
		vendor   model.Record
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		customer = r.lookupCustomer(ctx, account, opts)
	}()
	go func() {
		defer wg.Done()
		vendor = r.lookupVendor(ctx, account, opts)
	}()
	wg.Wait()

	switch {
	case customer != nil && vendor != nil:
		return model.EntityMatch{Kind: model.MatchBoth, Customer: customer, Vendor: vendor}
	case customer != nil:
		return model.EntityMatch{Kind: model.MatchCustomer, Customer: customer}
	case vendor != nil:
		return model.EntityMatch{Kind: model.MatchVendor, Vendor: vendor}
	}
	return model.EntityMatch{Kind: model.MatchNone}
}

// lookupCustomer は顧客を検索する。検索エラーは「見つからない」へ降格する
// （もう片方の枝に機会を残すための、コア内で唯一の意図的なエラー吸収）。
func (r *Resolver) lookupCustomer(ctx context.Context, account string, opts model.QueryOptions) model.Record {
	record, err := r.customers.GetByAccount(ctx, account, opts)
	if err != nil {
		r.logger.Warn("顧客検索に失敗したため不一致として扱います",
			slog.String("account", account),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return record
}

// lookupVendor は仕入先を検索する。エラーの扱いはlookupCustomerと同じ。
func (r *Resolver) lookupVendor(ctx context.Context, account string, opts model.QueryOptions) model.Record {
	record, err := r.vendors.GetByAccount(ctx, account, opts)
	if err != nil {
		r.logger.Warn("仕入先検索に失敗したため不一致として扱います",
			slog.String("account", account),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return record
}
