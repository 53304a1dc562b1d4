package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/dynabridge/internal/metrics"
	"github.com/hitoshi/dynabridge/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ドメイン
	CustomerRepo CustomerRepositoryInterface
	VendorRepo   VendorRepositoryInterface
	Resolver     ResolverInterface

	// 運用
	Version         string
	BackendOrigin   string
	MetricsGatherer prometheus.Gatherer

	// MCPエンドポイント（nilの場合はマウントしない）
	MCPHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → LoggingMiddleware → RecoveryMiddleware → RateLimitMiddleware
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	customerHandler := NewCustomerHandler(deps.CustomerRepo)
	vendorHandler := NewVendorHandler(deps.VendorRepo)
	searchHandler := NewSearchHandler(deps.Resolver)

	// --- 運用ルート（レート制限の外） ---

	r.Get("/health", NewHealthHandler(deps.Version, deps.BackendOrigin))

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// 顧客マスター
		r.Route("/api/customers", func(r chi.Router) {
			r.Get("/", customerHandler.ListCustomers)
			r.Get("/{account}", customerHandler.GetCustomer)
		})

		// 仕入先マスター
		r.Route("/api/vendors", func(r chi.Router) {
			r.Get("/", vendorHandler.ListVendors)
			r.Get("/{account}", vendorHandler.GetVendor)
		})

		// 横断検索
		r.Get("/api/search/{account}", searchHandler.SearchAccount)

		// MCP over HTTP
		if deps.MCPHandler != nil {
			r.Handle("/mcp", deps.MCPHandler)
			r.Handle("/mcp/*", deps.MCPHandler)
		}
	})

	return r
}
