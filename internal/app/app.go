// Package app はアプリケーションの初期化・配線・起動を担う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/dynabridge/internal/auth"
	"github.com/hitoshi/dynabridge/internal/config"
	"github.com/hitoshi/dynabridge/internal/handler"
	"github.com/hitoshi/dynabridge/internal/logger"
	"github.com/hitoshi/dynabridge/internal/mcpserver"
	"github.com/hitoshi/dynabridge/internal/metrics"
	"github.com/hitoshi/dynabridge/internal/middleware"
	"github.com/hitoshi/dynabridge/internal/odata"
	"github.com/hitoshi/dynabridge/internal/repository"
	"github.com/hitoshi/dynabridge/internal/resolver"
	"github.com/hitoshi/dynabridge/internal/security"
)

// Version はアプリケーションのバージョン。
// MCPハンドシェイクとヘルスチェックレスポンスに含める。
const Version = "1.0.0"

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("version", Version),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMCP:
		return runMCP(cfg)
	default:
		return runServe(cfg)
	}
}

// components はserve/mcpモードで共有される配線済みコンポーネント群。
type components struct {
	collector    *metrics.Collector
	registry     *prometheus.Registry
	customerRepo *repository.ODataCustomerRepo
	vendorRepo   *repository.ODataVendorRepo
	resolver     *resolver.Resolver
}

// wire はバックエンドアクセスの全コンポーネントを配線する。
// 認証プロバイダー・トランスポートクライアント・ページ収集器・
// リポジトリ・リゾルバーの依存グラフをここで1回だけ組み立てる。
func wire(cfg *config.Config) (*components, error) {
	log := slog.Default()

	// 1. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. 外向きアクセスガードと保護付きHTTPクライアント
	guard, err := security.NewOutboundGuard(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbound guard: %w", err)
	}
	httpClient := guard.NewSafeClient(cfg.HTTPTimeout)

	// 3. トークンプロバイダー（プロセス内で全リポジトリが共有する）
	tokenProvider := auth.NewProvider(auth.Config{
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		TenantID:      cfg.TenantID,
		BackendOrigin: cfg.BackendOrigin(),
	}, log, collector)

	// 4. トランスポートクライアントとページ収集器
	client := odata.NewClient(httpClient, tokenProvider, cfg.BaseURL, log, collector)
	aggregator := odata.NewAggregator(guard, log, collector, cfg.MaxPages)

	// 5. リポジトリとリゾルバー
	customerRepo := repository.NewODataCustomerRepo(client, aggregator, log)
	vendorRepo := repository.NewODataVendorRepo(client, aggregator, log)
	entityResolver := resolver.NewResolver(customerRepo, vendorRepo, log, collector)

	return &components{
		collector:    collector,
		registry:     registry,
		customerRepo: customerRepo,
		vendorRepo:   vendorRepo,
		resolver:     entityResolver,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTP APIとMCPのStreamable HTTP
// エンドポイントを同一ポートで公開する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	comps, err := wire(cfg)
	if err != nil {
		return err
	}

	// MCPサーバー（Streamable HTTPトランスポート）
	mcpSrv := mcpserver.NewServer(&mcpserver.Deps{
		CustomerRepo: comps.customerRepo,
		VendorRepo:   comps.vendorRepo,
		Resolver:     comps.resolver,
		Logger:       slog.Default(),
		Version:      Version,
	})

	// ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		CustomerRepo: comps.customerRepo,
		VendorRepo:   comps.vendorRepo,
		Resolver:     comps.resolver,

		Version:         Version,
		BackendOrigin:   cfg.BackendOrigin(),
		MetricsGatherer: comps.registry,

		MCPHandler: mcpSrv.HTTPHandler(),
	})

	// HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMCP はMCP stdioサーバーモードで起動する。
// stdoutはプロトコルフレーミング専用のため、ログはすべてstderrへ出力される
// （Initのログセットアップ参照）。クライアントの切断またはシグナル受信で終了する。
func runMCP(cfg *config.Config) error {
	comps, err := wire(cfg)
	if err != nil {
		return err
	}

	mcpSrv := mcpserver.NewServer(&mcpserver.Deps{
		CustomerRepo: comps.customerRepo,
		VendorRepo:   comps.vendorRepo,
		Resolver:     comps.resolver,
		Logger:       slog.Default(),
		Version:      Version,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := mcpSrv.RunStdio(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}

	slog.Info("MCP server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
