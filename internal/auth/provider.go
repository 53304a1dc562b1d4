// Package auth はDynamics 365バックエンドへのアプリケーション認証を提供する。
// Azure ADに対するクライアント資格情報フローでアクセストークンを取得し、
// プロセス内にキャッシュする。キャッシュされるのはトークンのみで、
// エンティティデータは一切キャッシュしない。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/hitoshi/dynabridge/internal/model"
)

// renewalSkew はトークン失効前の更新マージン。
// 残り有効期間がこの値を下回ったキャッシュは不在として扱い、再交換する。
const renewalSkew = 3 * time.Minute

// defaultTokenURLFormat はAzure ADのトークンエンドポイント。
const defaultTokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// MetricsRecorder はトークン更新のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordTokenRefresh(success bool)
}

// Credential はキャッシュされたアクセストークン。
// 交換成功時に全体が置き換えられ、部分的に変更されることはない。
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Config はProviderの設定。
type Config struct {
	ClientID     string
	ClientSecret string
	TenantID     string

	// BackendOrigin はバックエンドのスキーム+ホスト。
	// スコープは {BackendOrigin}/.default となる。
	BackendOrigin string

	// TokenURL はテスト用にトークンエンドポイントをオーバーライドする。
	TokenURL string

	// HTTPClient はトークン交換に使用するHTTPクライアント（テスト用）。
	HTTPClient *http.Client

	// Now は現在時刻の取得関数（テスト用）。未指定の場合time.Now。
	Now func() time.Time
}

// Provider はクライアント資格情報フローのトークンプロバイダー。
// バックエンド接続設定ごとに1インスタンスを生成し、全リポジトリで共有する。
// 更新パスはミューテックスで保護され、キャッシュミス時の交換は
// プロセス内で同時に1回のみ実行される。
type Provider struct {
	exchange   *clientcredentials.Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
	now        func() time.Time

	mu     sync.Mutex
	cached *Credential
}

// NewProvider はProviderを生成する。metricsはnil可。
func NewProvider(cfg Config, logger *slog.Logger, metrics MetricsRecorder) *Provider {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = fmt.Sprintf(defaultTokenURLFormat, cfg.TenantID)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Provider{
		exchange: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{cfg.BackendOrigin + "/.default"},
		},
		httpClient: cfg.HTTPClient,
		logger:     logger,
		metrics:    metrics,
		now:        now,
	}
}

// Token は有効なアクセストークンを返す。
// キャッシュが有効な場合はネットワーク呼び出しなしで返す（副作用なし）。
// 交換に失敗した場合は*model.AuthenticationErrorを返し、
// 既存のキャッシュには一切手を付けない。
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.cached != nil && now.Before(p.cached.ExpiresAt.Add(-renewalSkew)) {
		return p.cached.Token, nil
	}

	cred, err := p.refresh(ctx)
	if err != nil {
		return "", err
	}

	// 交換成功時のみキャッシュを全体置換する
	p.cached = cred
	return cred.Token, nil
}

// refresh はIDプロバイダーとのトークン交換を実行する。
func (p *Provider) refresh(ctx context.Context) (*Credential, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	tok, err := p.exchange.Token(ctx)
	if err != nil {
		p.logger.Error("トークン交換に失敗しました",
			slog.String("token_url", p.exchange.TokenURL),
			slog.String("error", err.Error()),
		)
		if p.metrics != nil {
			p.metrics.RecordTokenRefresh(false)
		}
		return nil, &model.AuthenticationError{Reason: "トークン交換に失敗しました", Err: err}
	}

	if tok.AccessToken == "" {
		if p.metrics != nil {
			p.metrics.RecordTokenRefresh(false)
		}
		return nil, &model.AuthenticationError{Reason: "レスポンスに使用可能なトークンが含まれていません"}
	}

	p.logger.Info("アクセストークンを更新しました",
		slog.String("scope", p.exchange.Scopes[0]),
		slog.Time("expires_at", tok.Expiry),
	)
	if p.metrics != nil {
		p.metrics.RecordTokenRefresh(true)
	}

	return &Credential{
		Token:     tok.AccessToken,
		ExpiresAt: tok.Expiry,
	}, nil
}
