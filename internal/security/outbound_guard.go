// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// OutboundGuardService はバックエンドへの外向きHTTPアクセスの保護インターフェース。
// 継続リンクの追跡時とHTTPクライアント生成時の両方で使用される。
type OutboundGuardService interface {
	// NewSafeClient は保護機能付きのHTTPクライアントを生成する。
	// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
	// メタデータIPへのリクエストが自動的にブロックされる。
	// DNS再バインディング攻撃への対策も有効化される。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateContinuationLink は継続リンクの安全性を事前に検証する。
	// バックエンドが返す継続リンクは設定済みバックエンドと同一ホストの
	// 絶対URLでなければならない。異なるホストへのリンクは、侵害された
	// バックエンドによるリダイレクトとみなして拒否する。
	ValidateContinuationLink(rawURL string) error
}

// allowedSchemes は外向きアクセスで許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// outboundGuard はOutboundGuardServiceの実装。
// 許可ホストは設定済みバックエンドのホストのみ。
type outboundGuard struct {
	backendHost string
}

// NewOutboundGuard は指定されたバックエンドベースURLに固定された
// OutboundGuardServiceを生成する。
func NewOutboundGuard(backendBaseURL string) (*outboundGuard, error) {
	u, err := url.Parse(backendBaseURL)
	if err != nil {
		return nil, fmt.Errorf("バックエンドURLのパースに失敗しました: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("バックエンドURLにホストが含まれていません: %s", backendBaseURL)
	}
	return &outboundGuard{backendHost: strings.ToLower(u.Hostname())}, nil
}

// NewSafeClient は保護機能付きのHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃にも対応している。
func (g *outboundGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// ValidateContinuationLink は継続リンクの安全性を事前に検証する。
// DNS解決を伴わない静的な検証を行う。
func (g *outboundGuard) ValidateContinuationLink(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// スキーム検証: http/httpsのみ許可
	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	// ホスト検証: バックエンドと同一ホストのみ許可
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}
	if host != g.backendHost {
		return fmt.Errorf("continuation link host %s does not match backend host %s", host, g.backendHost)
	}

	return nil
}

// isAllowedScheme はURLスキームが許可リストに含まれるかを検証する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}
