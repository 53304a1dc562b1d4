package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Dynamics 365バックエンド
	BaseURL string

	// Azure AD（クライアント資格情報フロー）
	ClientID     string
	ClientSecret string
	TenantID     string

	// HTTP
	HTTPTimeout time.Duration
	MaxPages    int

	// Server
	ServerPort string

	// Rate Limit
	RateLimitGeneral int

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// BaseURLは読み込み時にサニタイズされる（SanitizeBaseURL参照）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BaseURL = SanitizeBaseURL(os.Getenv("DYNAMICS_BASE_URL"))
	if cfg.BaseURL == "" {
		missing = append(missing, "DYNAMICS_BASE_URL")
	}

	cfg.ClientID = os.Getenv("AZURE_CLIENT_ID")
	if cfg.ClientID == "" {
		missing = append(missing, "AZURE_CLIENT_ID")
	}

	cfg.ClientSecret = os.Getenv("AZURE_CLIENT_SECRET")
	if cfg.ClientSecret == "" {
		missing = append(missing, "AZURE_CLIENT_SECRET")
	}

	cfg.TenantID = os.Getenv("AZURE_TENANT_ID")
	if cfg.TenantID == "" {
		missing = append(missing, "AZURE_TENANT_ID")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("DYNAMICS_BASE_URL のパースに失敗しました: %w", err)
	}

	// Optional fields with defaults
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	cfg.MaxPages = getEnvInt("MAX_PAGES", 100)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// SanitizeBaseURL は設定されたバックエンドURLをサニタイズする。
// トークン交換のスコープ文字列は末尾の文字に敏感なため、
// 前後の空白・引用符・末尾のカンマ・末尾のスラッシュを除去する。
func SanitizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	s = strings.TrimRight(s, ",")
	s = strings.TrimRight(s, "/")
	return s
}

// BackendOrigin はBaseURLのスキーム+ホスト部分を返す。
// トークン交換のスコープ（{origin}/.default）の構築に使用する。
func (c *Config) BackendOrigin() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c.BaseURL
	}
	return u.Scheme + "://" + u.Host
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
