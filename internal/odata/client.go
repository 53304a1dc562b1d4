package odata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/dynabridge/internal/model"
)

// redactedPlaceholder はログに出力するAuthorizationヘッダーの値。
// stdioベースのトランスポートはプロトコルフレーミングと出力ストリームを
// 共有するため、トークンを含むログの漏出は二重に危険である。
const redactedPlaceholder = "[REDACTED]"

// snippetLimit は診断用に保持するボディ断片の最大バイト数。
const snippetLimit = 200

// TokenSource は有効なベアラートークンの取得インターフェース。
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// MetricsRecorder はバックエンド呼び出しのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordBackendRequest(statusCode int)
	RecordBackendLatency(duration time.Duration)
}

// Client はDynamics 365 ODataエンドポイントのHTTPクライアント。
// すべてのリクエストにベアラートークンとODataバージョンヘッダーを付与し、
// レスポンス形状を検証する。リトライは一切行わず、失敗は
// そのまま呼び出し元へ伝播する。
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。metricsはnil可。
func NewClient(httpClient *http.Client, tokens TokenSource, baseURL string, logger *slog.Logger, metrics MetricsRecorder) *Client {
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		metrics:    metrics,
	}
}

// Request はバックエンドへHTTPリクエストを発行し、解析済みJSON値を返す。
// endpointは相対パスまたは絶対URL。相対パスはベースURLに対して
// ちょうど1つの「/」で結合される。bodyが非nilの場合はJSONとして送信する。
// 空ボディのレスポンスはエラーではなくnilとして返す。
func (c *Client) Request(ctx context.Context, endpoint, method string, body any) (any, error) {
	reqURL := c.resolveURL(endpoint)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OData-Version", "4.0")
	req.Header.Set("OData-MaxVersion", "4.0")

	// 診断ログ。Authorizationは定数プレースホルダーにマスクする。
	c.logger.Debug("バックエンドへリクエストを送信します",
		slog.String("method", method),
		slog.String("url", reqURL),
		slog.String("authorization", redactedPlaceholder),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("バックエンドへのHTTPリクエストに失敗しました",
			slog.String("method", method),
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("バックエンドへのHTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordBackendRequest(resp.StatusCode)
		c.metrics.RecordBackendLatency(duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("バックエンドがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("url", reqURL),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		return nil, &model.HTTPError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(respBody),
		}
	}

	// 空ボディは正常（nullとして扱う）
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}

	// 成功ステータスのHTMLボディは認証・リダイレクト失敗の偽装
	if IsHTMLDocument(respBody) {
		c.logger.Error("成功ステータスでHTMLドキュメントが返されました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("url", reqURL),
		)
		return nil, &model.UnexpectedPayloadError{
			Reason:  "成功ステータスでHTMLドキュメントが返されました（認証失敗の可能性）",
			Snippet: snippet(respBody),
		}
	}

	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &model.UnexpectedPayloadError{
			Reason:  fmt.Sprintf("レスポンスJSONのパースに失敗しました: %v", err),
			Snippet: snippet(respBody),
		}
	}

	c.logger.Debug("バックエンドからレスポンスを受信しました",
		slog.Int("http_status", resp.StatusCode),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return parsed, nil
}

// resolveURL はエンドポイントを絶対URLに解決する。
// ベース・パス双方の末尾/先頭スラッシュに関わらず、ちょうど1つの
// 「/」で結合する。
func (c *Client) resolveURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// snippet は診断用のボディ断片を返す。
func snippet(body []byte) string {
	if len(body) > snippetLimit {
		return string(body[:snippetLimit])
	}
	return string(body)
}
