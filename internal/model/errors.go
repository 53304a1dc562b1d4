package model

import "fmt"

// --- コアエラー分類 ---
// 認証・HTTP・ペイロード・ページネーションの4種の型付きエラーを定義する。
// 「見つからない」は値（nilレコード）であり、エラーとして扱わない。

// AuthenticationError はIDプロバイダーとのトークン交換の失敗、
// または使用可能なトークンを含まないレスポンスを表す。
type AuthenticationError struct {
	Reason string
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("認証に失敗しました: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("認証に失敗しました: %s", e.Reason)
}

// Unwrap はラップされたエラーを返す。
func (e *AuthenticationError) Unwrap() error { return e.Err }

// HTTPError はバックエンドが非成功ステータスを返したことを表す。
// 診断のためステータスコード、ステータステキスト、生ボディを保持する。
type HTTPError struct {
	Status     int
	StatusText string
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *HTTPError) Error() string {
	return fmt.Sprintf("バックエンドがステータス %d (%s) を返しました", e.Status, e.StatusText)
}

// UnexpectedPayloadError は成功ステータスだがボディがJSONとして解析できない、
// またはHTMLドキュメントである（認証・リダイレクト失敗の偽装）ことを表す。
type UnexpectedPayloadError struct {
	Reason  string
	Snippet string
}

// Error はerrorインターフェースを実装する。
func (e *UnexpectedPayloadError) Error() string {
	return fmt.Sprintf("予期しないレスポンスペイロード: %s", e.Reason)
}

// PaginationLimitError は継続リンクの追跡回数が上限を超えたことを表す。
// 循環または無限の継続チェーンを返す不正なバックエンドへの防御。
type PaginationLimitError struct {
	MaxPages int
}

// Error はerrorインターフェースを実装する。
func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("ページネーションの上限（%dページ）を超えました", e.MaxPages)
}

// --- API統一エラーフォーマット ---

// APIError はHTTP APIの統一エラーフォーマットを表す。
// 原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, backend, system
	Action   string // 呼び出し側向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidQuery      = "INVALID_QUERY"
	ErrCodeInvalidPreference = "INVALID_PREFERENCE"
	ErrCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	ErrCodeAuthFailed        = "AUTH_FAILED"
	ErrCodeBackendError      = "BACKEND_ERROR"
)

// NewInvalidQueryError は無効なクエリパラメータエラーを生成する。
func NewInvalidQueryError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuery,
		Message:  fmt.Sprintf("無効なクエリパラメータです: %s", reason),
		Category: "validation",
		Action:   "クエリパラメータの形式を確認してください。",
	}
}

// NewInvalidPreferenceError は無効な優先順序エラーを生成する。
func NewInvalidPreferenceError(preference string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPreference,
		Message:  fmt.Sprintf("無効な優先順序です: %s", preference),
		Category: "validation",
		Action:   "preferenceには customer-first、vendor-first、parallel のいずれかを指定してください。",
	}
}

// NewAccountNotFoundError は口座未検出エラーを生成する。
func NewAccountNotFoundError(account string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("指定された口座が見つかりません: %s", account),
		Category: "backend",
		Action:   "口座番号を確認してください。",
	}
}

// NewAuthFailedError は認証失敗エラーを生成する。
func NewAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  "バックエンドへの認証に失敗しました。",
		Category: "auth",
		Action:   "クライアント資格情報とテナント設定を確認してください。",
	}
}

// NewBackendError はバックエンド呼び出し失敗エラーを生成する。
func NewBackendError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeBackendError,
		Message:  fmt.Sprintf("バックエンドの呼び出しに失敗しました: %s", reason),
		Category: "backend",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
