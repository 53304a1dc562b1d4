package handler

import (
	"encoding/json"
	"net/http"
)

// healthResponse はヘルスチェックのレスポンス。
// Backendには接続先のオリジンのみを含める（資格情報は含めない）。
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Backend string `json:"backend"`
}

// NewHealthHandler はヘルスチェックハンドラーを返す。
// バックエンドへの疎通確認は行わず、プロセスの生存と設定の要約のみを報告する。
func NewHealthHandler(version, backendOrigin string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Status:  "ok",
			Version: version,
			Backend: backendOrigin,
		})
	}
}
