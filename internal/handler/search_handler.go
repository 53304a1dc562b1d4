package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dynabridge/internal/middleware"
	"github.com/hitoshi/dynabridge/internal/model"
)

// ResolverInterface は検索ハンドラーが必要とするリゾルバーインターフェース。
type ResolverInterface interface {
	// Resolve は口座識別子を優先順序に従って顧客・仕入先へ解決する。
	Resolve(ctx context.Context, account string, preference model.Preference, opts model.QueryOptions) (model.EntityMatch, error)
}

// SearchHandler は口座識別子横断検索のHTTPハンドラー。
type SearchHandler struct {
	resolver ResolverInterface
}

// NewSearchHandler はSearchHandlerを生成する。
func NewSearchHandler(resolver ResolverInterface) *SearchHandler {
	return &SearchHandler{resolver: resolver}
}

// searchResponse は横断検索のレスポンス。
type searchResponse struct {
	Account  string       `json:"account"`
	Kind     string       `json:"kind"`
	Customer model.Record `json:"customer,omitempty"`
	Vendor   model.Record `json:"vendor,omitempty"`
}

// SearchAccount は口座識別子を顧客・仕入先の両マスターから横断検索する。
// GET /api/search/:account?preference=customer-first|vendor-first|parallel
func (h *SearchHandler) SearchAccount(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	preference := model.PreferenceCustomerFirst
	if raw := r.URL.Query().Get("preference"); raw != "" {
		preference = model.Preference(raw)
		if !model.ValidPreference(preference) {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidPreferenceError(raw))
			return
		}
	}

	match, err := h.resolver.Resolve(r.Context(), account, preference, model.QueryOptions{})
	if err != nil {
		writeCoreError(w, err)
		return
	}

	if match.Kind == model.MatchNone {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewAccountNotFoundError(account))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(searchResponse{
		Account:  account,
		Kind:     string(match.Kind),
		Customer: match.Customer,
		Vendor:   match.Vendor,
	})
}
