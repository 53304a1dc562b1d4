package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dynabridge/internal/middleware"
	"github.com/hitoshi/dynabridge/internal/model"
)

// CustomerRepositoryInterface は顧客ハンドラーが必要とするリポジトリインターフェース。
type CustomerRepositoryInterface interface {
	// List は顧客エンティティをクエリオプション付きで一覧取得する。
	List(ctx context.Context, opts model.ListOptions) (any, error)
	// GetByAccount は顧客アカウント番号で1件取得する。見つからない場合はnilを返す。
	GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error)
}

// CustomerHandler は顧客マスターのHTTPハンドラー。
type CustomerHandler struct {
	repo CustomerRepositoryInterface
}

// NewCustomerHandler はCustomerHandlerを生成する。
func NewCustomerHandler(repo CustomerRepositoryInterface) *CustomerHandler {
	return &CustomerHandler{repo: repo}
}

// ListCustomers は顧客一覧を取得する。
// GET /api/customers?filter=...&select=a,b&top=10&orderby=...&cross_company=true&all_pages=true
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	result, err := h.repo.List(r.Context(), *opts)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetCustomer は顧客アカウント番号で顧客を1件取得する。
// GET /api/customers/:account
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	record, err := h.repo.GetByAccount(r.Context(), account, model.QueryOptions{})
	if err != nil {
		writeCoreError(w, err)
		return
	}

	if record == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewAccountNotFoundError(account))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}
