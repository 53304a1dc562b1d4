package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dynabridge/internal/middleware"
	"github.com/hitoshi/dynabridge/internal/model"
)

// VendorRepositoryInterface は仕入先ハンドラーが必要とするリポジトリインターフェース。
type VendorRepositoryInterface interface {
	// List は仕入先エンティティをクエリオプション付きで一覧取得する。
	List(ctx context.Context, opts model.ListOptions) (any, error)
	// GetByAccount は仕入先アカウント番号で1件取得する。見つからない場合はnilを返す。
	GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error)
}

// VendorHandler は仕入先マスターのHTTPハンドラー。
type VendorHandler struct {
	repo VendorRepositoryInterface
}

// NewVendorHandler はVendorHandlerを生成する。
func NewVendorHandler(repo VendorRepositoryInterface) *VendorHandler {
	return &VendorHandler{repo: repo}
}

// ListVendors は仕入先一覧を取得する。
// GET /api/vendors?filter=...&select=a,b&top=10&orderby=...&cross_company=true&all_pages=true
func (h *VendorHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
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

// GetVendor は仕入先アカウント番号で仕入先を1件取得する。
// GET /api/vendors/:account
func (h *VendorHandler) GetVendor(w http.ResponseWriter, r *http.Request) {
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
