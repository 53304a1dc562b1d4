// Package handler はHTTP APIのハンドラーとルーティングを提供する。
// ハンドラー層はクエリパラメータの検証とコアエラーの外向き変換のみを行い、
// ドメインロジックはリポジトリとリゾルバーに委譲する。
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/dynabridge/internal/middleware"
	"github.com/hitoshi/dynabridge/internal/model"
)

// parseListOptions はクエリパラメータからListOptionsを構築する。
// 検証エラーの場合はnilとAPIErrorを返す。
func parseListOptions(r *http.Request) (*model.ListOptions, *model.APIError) {
	q := r.URL.Query()

	opts := &model.ListOptions{}
	opts.Filter = q.Get("filter")
	opts.OrderBy = q.Get("orderby")

	if raw := q.Get("select"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			field = strings.TrimSpace(field)
			if field != "" {
				opts.Select = append(opts.Select, field)
			}
		}
	}

	if raw := q.Get("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil {
			return nil, model.NewInvalidQueryError(fmt.Sprintf("top は整数で指定してください: %s", raw))
		}
		opts.Top = top
	}

	opts.CrossCompany = isTruthy(q.Get("cross_company"))
	opts.FetchAllPages = isTruthy(q.Get("all_pages"))

	return opts, nil
}

// isTruthy はクエリパラメータの真偽値表現を判定する。
func isTruthy(v string) bool {
	return v == "true" || v == "1"
}

// writeCoreError はコアの型付きエラーを外向きのHTTPレスポンスへ変換する。
// コア自身は外向きの形状を決定しないため、この変換はハンドラー層の責務。
func writeCoreError(w http.ResponseWriter, err error) {
	var authErr *model.AuthenticationError
	if errors.As(err, &authErr) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewAuthFailedError())
		return
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway,
			model.NewBackendError(fmt.Sprintf("ステータス %d (%s)", httpErr.Status, httpErr.StatusText)))
		return
	}

	var payloadErr *model.UnexpectedPayloadError
	if errors.As(err, &payloadErr) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewBackendError(payloadErr.Reason))
		return
	}

	var pageErr *model.PaginationLimitError
	if errors.As(err, &pageErr) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewBackendError(pageErr.Error()))
		return
	}

	middleware.WriteInternalServerError(w)
}
