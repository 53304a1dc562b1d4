package odata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hitoshi/dynabridge/internal/model"
)

// mockValidator は検証関数を差し替え可能なLinkValidator。
type mockValidator struct {
	validateFn func(rawURL string) error
}

func (m *mockValidator) ValidateContinuationLink(rawURL string) error {
	if m.validateFn != nil {
		return m.validateFn(rawURL)
	}
	return nil
}

// mockRequester はURL別に固定ペイロードを返すPageRequester。
type mockRequester struct {
	pages    map[string]any
	requests []string
}

func (m *mockRequester) Request(ctx context.Context, endpoint, method string, body any) (any, error) {
	m.requests = append(m.requests, endpoint)
	payload, exists := m.pages[endpoint]
	if !exists {
		return nil, fmt.Errorf("unexpected request: %s", endpoint)
	}
	return payload, nil
}

// pageWithLink はテスト用のページペイロードを構築する。
func pageWithLink(link string, accounts ...string) map[string]any {
	records := make([]any, 0, len(accounts))
	for _, a := range accounts {
		records = append(records, map[string]any{"CustomerAccount": a})
	}
	page := map[string]any{"value": records}
	if link != "" {
		page["@odata.nextLink"] = link
	}
	return page
}

func TestAggregator_CollectAll_ThreePages(t *testing.T) {
	var buf bytes.Buffer
	requester := &mockRequester{pages: map[string]any{
		"https://backend.example.com/p2": pageWithLink("https://backend.example.com/p3", "C003", "C004"),
		"https://backend.example.com/p3": pageWithLink("", "C005", "C006"),
	}}

	agg := NewAggregator(&mockValidator{}, newTestLogger(&buf), nil, 0)

	first := pageWithLink("https://backend.example.com/p2", "C001", "C002")
	result, err := agg.CollectAll(context.Background(), first, requester)
	if err != nil {
		t.Fatalf("CollectAll がエラーを返した: %v", err)
	}

	records, isRecords := result.([]model.Record)
	if !isRecords {
		t.Fatalf("結果はレコード列であるべき: %T", result)
	}
	if len(records) != 6 {
		t.Fatalf("レコード数 = %d, want 6", len(records))
	}

	// ページ到着順・ページ内順が保持される
	wantOrder := []string{"C001", "C002", "C003", "C004", "C005", "C006"}
	for i, want := range wantOrder {
		if got := records[i]["CustomerAccount"]; got != want {
			t.Errorf("records[%d] = %v, want %s", i, got, want)
		}
	}

	if len(requester.requests) != 2 {
		t.Errorf("追加リクエスト数 = %d, want 2", len(requester.requests))
	}
}

func TestAggregator_CollectAll_NonPagePassthrough(t *testing.T) {
	var buf bytes.Buffer
	agg := NewAggregator(&mockValidator{}, newTestLogger(&buf), nil, 0)

	payload := map[string]any{"CustomerAccount": "C001"}
	result, err := agg.CollectAll(context.Background(), payload, &mockRequester{})
	if err != nil {
		t.Fatalf("CollectAll がエラーを返した: %v", err)
	}

	obj, isObj := result.(map[string]any)
	if !isObj || obj["CustomerAccount"] != "C001" {
		t.Errorf("ページ形状でないペイロードはそのまま返すべき: %#v", result)
	}
}

func TestAggregator_CollectAll_MaxPagesExceeded(t *testing.T) {
	var buf bytes.Buffer

	// 自分自身を指し続ける循環継続リンク
	loop := "https://backend.example.com/loop"
	requester := &mockRequester{pages: map[string]any{
		loop: pageWithLink(loop, "C001"),
	}}

	agg := NewAggregator(&mockValidator{}, newTestLogger(&buf), nil, 3)

	first := pageWithLink(loop, "C000")
	_, err := agg.CollectAll(context.Background(), first, requester)

	var limitErr *model.PaginationLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("上限超過はPaginationLimitErrorを返すべき: %v", err)
	}
	if limitErr.MaxPages != 3 {
		t.Errorf("MaxPages = %d, want 3", limitErr.MaxPages)
	}
}

func TestAggregator_CollectAll_ValidatorRejects(t *testing.T) {
	var buf bytes.Buffer
	validator := &mockValidator{validateFn: func(rawURL string) error {
		return fmt.Errorf("host mismatch")
	}}

	agg := NewAggregator(validator, newTestLogger(&buf), nil, 0)

	first := pageWithLink("https://evil.example.com/p2", "C001")
	_, err := agg.CollectAll(context.Background(), first, &mockRequester{})
	if err == nil {
		t.Fatal("検証に失敗した継続リンクはエラーになるべき")
	}
}

func TestAggregator_CollectAll_RequestError(t *testing.T) {
	var buf bytes.Buffer
	agg := NewAggregator(&mockValidator{}, newTestLogger(&buf), nil, 0)

	// mockRequesterは未登録URLへのリクエストでエラーを返す
	first := pageWithLink("https://backend.example.com/missing", "C001")
	_, err := agg.CollectAll(context.Background(), first, &mockRequester{pages: map[string]any{}})
	if err == nil {
		t.Fatal("次ページ取得の失敗は伝播すべき")
	}
}

func TestAggregator_CollectAll_NonPageIntermediateBreaks(t *testing.T) {
	var buf bytes.Buffer
	requester := &mockRequester{pages: map[string]any{
		"https://backend.example.com/p2": map[string]any{"odd": "shape"},
	}}

	agg := NewAggregator(&mockValidator{}, newTestLogger(&buf), nil, 0)

	first := pageWithLink("https://backend.example.com/p2", "C001", "C002")
	result, err := agg.CollectAll(context.Background(), first, requester)
	if err != nil {
		t.Fatalf("CollectAll がエラーを返した: %v", err)
	}

	records, isRecords := result.([]model.Record)
	if !isRecords {
		t.Fatalf("結果はレコード列であるべき: %T", result)
	}
	if len(records) != 2 {
		t.Errorf("中断時は蓄積分のみ返すべき: レコード数 = %d, want 2", len(records))
	}
}
