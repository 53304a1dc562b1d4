package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hitoshi/dynabridge/internal/model"
)

func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// mockRepo は関数フィールド差し替え式のリポジトリモック。
type mockRepo struct {
	listFn         func(ctx context.Context, opts model.ListOptions) (any, error)
	getByAccountFn func(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error)
}

func (m *mockRepo) List(ctx context.Context, opts model.ListOptions) (any, error) {
	if m.listFn != nil {
		return m.listFn(ctx, opts)
	}
	return map[string]any{"value": []any{}}, nil
}

func (m *mockRepo) GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error) {
	if m.getByAccountFn != nil {
		return m.getByAccountFn(ctx, account, opts)
	}
	return nil, nil
}

// mockResolver は固定結果を返すリゾルバーモック。
type mockResolver struct {
	match model.EntityMatch
	err   error
}

func (m *mockResolver) Resolve(ctx context.Context, account string, preference model.Preference, opts model.QueryOptions) (model.EntityMatch, error) {
	return m.match, m.err
}

func newTestServer(customers, vendors *mockRepo, resolver *mockResolver) *Server {
	return NewServer(&Deps{
		CustomerRepo: customers,
		VendorRepo:   vendors,
		Resolver:     resolver,
		Logger:       newTestLogger(),
		Version:      "test",
	})
}

// resultText はツール結果の最初のテキストコンテンツを返す。
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("ツール結果にコンテンツが含まれるべき")
	}
	text, isText := result.Content[0].(*mcp.TextContent)
	if !isText {
		t.Fatalf("コンテンツはテキストであるべき: %T", result.Content[0])
	}
	return text.Text
}

func TestListCustomers_PassesOptions(t *testing.T) {
	var gotOpts model.ListOptions
	customers := &mockRepo{listFn: func(ctx context.Context, opts model.ListOptions) (any, error) {
		gotOpts = opts
		return map[string]any{"value": []any{map[string]any{"CustomerAccount": "C001"}}}, nil
	}}

	s := newTestServer(customers, &mockRepo{}, &mockResolver{})

	result, _, err := s.listCustomers(context.Background(), nil, listToolInput{
		Filter:       "Name eq 'Acme'",
		Select:       []string{"CustomerAccount", "Name"},
		Top:          5,
		CrossCompany: true,
		AllPages:     true,
	})
	if err != nil {
		t.Fatalf("listCustomers がエラーを返した: %v", err)
	}
	if result.IsError {
		t.Fatalf("成功時はIsErrorが立たないべき: %s", resultText(t, result))
	}

	if gotOpts.Filter != "Name eq 'Acme'" {
		t.Errorf("Filter = %q", gotOpts.Filter)
	}
	if gotOpts.Top != 5 {
		t.Errorf("Top = %d, want 5", gotOpts.Top)
	}
	if !gotOpts.CrossCompany || !gotOpts.FetchAllPages {
		t.Error("CrossCompanyとFetchAllPagesが引き継がれるべき")
	}

	if !strings.Contains(resultText(t, result), "C001") {
		t.Error("結果テキストにレコードが含まれるべき")
	}
}

func TestGetCustomerByAccount_Found(t *testing.T) {
	customers := &mockRepo{getByAccountFn: func(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error) {
		return model.Record{"CustomerAccount": account, "Name": "Acme"}, nil
	}}

	s := newTestServer(customers, &mockRepo{}, &mockResolver{})

	result, _, err := s.getCustomerByAccount(context.Background(), nil, accountToolInput{Account: "C001"})
	if err != nil {
		t.Fatalf("getCustomerByAccount がエラーを返した: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &record); err != nil {
		t.Fatalf("結果テキストはJSONであるべき: %v", err)
	}
	if record["Name"] != "Acme" {
		t.Errorf("Name = %v, want Acme", record["Name"])
	}
}

func TestGetCustomerByAccount_NotFound(t *testing.T) {
	s := newTestServer(&mockRepo{}, &mockRepo{}, &mockResolver{})

	result, _, err := s.getCustomerByAccount(context.Background(), nil, accountToolInput{Account: "MISSING"})
	if err != nil {
		t.Fatalf("未検出はプロトコルエラーではなくツール結果で返すべき: %v", err)
	}
	if !result.IsError {
		t.Error("未検出はIsErrorが立つべき")
	}
	if !strings.Contains(resultText(t, result), "MISSING") {
		t.Error("結果テキストにアカウント番号が含まれるべき")
	}
}

func TestGetVendorByAccount_BackendError(t *testing.T) {
	vendors := &mockRepo{getByAccountFn: func(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error) {
		return nil, fmt.Errorf("backend down")
	}}

	s := newTestServer(&mockRepo{}, vendors, &mockResolver{})

	result, _, err := s.getVendorByAccount(context.Background(), nil, accountToolInput{Account: "V001"})
	if err != nil {
		t.Fatalf("実行時エラーはプロトコルエラーではなくツール結果で返すべき: %v", err)
	}
	if !result.IsError {
		t.Error("実行時エラーはIsErrorが立つべき")
	}
}

func TestSearchAccount_InvalidPreference(t *testing.T) {
	s := newTestServer(&mockRepo{}, &mockRepo{}, &mockResolver{})

	result, _, err := s.searchAccount(context.Background(), nil, searchToolInput{
		Account:    "A001",
		Preference: "bogus",
	})
	if err != nil {
		t.Fatalf("検証エラーはツール結果で返すべき: %v", err)
	}
	if !result.IsError {
		t.Error("無効な優先順序はIsErrorが立つべき")
	}
}

func TestSearchAccount_Both(t *testing.T) {
	resolver := &mockResolver{match: model.EntityMatch{
		Kind:     model.MatchBoth,
		Customer: model.Record{"CustomerAccount": "A001"},
		Vendor:   model.Record{"VendorAccountNumber": "A001"},
	}}

	s := newTestServer(&mockRepo{}, &mockRepo{}, resolver)

	result, _, err := s.searchAccount(context.Background(), nil, searchToolInput{Account: "A001"})
	if err != nil {
		t.Fatalf("searchAccount がエラーを返した: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &body); err != nil {
		t.Fatalf("結果テキストはJSONであるべき: %v", err)
	}
	if body["kind"] != "both" {
		t.Errorf("kind = %v, want both", body["kind"])
	}
}

func TestNewServer_NonNil(t *testing.T) {
	s := newTestServer(&mockRepo{}, &mockRepo{}, &mockResolver{})
	if s == nil || s.mcpServer == nil {
		t.Fatal("NewServer は初期化済みサーバーを返すべき")
	}
	if s.HTTPHandler() == nil {
		t.Fatal("HTTPHandler は nil を返してはならない")
	}
}
