// Package mcpserver はMCP（Model Context Protocol）サーバーを提供する。
// 顧客・仕入先マスターの参照操作をMCPツールとして公開し、
// stdioトランスポートとStreamable HTTPトランスポートの両方に対応する。
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hitoshi/dynabridge/internal/model"
)

// serverName はMCPハンドシェイクで名乗るサーバー名。
const serverName = "dynabridge"

// CustomerRepositoryInterface はMCPサーバーが必要とする顧客リポジトリインターフェース。
type CustomerRepositoryInterface interface {
	List(ctx context.Context, opts model.ListOptions) (any, error)
	GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error)
}

// VendorRepositoryInterface はMCPサーバーが必要とする仕入先リポジトリインターフェース。
type VendorRepositoryInterface interface {
	List(ctx context.Context, opts model.ListOptions) (any, error)
	GetByAccount(ctx context.Context, account string, opts model.QueryOptions) (model.Record, error)
}

// ResolverInterface はMCPサーバーが必要とするリゾルバーインターフェース。
type ResolverInterface interface {
	Resolve(ctx context.Context, account string, preference model.Preference, opts model.QueryOptions) (model.EntityMatch, error)
}

// Deps はNewServerに必要な依存関係をまとめた構造体。
type Deps struct {
	CustomerRepo CustomerRepositoryInterface
	VendorRepo   VendorRepositoryInterface
	Resolver     ResolverInterface
	Logger       *slog.Logger
	Version      string
}

// Server はMCPツールを公開するサーバー。
type Server struct {
	mcpServer *mcp.Server
	deps      *Deps
}

// --- ツール入力型 ---

// listToolInput は一覧系ツールの入力。
type listToolInput struct {
	Filter       string   `json:"filter,omitempty" jsonschema:"OData $filter式（そのまま送信される）"`
	Select       []string `json:"select,omitempty" jsonschema:"取得するフィールド名の一覧"`
	Top          int      `json:"top,omitempty" jsonschema:"取得する最大件数（正の整数のみ有効）"`
	OrderBy      string   `json:"orderby,omitempty" jsonschema:"OData $orderby式"`
	CrossCompany bool     `json:"cross_company,omitempty" jsonschema:"全法人横断で検索するかどうか"`
	AllPages     bool     `json:"all_pages,omitempty" jsonschema:"継続リンクを辿って全ページを収集するかどうか"`
}

// accountToolInput はアカウント指定ツールの入力。
type accountToolInput struct {
	Account string `json:"account" jsonschema:"アカウント番号"`
}

// searchToolInput は横断検索ツールの入力。
type searchToolInput struct {
	Account    string `json:"account" jsonschema:"検索するアカウント番号"`
	Preference string `json:"preference,omitempty" jsonschema:"検索優先順序: customer-first（デフォルト）, vendor-first, parallel"`
}

// NewServer はMCPサーバーを生成し、全ツールを登録する。
func NewServer(deps *Deps) *Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: deps.Version,
	}, nil)

	s := &Server{
		mcpServer: srv,
		deps:      deps,
	}

	s.registerTools()

	return s
}

// registerTools は全MCPツールを登録する。
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_customers",
		Description: "Dynamics 365の顧客マスター（CustomersV3）をODataクエリオプション付きで一覧取得する",
	}, s.listCustomers)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_customer_by_account",
		Description: "顧客アカウント番号で顧客を1件取得する",
	}, s.getCustomerByAccount)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_vendors",
		Description: "Dynamics 365の仕入先マスター（VendorsV3）をODataクエリオプション付きで一覧取得する",
	}, s.listVendors)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_vendor_by_account",
		Description: "仕入先アカウント番号で仕入先を1件取得する",
	}, s.getVendorByAccount)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_account",
		Description: "アカウント番号を顧客・仕入先の両マスターから横断検索し、一致種別（customer/vendor/both/none）を返す",
	}, s.searchAccount)
}

// RunStdio はstdioトランスポートでMCPサーバーを起動する。
// クライアントが切断するかctxがキャンセルされるまでブロックする。
func (s *Server) RunStdio(ctx context.Context) error {
	s.deps.Logger.Info("MCPサーバーをstdioで起動します",
		slog.String("server", serverName),
		slog.String("version", s.deps.Version),
	)
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler はStreamable HTTPトランスポートのハンドラーを返す。
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// --- ツールハンドラー ---

// listCustomers は顧客一覧ツールの実装。
func (s *Server) listCustomers(ctx context.Context, req *mcp.CallToolRequest, in listToolInput) (*mcp.CallToolResult, any, error) {
	result, err := s.deps.CustomerRepo.List(ctx, listOptionsFromInput(in))
	if err != nil {
		return s.toolError("顧客一覧の取得に失敗しました", err)
	}
	return textResult(result)
}

// getCustomerByAccount は顧客取得ツールの実装。
func (s *Server) getCustomerByAccount(ctx context.Context, req *mcp.CallToolRequest, in accountToolInput) (*mcp.CallToolResult, any, error) {
	record, err := s.deps.CustomerRepo.GetByAccount(ctx, in.Account, model.QueryOptions{})
	if err != nil {
		return s.toolError("顧客の取得に失敗しました", err)
	}
	if record == nil {
		return toolErrorText(fmt.Sprintf("顧客アカウント %q は見つかりませんでした", in.Account))
	}
	return textResult(record)
}

// listVendors は仕入先一覧ツールの実装。
func (s *Server) listVendors(ctx context.Context, req *mcp.CallToolRequest, in listToolInput) (*mcp.CallToolResult, any, error) {
	result, err := s.deps.VendorRepo.List(ctx, listOptionsFromInput(in))
	if err != nil {
		return s.toolError("仕入先一覧の取得に失敗しました", err)
	}
	return textResult(result)
}

// getVendorByAccount は仕入先取得ツールの実装。
func (s *Server) getVendorByAccount(ctx context.Context, req *mcp.CallToolRequest, in accountToolInput) (*mcp.CallToolResult, any, error) {
	record, err := s.deps.VendorRepo.GetByAccount(ctx, in.Account, model.QueryOptions{})
	if err != nil {
		return s.toolError("仕入先の取得に失敗しました", err)
	}
	if record == nil {
		return toolErrorText(fmt.Sprintf("仕入先アカウント %q は見つかりませんでした", in.Account))
	}
	return textResult(record)
}

// searchAccount は横断検索ツールの実装。
func (s *Server) searchAccount(ctx context.Context, req *mcp.CallToolRequest, in searchToolInput) (*mcp.CallToolResult, any, error) {
	preference := model.PreferenceCustomerFirst
	if in.Preference != "" {
		preference = model.Preference(in.Preference)
		if !model.ValidPreference(preference) {
			return toolErrorText(fmt.Sprintf("preference %q は不正です（customer-first / vendor-first / parallel のいずれか）", in.Preference))
		}
	}

	match, err := s.deps.Resolver.Resolve(ctx, in.Account, preference, model.QueryOptions{})
	if err != nil {
		return s.toolError("横断検索に失敗しました", err)
	}

	return textResult(map[string]any{
		"account":  in.Account,
		"kind":     string(match.Kind),
		"customer": match.Customer,
		"vendor":   match.Vendor,
	})
}

// --- ヘルパー ---

// listOptionsFromInput はツール入力をListOptionsへ変換する。
func listOptionsFromInput(in listToolInput) model.ListOptions {
	return model.ListOptions{
		QueryOptions: model.QueryOptions{
			Filter:  in.Filter,
			Select:  in.Select,
			Top:     in.Top,
			OrderBy: in.OrderBy,
		},
		CrossCompany:  in.CrossCompany,
		FetchAllPages: in.AllPages,
	}
}

// textResult は値をJSONテキストとして返す成功結果を構築する。
func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("結果のJSON化に失敗: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// toolError は実行時エラーをプロトコルエラーではなくツール結果として返す。
// LLMクライアントがエラー内容を読んでリトライや言い換えを判断できるようにする。
func (s *Server) toolError(message string, err error) (*mcp.CallToolResult, any, error) {
	s.deps.Logger.Warn("MCPツールの実行に失敗しました",
		slog.String("message", message),
		slog.String("error", err.Error()),
	)
	return toolErrorText(fmt.Sprintf("%s: %s", message, err.Error()))
}

// toolErrorText はIsErrorを立てたテキスト結果を構築する。
func toolErrorText(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}
