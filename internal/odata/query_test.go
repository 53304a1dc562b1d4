package odata

import (
	"testing"

	"github.com/hitoshi/dynabridge/internal/model"
)

func TestBuildQuery_Empty(t *testing.T) {
	got := BuildQuery(model.QueryOptions{})
	if got != "" {
		t.Errorf("BuildQuery(空) = %q, want 空文字列", got)
	}
}

func TestBuildQuery_ClauseOrder(t *testing.T) {
	// 句の出力順序は入力フィールドの指定順に関わらず固定
	opts := model.QueryOptions{
		OrderBy: "Name asc",
		Top:     5,
		Select:  []string{"CustomerAccount", "Name"},
		Filter:  "Name eq 'Acme'",
		Extra: []model.ExtraParam{
			{Key: "cross-company", Value: "true"},
		},
	}

	want := "$filter=Name%20eq%20%27Acme%27&$select=CustomerAccount%2CName&$top=5&$orderby=Name%20asc&cross-company=true"
	got := BuildQuery(opts)
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQuery_Deterministic(t *testing.T) {
	opts := model.QueryOptions{
		Filter: "CustomerAccount eq 'C001'",
		Select: []string{"Name"},
		Top:    10,
		Extra: []model.ExtraParam{
			{Key: "b", Value: "2"},
			{Key: "a", Value: "1"},
		},
	}

	first := BuildQuery(opts)
	for i := 0; i < 10; i++ {
		if got := BuildQuery(opts); got != first {
			t.Fatalf("BuildQuery の結果が呼び出しごとに変化した: %q != %q", got, first)
		}
	}

	// 追加パラメータは指定順を保持する
	want := "$filter=CustomerAccount%20eq%20%27C001%27&$select=Name&$top=10&b=2&a=1"
	if first != want {
		t.Errorf("BuildQuery = %q, want %q", first, want)
	}
}

func TestBuildQuery_OmitsEmptyClauses(t *testing.T) {
	tests := []struct {
		name string
		opts model.QueryOptions
		want string
	}{
		{
			name: "filterのみ",
			opts: model.QueryOptions{Filter: "x eq 1"},
			want: "$filter=x%20eq%201",
		},
		{
			name: "topがゼロは省略",
			opts: model.QueryOptions{Top: 0, OrderBy: "Name"},
			want: "$orderby=Name",
		},
		{
			name: "topが負は省略",
			opts: model.QueryOptions{Top: -1, Filter: "x eq 1"},
			want: "$filter=x%20eq%201",
		},
		{
			name: "空のselectは省略",
			opts: model.QueryOptions{Select: []string{}, Top: 3},
			want: "$top=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.opts); got != tt.want {
				t.Errorf("BuildQuery = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQuery_EncodesSpacesAsPercent20(t *testing.T) {
	got := BuildQuery(model.QueryOptions{Filter: "Name eq 'A B'"})
	if got != "$filter=Name%20eq%20%27A%20B%27" {
		t.Errorf("空白は + ではなく %%20 でエンコードされるべき: %q", got)
	}
}

func TestEscapeODataString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"C001", "C001"},
		{"O'Brien", "O''Brien"},
		{"''", "''''"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := EscapeODataString(tt.in); got != tt.want {
			t.Errorf("EscapeODataString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
