package security

import (
	"strings"
	"testing"
	"time"
)

func TestNewOutboundGuard_InvalidURL(t *testing.T) {
	if _, err := NewOutboundGuard("not a url"); err == nil {
		t.Error("ホストを含まないURLはエラーになるべき")
	}
	if _, err := NewOutboundGuard(""); err == nil {
		t.Error("空URLはエラーになるべき")
	}
}

func TestValidateContinuationLink_SameHost(t *testing.T) {
	guard, err := NewOutboundGuard("https://backend.example.com")
	if err != nil {
		t.Fatalf("NewOutboundGuard がエラーを返した: %v", err)
	}

	valid := []string{
		"https://backend.example.com/data/CustomersV3?$skiptoken=abc",
		"https://BACKEND.EXAMPLE.COM/data/next",
		"http://backend.example.com/data/next",
	}
	for _, link := range valid {
		if err := guard.ValidateContinuationLink(link); err != nil {
			t.Errorf("同一ホストのリンクは許可されるべき %q: %v", link, err)
		}
	}
}

func TestValidateContinuationLink_Rejections(t *testing.T) {
	guard, err := NewOutboundGuard("https://backend.example.com")
	if err != nil {
		t.Fatalf("NewOutboundGuard がエラーを返した: %v", err)
	}

	tests := []struct {
		name string
		link string
	}{
		{"空URL", ""},
		{"異なるホスト", "https://evil.example.com/data/next"},
		{"サブドメイン", "https://sub.backend.example.com/data/next"},
		{"不正スキーム", "ftp://backend.example.com/data/next"},
		{"相対URL", "/data/CustomersV3?$skiptoken=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.ValidateContinuationLink(tt.link); err == nil {
				t.Errorf("拒否されるべきリンク: %q", tt.link)
			}
		})
	}
}

func TestValidateContinuationLink_HostMismatchMessage(t *testing.T) {
	guard, _ := NewOutboundGuard("https://backend.example.com")

	err := guard.ValidateContinuationLink("https://evil.example.com/next")
	if err == nil {
		t.Fatal("異なるホストは拒否されるべき")
	}
	if !strings.Contains(err.Error(), "backend.example.com") {
		t.Errorf("エラーメッセージに期待ホストが含まれるべき: %v", err)
	}
}

func TestNewSafeClient(t *testing.T) {
	guard, _ := NewOutboundGuard("https://backend.example.com")

	client := guard.NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
}
