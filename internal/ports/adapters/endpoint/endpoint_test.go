package endpoint

import (
	"strings"
	"testing"
)

var testRule = Rule{
	Name:         "OPENROUTER_BASE_URL",
	Default:      "https://openrouter.ai",
	DefaultHosts: []string{"openrouter.ai", "api.openrouter.ai"},
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      string
	}{
		{name: "empty uses default", baseURL: ""},
		{name: "default api host", baseURL: "https://api.openrouter.ai/"},
		{name: "reject non-absolute URL", baseURL: "openrouter.ai", wantErr: "absolute URL"},
		{name: "reject http", baseURL: "http://openrouter.ai", wantErr: "https is required"},
		{name: "reject unknown host", baseURL: "https://evil.example", wantErr: "is not allowed"},
		{name: "allow configured host", baseURL: "https://proxy.internal", allowedHosts: []string{" https://proxy.internal:8443/ "}},
		{name: "reject userinfo", baseURL: "https://u:p@openrouter.ai", wantErr: "userinfo"},
		{name: "reject query", baseURL: "https://openrouter.ai?x=1", wantErr: "query and fragment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testRule.Validate(tt.baseURL, tt.allowedHosts)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), "OPENROUTER_BASE_URL") {
				t.Fatalf("expected env name in error, got %v", err)
			}
		})
	}
}

func TestSplitHosts(t *testing.T) {
	got := SplitHosts(" a.example, ,b.example ")
	if len(got) != 2 || got[0] != "a.example" || got[1] != "b.example" {
		t.Fatalf("unexpected hosts: %v", got)
	}
}

func TestHostSet_IgnoresBlank(t *testing.T) {
	if got := hostSet([]string{" ", "https://", "http://"}); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
