package providers

import (
	"context"
	"net/http"
	"testing"
)

func TestStaticTokenSource_RejectsPlaceholderToken(t *testing.T) {
	src := NewStaticTokenSource("<HF_API_KEY>", "providers.huggingface.api_key")
	if _, err := src.Token(context.Background()); err == nil {
		t.Fatalf("expected placeholder token to be rejected")
	}
}

func TestStaticTokenSource_RejectsEnvReferenceToken(t *testing.T) {
	src := NewStaticTokenSource("${HF_API_KEY}", "providers.huggingface.api_key")
	if _, err := src.Token(context.Background()); err == nil {
		t.Fatalf("expected env reference token to be rejected")
	}
}

func TestStaticTokenSource_TrimsToken(t *testing.T) {
	src := NewStaticTokenSource("  hf_abc123 \n", "")
	got, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if got != "hf_abc123" {
		t.Fatalf("expected trimmed token, got %q", got)
	}
	if src.Source() != "static" {
		t.Fatalf("expected default source name, got %q", src.Source())
	}
}

func TestAPIKeyAuth_SetsBearerHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "http://example.invalid", nil)
	auth := NewAPIKeyAuth(NewStaticTokenSource("sk-test", "test"))
	if err := auth.Apply(context.Background(), req); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("expected bearer header, got %q", got)
	}
}

func TestAnonymousAuth_LeavesRequestUntouched(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "http://example.invalid", nil)
	if err := NewAnonymousAuth().Apply(context.Background(), req); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "" {
		t.Fatalf("expected no auth header, got %q", got)
	}
}
