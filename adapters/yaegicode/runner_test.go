package yaegicode

import (
	"context"
	"strings"
	"testing"
)

func TestRunner_RunsMain(t *testing.T) {
	code := `
import "strings"

func Main(in map[string]any) map[string]any {
	s, _ := in["text"].(string)
	return map[string]any{"upper": strings.ToUpper(s)}
}
`
	out, err := New().Run(context.Background(), code, map[string]any{"text": "hello"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out["upper"] != "HELLO" {
		t.Errorf("out = %v", out)
	}
}

func TestRunner_MissingMain(t *testing.T) {
	_, err := New().Run(context.Background(), `func Other() {}`, nil)
	if err == nil || !strings.Contains(err.Error(), "Main") {
		t.Errorf("error = %v, want a missing-Main error", err)
	}
}

func TestRunner_WrongSignature(t *testing.T) {
	_, err := New().Run(context.Background(), `func Main() string { return "x" }`, nil)
	if err == nil || !strings.Contains(err.Error(), "signature") {
		t.Errorf("error = %v, want a signature error", err)
	}
}

func TestRunner_PanicBecomesError(t *testing.T) {
	code := `func Main(in map[string]any) map[string]any { panic("boom") }`
	_, err := New().Run(context.Background(), code, nil)
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("error = %v, want the recovered panic", err)
	}
}

func TestRunner_SyntaxError(t *testing.T) {
	if _, err := New().Run(context.Background(), `func Main(`, nil); err == nil {
		t.Errorf("expected a parse error")
	}
}
