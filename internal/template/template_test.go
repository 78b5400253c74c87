package template

import (
	"errors"
	"strings"
	"testing"

	"github.com/kwhite/azchat/internal/core"
)

func TestRender_Simple(t *testing.T) {
	got, err := Render("Hello {name}", map[string]string{"name": "World"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello World" {
		t.Errorf("expected %q, got %q", "Hello World", got)
	}
}

func TestRender_MultiplePlaceholders(t *testing.T) {
	got, err := Render("Review this {language} code:\n{code}", map[string]string{
		"language": "Go",
		"code":     "func main() {}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Review this Go code:\nfunc main() {}" {
		t.Errorf("unexpected render: %q", got)
	}
}

func TestRender_RepeatedPlaceholder(t *testing.T) {
	got, err := Render("{x} and {x}", map[string]string{"x": "again"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "again and again" {
		t.Errorf("unexpected render: %q", got)
	}
}

func TestRender_MissingKeys(t *testing.T) {
	_, err := Render("Hello {name}, welcome to {place}", map[string]string{})
	if !errors.Is(err, core.ErrTemplateInvalid) {
		t.Fatalf("expected TEMPLATE_INVALID, got %v", err)
	}
	// Missing keys are listed, sorted, so callers can diagnose.
	if !strings.Contains(err.Error(), "name, place") {
		t.Errorf("expected missing keys in error, got %v", err)
	}
}

func TestRender_ExtraKeysAllowed(t *testing.T) {
	got, err := Render("Hello {name}", map[string]string{"name": "World", "unused": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello World" {
		t.Errorf("unexpected render: %q", got)
	}
}

func TestRender_EscapedBraces(t *testing.T) {
	got, err := Render("JSON like {{\"k\": \"{v}\"}}", map[string]string{"v": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `JSON like {"k": "1"}` {
		t.Errorf("unexpected render: %q", got)
	}
}

func TestRender_UnclosedPlaceholder(t *testing.T) {
	_, err := Render("Hello {name", map[string]string{"name": "x"})
	if !errors.Is(err, core.ErrTemplateInvalid) {
		t.Fatalf("expected TEMPLATE_INVALID, got %v", err)
	}
}

func TestRender_UnmatchedClosingBrace(t *testing.T) {
	_, err := Render("oops } here", nil)
	if !errors.Is(err, core.ErrTemplateInvalid) {
		t.Fatalf("expected TEMPLATE_INVALID, got %v", err)
	}
}

func TestRender_NoPlaceholders(t *testing.T) {
	got, err := Render("plain text", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "plain text" {
		t.Errorf("unexpected render: %q", got)
	}
}

func TestPlaceholders_Order(t *testing.T) {
	names, err := Placeholders("{b} {a} {b}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("expected [b a], got %v", names)
	}
}
