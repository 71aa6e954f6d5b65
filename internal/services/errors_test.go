package services_test

import (
	"errors"
	"strings"
	"testing"

	"pixly/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "placed", "move", "rename failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"placed", "move", "rename failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsPerItem(t *testing.T) {
	if services.IsPerItem(nil) {
		t.Fatal("nil error should not be per-item")
	}
	perItem := services.Wrap(services.ErrValidation, "received", "stat", "not a file", nil)
	if !services.IsPerItem(perItem) {
		t.Fatal("expected validation error to be per-item")
	}
	fatal := services.Wrap(services.ErrConfiguration, "ai", "init", "missing key", nil)
	if services.IsPerItem(fatal) {
		t.Fatal("expected configuration error to be fatal")
	}
	if services.Hint(fatal) == services.Hint(perItem) {
		t.Fatal("expected distinct hints for distinct markers")
	}
}
