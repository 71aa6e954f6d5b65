package services_test

import (
	"context"
	"testing"

	"pixly/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPath(ctx, "/tmp/shot.png")
	ctx = services.WithRecordID(ctx, 42)
	ctx = services.WithStage(ctx, "extracted")
	ctx = services.WithRequestID(ctx, "req-123")

	if path, ok := services.PathFromContext(ctx); !ok || path != "/tmp/shot.png" {
		t.Fatalf("unexpected path: %v %v", path, ok)
	}
	if id, ok := services.RecordIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected record id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "extracted" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithPath(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.PathFromContext(ctx); ok {
		t.Fatal("expected no path value")
	}
}
