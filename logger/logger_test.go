package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFallsBackToGlobal(t *testing.T) {
	if L(context.Background()) != zap.L() {
		t.Fatal("expected the global logger")
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := NewContext(context.Background(), zap.New(core))
	ctx = With(ctx, zap.String("role", "arrow"))

	L(ctx).Info("converted")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected(1) != actual(%d)", len(entries))
	}
	if got := entries[0].ContextMap()["role"]; got != "arrow" {
		t.Fatalf("expected(arrow) != actual(%v)", got)
	}
}
