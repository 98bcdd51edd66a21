package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := New("debug")
	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatal("expected the attached logger back")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatal("expected nil for a bare context")
	}
}

func TestNewLevels(t *testing.T) {
	t.Parallel()

	if !New("debug").Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled")
	}
	if New("error").Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info disabled at error level")
	}
	if !New("nonsense").Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected the info fallback")
	}
}
