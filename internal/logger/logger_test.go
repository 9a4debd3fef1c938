package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestContextWith_Accumulates(t *testing.T) {
	ctx := ContextWith(context.Background(), "user_id", int64(7))
	ctx = ContextWith(ctx, "admin", "root")

	args, _ := ctx.Value(attrsKey{}).([]any)
	assert.Equal(t, []any{"user_id", int64(7), "admin", "root"}, args)
	assert.NotNil(t, WithContext(ctx))
	assert.Same(t, Get(), WithContext(context.Background()))
}
