package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromString("debug"))
	assert.Equal(t, slog.LevelInfo, LevelFromString("INFO"))
	assert.Equal(t, slog.LevelWarn, LevelFromString("warning"))
	assert.Equal(t, slog.LevelError, LevelFromString(" error "))
	assert.Equal(t, slog.LevelInfo, LevelFromString(""))
	assert.Equal(t, slog.LevelInfo, LevelFromString("verbose"))
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, slog.Default(), Ctx(context.Background()))

	var buf bytes.Buffer
	l := slog.New(NewConsoleHandler(&buf, slog.LevelDebug))
	ctx := With(context.Background(), l.With("run", "abc"))

	Ctx(ctx).Debug("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "abc")
}
