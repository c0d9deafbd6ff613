package slabkit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	l.WithPool("p1").WithClass(32).LogAlloc(ctx, 20, 32, nil)
	assert.Contains(t, buf.String(), "alloc completed")
	assert.Contains(t, buf.String(), "pool=p1")

	buf.Reset()
	l.LogFree(ctx, 8, nil)
	assert.Empty(t, buf.String())

	l.LogFree(ctx, 8, ErrDoubleFree)
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	l.LogSnapshot(ctx, "zstd", 0, errors.New("disk full"))
	assert.Contains(t, buf.String(), "snapshot failed")

	buf.Reset()
	l.LogClose(ctx, 0, nil)
	assert.Contains(t, buf.String(), "pool closed")
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.LogExhausted(context.Background(), 8, 8)
}
