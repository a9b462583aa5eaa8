package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGatewayLogger(t *testing.T, debug bool) (logger.Interface, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := &config.Config{Gateway: &config.GatewayConfig{SlowQuery: 50 * time.Millisecond}}
	cfg.Env.Debug = debug

	return newGatewayLogger(base, cfg), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}

	return lines
}

func sqlAndRows() (string, int64) {
	return `SELECT * FROM "listings" WHERE is_active = true`, 3
}

func TestGatewayLogger_Trace(t *testing.T) {
	ctx := deliverycontext.WithRequestID(context.Background(), "req-1")

	tests := []struct {
		name    string
		debug   bool
		elapsed time.Duration
		err     error
		want    string
		level   string
	}{
		{name: "Failure", err: errors.New("connection reset"), want: "Gateway query failed", level: "ERROR"},
		{name: "Record not found is quiet", err: gorm.ErrRecordNotFound},
		{name: "Slow query", elapsed: 80 * time.Millisecond, want: "Gateway query slow", level: "WARN"},
		{name: "Fast query is quiet", elapsed: time.Millisecond},
		{name: "Fast query traced in debug", debug: true, elapsed: time.Millisecond, want: "Gateway query", level: "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, buf := newTestGatewayLogger(t, tt.debug)

			gl.Trace(ctx, time.Now().Add(-tt.elapsed), sqlAndRows, tt.err)

			lines := decodeLines(t, buf)
			if tt.want == "" {
				assert.Empty(t, lines)

				return
			}
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0]["msg"])
			assert.Equal(t, tt.level, lines[0]["level"])
			assert.Equal(t, "req-1", lines[0]["request_id"])
			assert.EqualValues(t, 3, lines[0]["rows"])
		})
	}
}

func TestGatewayLogger_Silent(t *testing.T) {
	gl, buf := newTestGatewayLogger(t, true)

	gl.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sqlAndRows, errors.New("boom"))
	gl.Warn(context.Background(), "pool %s", "exhausted")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "pool exhausted", lines[0]["message"])
}
