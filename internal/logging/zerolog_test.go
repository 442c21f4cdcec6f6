package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZerologTest(t *testing.T, lvl zerolog.Level) (*ZerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewZerologLogger(zerolog.New(&buf).Level(lvl)), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_FieldsAndLevels(t *testing.T) {
	log, buf := newZerologTest(t, zerolog.DebugLevel)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Warn(ctx, "wrn", "err", errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["message"])
	assert.EqualValues(t, 1, lines[0]["a"])

	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["err"])
}

func TestZerologLogger_LevelFilter(t *testing.T) {
	log, buf := newZerologTest(t, zerolog.WarnLevel)
	log.Info(context.Background(), "hidden")
	log.Error(context.Background(), "shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestZerologLogger_WithAndBadKey(t *testing.T) {
	log, buf := newZerologTest(t, zerolog.InfoLevel)
	log.With("component", "transport").Info(context.Background(), "hello", "dangling")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "transport", lines[0]["component"])
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
}

func TestNew_Formats(t *testing.T) {
	ctx := context.Background()

	var text bytes.Buffer
	New(&text, FormatText, "info").Info(ctx, "hello", "k", "v")
	assert.Contains(t, text.String(), "msg=hello")
	assert.Contains(t, text.String(), "k=v")

	var js bytes.Buffer
	New(&js, FormatJSON, "info").Info(ctx, "hello")
	assert.Contains(t, js.String(), `"msg":"hello"`)

	var zl bytes.Buffer
	New(&zl, FormatZerolog, "debug").Debug(ctx, "hello", "k", "v")
	assert.Contains(t, zl.String(), "hello")
	assert.Contains(t, zl.String(), "k=v")

	var quiet bytes.Buffer
	New(&quiet, FormatText, "error").Warn(ctx, "hidden")
	assert.Empty(t, quiet.String())
}
