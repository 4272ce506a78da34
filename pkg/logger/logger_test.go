package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passage-org/passage-complete/pkg/settings"
)

const infoLevel int8 = 0

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestGetReturnsSameInstance(t *testing.T) {
	first := Get(infoLevel)
	require.NotNil(t, first)
	assert.Same(t, first, Get(infoLevel))
}

func TestGetReturnsNoopLoggerIfGlobalLoggerNil(t *testing.T) {
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, Get(infoLevel))
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(infoLevel, &buf)

	lgr.Info("slice ready", StageKey, "slice")
	lgr.V(1).Info("hidden at info level")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "slice ready", entries[0][MessageKey])
	assert.Equal(t, "slice", entries[0][StageKey])
	assert.Contains(t, entries[0], VersionKey)
	assert.Contains(t, entries[0], TimeStampKey)
}

func TestNewHonoursVerbosity(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(-1, &buf)
	lgr.V(1).Info("fetch", EndpointKey, "http://example.org/raw")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "http://example.org/raw", entries[0][EndpointKey])
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	lgr := Get(infoLevel)

	withLogger := WithLogger(ctx, lgr)
	assert.Same(t, lgr, withLogger.Value(loggerContextKey{}))
	assert.Equal(t, withLogger, WithLogger(withLogger, lgr), "same logger keeps the context")

	other := logr.Discard()
	replaced := WithLogger(withLogger, &other)
	assert.Same(t, &other, replaced.Value(loggerContextKey{}))
}

func TestFromContext(t *testing.T) {
	lgr := Get(infoLevel)
	assert.Same(t, lgr, FromContext(WithLogger(context.Background(), lgr)))
	assert.Same(t, lgr, FromContext(context.Background()), "falls back to the global logger")

	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()
	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
}

func TestForRequest(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(infoLevel, &buf))

	ctx, lgr := ForRequest(ctx, "req-42")
	lgr.Info("done")
	FromContext(ctx).Info("again")

	assert.Equal(t, "req-42", settings.RequestID(ctx))
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "req-42", e[RequestIDKey])
	}
}

func TestSyncWithoutGlobalLogger(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()

	assert.NotPanics(t, Sync)
}

func TestGetGlobalLogger(t *testing.T) {
	orig := globalLogrLogger
	defer func() { globalLogrLogger = orig }()

	mock := logr.Discard()
	globalLogrLogger = &mock
	assert.Same(t, &mock, GetGlobalLogger())

	globalLogrLogger = nil
	assert.Same(t, &defaultNoopLogger, GetGlobalLogger())
}

func TestGetNoopLogger(t *testing.T) {
	lgr := GetNoopLogger()
	assert.Same(t, &defaultNoopLogger, lgr)
	assert.NotPanics(t, func() { lgr.Info("nothing") })
}

func TestWithValues(t *testing.T) {
	lgr := Get(infoLevel)
	assert.NotSame(t, lgr, WithValues(lgr, "key", "value"))
	assert.NotSame(t, lgr, WithValues(lgr))

	var nilLogger *logr.Logger
	assert.Panics(t, func() { _ = WithValues(nilLogger, "key", "value") })
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(errString("sync /dev/stderr: The handle is invalid.")))
	assert.False(t, isIgnorableSyncError(errString("disk full")))
}

type errString string

func (e errString) Error() string { return string(e) }
