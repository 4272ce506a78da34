package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		wantOk bool
	}{
		{"with settings", IntoContext(context.Background(), &Run{NoColor: true}), true},
		{"without settings", context.Background(), false},
		{"nil settings", IntoContext(context.Background(), nil), false},
		{"wrong type", context.WithValue(context.Background(), settingsContextKey, "wrong type"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromContext(tt.ctx)
			assert.Equal(t, tt.wantOk, ok)
			if !tt.wantOk {
				assert.Nil(t, got)
			}
		})
	}
}

func TestIntoContextRoundTrip(t *testing.T) {
	run := &Run{Front: FrontLSP, ExitOnError: false, OutputFormat: "json"}
	got, ok := FromContext(IntoContext(context.Background(), run))
	require.True(t, ok)
	assert.Same(t, run, got)
}

func TestFromContextOrDefault(t *testing.T) {
	assert.Equal(t, NewCliParams(), FromContextOrDefault(context.Background()))

	run := NewServerParams(FrontHTTP)
	assert.Same(t, run, FromContextOrDefault(IntoContext(context.Background(), run)))
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))

	ctx := WithRequestID(context.Background(), "6f1c")
	assert.Equal(t, "6f1c", RequestID(ctx))
}
