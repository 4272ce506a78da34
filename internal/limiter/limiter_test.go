package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{name: "valid limit only", cfg: Config{Limit: 10}},
		{name: "valid offset only", cfg: Config{Offset: 5}},
		{name: "valid limit and offset", cfg: Config{Limit: 10, Offset: 5}},
		{name: "valid tail only", cfg: Config{Tail: 10}},
		{name: "tail ignores offset", cfg: Config{Tail: 10, Offset: 5}},
		{name: "limit and tail mutually exclusive", cfg: Config{Limit: 10, Tail: 5}, wantErr: true, errMsg: "mutually exclusive"},
		{name: "negative limit", cfg: Config{Limit: -1}, wantErr: true, errMsg: "--limit must be non-negative"},
		{name: "negative offset", cfg: Config{Offset: -1}, wantErr: true, errMsg: "--offset must be non-negative"},
		{name: "negative tail", cfg: Config{Tail: -3}, wantErr: true, errMsg: "--tail must be non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfigIsActive(t *testing.T) {
	assert.False(t, Config{}.IsActive())
	assert.True(t, Config{Limit: 1}.IsActive())
	assert.True(t, Config{Offset: 1}.IsActive())
	assert.True(t, Config{Tail: 1}.IsActive())
}

func TestApply(t *testing.T) {
	list := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"inactive", Config{}, list},
		{"limit", Config{Limit: 2}, []string{"a", "b"}},
		{"limit beyond length", Config{Limit: 10}, list},
		{"offset", Config{Offset: 3}, []string{"d", "e"}},
		{"offset beyond length", Config{Offset: 9}, []string{}},
		{"offset and limit", Config{Offset: 1, Limit: 2}, []string{"b", "c"}},
		{"tail", Config{Tail: 2}, []string{"d", "e"}},
		{"tail beyond length", Config{Tail: 9}, list},
		{"tail ignores offset", Config{Tail: 1, Offset: 3}, []string{"e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.cfg, list))
		})
	}
}

func TestApplyEmpty(t *testing.T) {
	assert.Empty(t, Apply(Config{Limit: 3, Offset: 1}, []int{}))
	assert.Nil(t, Apply(Config{Limit: 3}, []int(nil)))
}

func TestWindow(t *testing.T) {
	start, end := Config{Offset: 2, Limit: 2}.Window(3)
	assert.Equal(t, 2, start)
	assert.Equal(t, 3, end)
}
