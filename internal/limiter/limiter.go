// Package limiter windows the ranked suggestion list.
package limiter

import (
	"github.com/passage-org/passage-complete/pkg/errors"
)

// Config holds the windowing parameters.
type Config struct {
	Limit  int `yaml:"limit" json:"limit" validate:"gte=0"`   // keep at most this many (0 = unlimited)
	Offset int `yaml:"offset" json:"offset" validate:"gte=0"` // skip the first N (0 = no skip)
	Tail   int `yaml:"tail" json:"tail" validate:"gte=0"`     // keep only the last N (0 = disabled); excludes Limit
}

// Validate checks for conflicting or negative values. Offset is ignored
// when Tail is set.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return errors.Newf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return errors.Newf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return errors.Newf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return errors.New("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any windowing is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Window returns the bounds [start, end) of the window over length items.
func (c Config) Window(length int) (start, end int) {
	if c.Tail > 0 {
		return max(length-c.Tail, 0), length
	}
	start = min(max(c.Offset, 0), length)
	end = length
	if c.Limit > 0 {
		end = min(start+c.Limit, length)
	}
	return start, end
}

// Apply returns the windowed sub-slice of list. It shares list's backing
// array.
func Apply[T any](c Config, list []T) []T {
	if !c.IsActive() {
		return list
	}
	start, end := c.Window(len(list))
	return list[start:end]
}
