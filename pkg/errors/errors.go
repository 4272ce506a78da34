// Package errors re-exports github.com/cockroachdb/errors and defines the
// error kinds raised by the completion pipeline.
//
// Stages wrap their local failures with a stage-named message so callers
// only need to branch on success or failure, while errors.Is still reaches
// the kind for diagnostics:
//
//	if err := locate(); err != nil {
//	    return errors.Wrap(err, "could not locate the incomplete triple")
//	}
//	...
//	if errors.Is(err, errors.ErrNotATriple) { ... }
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error kinds of the completion pipeline.
var (
	// ErrNotATriple means the cursor does not sit inside a single triple
	// pattern: the scan met an unrecognized token or found more than three
	// terms.
	ErrNotATriple = New("not a triple")

	// ErrTripleAlreadyComplete means three terms were found around the cursor
	// but none of them contains it.
	ErrTripleAlreadyComplete = New("triple already complete")

	// ErrQueryGenerationFailed covers synthesis and reconstruction failures,
	// including a query that still does not parse after brace balancing.
	ErrQueryGenerationFailed = New("query generation failed")

	// ErrContextSliceUnsupported flags an algebra node the slicer does not
	// handle. Callers log it as a missing feature rather than bad input.
	ErrContextSliceUnsupported = New("context slicing not implemented for node")

	// ErrFetchFailed wraps transport errors and non-success HTTP statuses.
	ErrFetchFailed = New("fetch failed")

	// ErrCacheInconsistent should not occur; it guards the cache against
	// unexpected values coming out of coalesced fetches.
	ErrCacheInconsistent = New("cache inconsistent")
)

// Kind returns the name of the pipeline error kind carried by err, or
// "unknown" when err carries none of them.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrNotATriple):
		return "NotATriple"
	case Is(err, ErrTripleAlreadyComplete):
		return "TripleAlreadyComplete"
	case Is(err, ErrQueryGenerationFailed):
		return "QueryGenerationFailed"
	case Is(err, ErrContextSliceUnsupported):
		return "ContextSliceUnsupported"
	case Is(err, ErrFetchFailed):
		return "FetchFailed"
	case Is(err, ErrCacheInconsistent):
		return "CacheInconsistent"
	default:
		return "unknown"
	}
}
