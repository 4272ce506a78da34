// Package completion turns an edited query and a cursor position into a
// parsed query whose edited triple has the suggestion variable in the
// position being completed.
package completion

import (
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/token"
)

// Request is one completion request as the editor sees it.
type Request struct {
	// Lines holds the editor tokens per line. When nil, Text is tokenized.
	Lines [][]token.Token
	Text  string
	// Line and Column locate the cursor, zero based. Column is a byte
	// offset within the line.
	Line       int
	Column     int
	Namespaces map[string]string
}

// Result carries every intermediate product of the analysis.
type Result struct {
	Tokens        []token.Token
	CursorIndex   int
	Triple        *IncompleteTriple
	Synthesized   Synthesized
	Reconstructed *Reconstructed
}

// Engine runs the text stages of a completion request.
type Engine struct {
	labelPredicate string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLabelPredicate sets the predicate used for the label lookup. An empty
// predicate disables it.
func WithLabelPredicate(iri string) Option {
	return func(e *Engine) {
		e.labelPredicate = iri
	}
}

// NewEngine creates a new completion engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze locates the edited triple, synthesizes its replacement and parses
// the reconstructed query.
func (e *Engine) Analyze(req Request) (*Result, error) {
	lines := req.Lines
	if lines == nil {
		lines = token.Tokenize(req.Text)
	}
	tokens, cursor := token.MarkCursor(token.Flatten(lines), req.Line, req.Column)

	triple, err := LocateIncompleteTriple(tokens, cursor)
	if err != nil {
		return nil, errors.Wrap(err, "could not locate the incomplete triple")
	}

	synth, err := SynthesizeTriple(triple.Entities, Position{Line: req.Line, Column: req.Column})
	if err != nil {
		return nil, errors.Wrap(err, "could not generate the autocompletion triple")
	}

	rec, err := Reconstruct(tokens, triple, synth, ReconstructOptions{
		Namespaces:     req.Namespaces,
		LabelPredicate: e.labelPredicate,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not generate the autocompletion triple")
	}

	return &Result{
		Tokens:        tokens,
		CursorIndex:   cursor,
		Triple:        triple,
		Synthesized:   synth,
		Reconstructed: rec,
	}, nil
}
