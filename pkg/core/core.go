// Package core wires the completion stages into one pipeline: analyze the
// edited query, fetch weighted samples from the raw endpoint, rank them and
// trim the list for display. The CLI, the LSP and the HTTP API all go
// through Engine.
package core

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/passage-org/passage-complete/internal/cel"
	"github.com/passage-org/passage-complete/internal/completion"
	"github.com/passage-org/passage-complete/internal/config"
	"github.com/passage-org/passage-complete/internal/executor"
	"github.com/passage-org/passage-complete/internal/limiter"
	"github.com/passage-org/passage-complete/internal/ranking"
	"github.com/passage-org/passage-complete/internal/slicer"
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/logger"
	"github.com/passage-org/passage-complete/pkg/settings"
	"github.com/passage-org/passage-complete/pkg/token"
)

// Stage names used in log lines.
const (
	StageLocate   = "locate"
	StageGenerate = "generate"
	StageSlice    = "slice"
	StageFetch    = "fetch"
	StageFilter   = "filter"
)

// Request is one completion request.
type Request struct {
	// Lines holds editor tokens per line. When nil, Text is tokenized.
	Lines [][]token.Token
	Text  string
	// Line and Column locate the cursor, zero based.
	Line   int
	Column int
	// Namespaces are added to the engine's aliases, overriding on conflict.
	Namespaces map[string]string
	// Language overrides the engine's UI language when set.
	Language string
	// Endpoint overrides the engine's endpoint when set.
	Endpoint string
	// RequestID is generated when empty.
	RequestID string
}

// Analysis is the outcome of the network-free stages.
type Analysis struct {
	RequestID    string `json:"requestId" yaml:"requestId" toml:"requestId"`
	Slot         string `json:"slot" yaml:"slot" toml:"slot"`
	FilterPrefix string `json:"filterPrefix" yaml:"filterPrefix" toml:"filterPrefix"`
	// Reconstructed is the edited query with the synthesized triple spliced in.
	Reconstructed string `json:"reconstructed" yaml:"reconstructed" toml:"reconstructed"`
	// Query is the sliced autocompletion query sent to the endpoint.
	Query     string   `json:"query" yaml:"query" toml:"query"`
	Variables []string `json:"variables" yaml:"variables" toml:"variables"`

	Completion *completion.Result `json:"-" yaml:"-" toml:"-"`
	Slice      *slicer.Result     `json:"-" yaml:"-" toml:"-"`
}

// Engine runs completion requests. It owns one session cache and is safe
// for concurrent use.
type Engine struct {
	completion     *completion.Engine
	executor       *executor.Executor
	endpoint       string
	labelPredicate string
	namespaces     map[string]string
	ranking        ranking.Options
	filter         *cel.Filter
	window         limiter.Config
}

// Option configures the Engine.
type Option func(*Engine)

// WithExecutor sets the executor, and with it the session cache.
func WithExecutor(x *executor.Executor) Option {
	return func(e *Engine) {
		e.executor = x
	}
}

// WithEndpoint sets the default endpoint. Its raw variant is derived per
// request.
func WithEndpoint(url string) Option {
	return func(e *Engine) {
		e.endpoint = url
	}
}

// WithLabelPredicate sets the predicate joined to fetch labels. An empty
// predicate disables labels.
func WithLabelPredicate(iri string) Option {
	return func(e *Engine) {
		e.labelPredicate = iri
	}
}

// WithNamespaces sets the default namespace aliases.
func WithNamespaces(ns map[string]string) Option {
	return func(e *Engine) {
		e.namespaces = ns
	}
}

// WithRankingOptions sets the variable names and language used to rank.
// Namespaces are taken from the request and the engine, not from opts.
func WithRankingOptions(opts ranking.Options) Option {
	return func(e *Engine) {
		e.ranking = opts
	}
}

// WithLanguage sets the default UI language.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.ranking.Language = lang
	}
}

// WithFilter sets the post-filter applied to ranked suggestions.
func WithFilter(f *cel.Filter) Option {
	return func(e *Engine) {
		e.filter = f
	}
}

// WithWindow sets the window applied last.
func WithWindow(w limiter.Config) Option {
	return func(e *Engine) {
		e.window = w
	}
}

// New creates an Engine with defaults.
func New(opts ...Option) (*Engine, error) {
	engine := &Engine{
		ranking: ranking.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	if err := engine.window.Validate(); err != nil {
		return nil, err
	}
	if engine.executor == nil {
		engine.executor = executor.New()
	}
	engine.ranking.SuggestVariable = completion.SuggestVariable
	engine.ranking.LabelVariable = completion.LabelVariable
	engine.completion = completion.NewEngine(completion.WithLabelPredicate(engine.labelPredicate))
	return engine, nil
}

// NewFromConfig creates an Engine from the merged configuration. opts are
// applied after it, so flags can override file values.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	xopts := []executor.Option{
		executor.WithHTTPClient(&http.Client{Timeout: cfg.Endpoint.Timeout}),
		executor.WithHeaders(cfg.Endpoint.Headers),
		executor.WithBudget(cfg.Endpoint.BudgetHeader, cfg.Endpoint.Budget),
		executor.WithRateLimit(cfg.Endpoint.Rate, cfg.Endpoint.Burst),
	}
	var filter *cel.Filter
	if cfg.Ranking.Filter != "" {
		f, err := cel.Compile(cfg.Ranking.Filter)
		if err != nil {
			return nil, err
		}
		filter = f
	}
	rank := ranking.DefaultOptions()
	rank.ProbabilityVariable = cfg.Vocabulary.ProbabilityVariable
	rank.ProvenanceVariables = cfg.Vocabulary.ProvenanceVariables
	rank.Language = cfg.Ranking.Language

	base := []Option{
		WithExecutor(executor.New(xopts...)),
		WithEndpoint(cfg.Endpoint.URL),
		WithLabelPredicate(cfg.Vocabulary.LabelPredicate),
		WithNamespaces(cfg.Namespaces),
		WithRankingOptions(rank),
		WithFilter(filter),
		WithWindow(limiter.Config{Limit: cfg.Ranking.Limit}),
	}
	return New(append(base, opts...)...)
}

// Executor returns the executor holding the session cache.
func (e *Engine) Executor() *executor.Executor {
	return e.executor
}

// Endpoint returns the default endpoint.
func (e *Engine) Endpoint() string {
	return e.endpoint
}

// Analyze runs the stages up to the context slice. It never touches the
// network.
func (e *Engine) Analyze(req Request) (*Analysis, error) {
	a, _, err := e.analyze(e.withRequestID(req))
	return a, err
}

// Complete runs the whole pipeline. Failures are logged with their stage
// and cause and yield an empty list.
func (e *Engine) Complete(ctx context.Context, req Request) []ranking.Suggestion {
	req = e.withRequestID(req)
	ctx, lgr := logger.ForRequest(ctx, req.RequestID)
	list, stage, err := e.run(ctx, req)
	if err != nil {
		lgr.Error(err, "completion failed", logger.StageKey, stage, logger.CauseKey, errors.Kind(err))
		return []ranking.Suggestion{}
	}
	return list
}

// CompleteErr is Complete for callers that want the error.
func (e *Engine) CompleteErr(ctx context.Context, req Request) ([]ranking.Suggestion, error) {
	req = e.withRequestID(req)
	ctx, _ = logger.ForRequest(ctx, req.RequestID)
	list, _, err := e.run(ctx, req)
	return list, err
}

func (e *Engine) run(ctx context.Context, req Request) ([]ranking.Suggestion, string, error) {
	lgr := logger.FromContext(ctx)
	if timeout := settings.FromContextOrDefault(ctx).RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a, stage, err := e.analyze(req)
	if err != nil {
		return nil, stage, err
	}
	lgr.V(1).Info("analyzed request", "slot", a.Slot, "filterPrefix", a.FilterPrefix, "query", a.Query)

	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = e.endpoint
	}
	raw, err := executor.RawEndpoint(endpoint)
	if err != nil {
		return nil, StageFetch, errors.Wrap(errors.Mark(err, errors.ErrFetchFailed), "could not fetch suggestions")
	}
	bindings, err := e.executor.Fetch(ctx, raw, a.Query, a.FilterPrefix)
	if err != nil {
		return nil, StageFetch, errors.Wrap(err, "could not fetch suggestions")
	}
	lgr.V(1).Info("fetched bindings", logger.EndpointKey, raw, "bindings", len(bindings))

	opts := e.ranking
	opts.Namespaces = ranking.NewNamespaces(e.mergeNamespaces(req.Namespaces))
	if req.Language != "" {
		opts.Language = req.Language
	}
	list := ranking.Aggregate(bindings, a.FilterPrefix, opts)

	list, err = e.filter.Apply(list)
	if err != nil {
		return nil, StageFilter, err
	}
	list = limiter.Apply(e.window, list)
	if list == nil {
		list = []ranking.Suggestion{}
	}
	lgr.V(1).Info("ranked suggestions", "suggestions", len(list))
	return list, "", nil
}

func (e *Engine) analyze(req Request) (*Analysis, string, error) {
	res, err := e.completion.Analyze(completion.Request{
		Lines:      req.Lines,
		Text:       req.Text,
		Line:       req.Line,
		Column:     req.Column,
		Namespaces: e.mergeNamespaces(req.Namespaces),
	})
	if err != nil {
		if errors.Is(err, errors.ErrNotATriple) {
			return nil, StageLocate, err
		}
		return nil, StageGenerate, err
	}

	sliced, err := slicer.Slice(res.Reconstructed.Query, slicer.Options{
		SuggestVariable: completion.SuggestVariable,
		LabelVariable:   completion.LabelVariable,
	})
	if err != nil {
		return nil, StageSlice, errors.Wrap(err, "could not slice the query context")
	}

	return &Analysis{
		RequestID:     req.RequestID,
		Slot:          res.Synthesized.Slot.String(),
		FilterPrefix:  res.Synthesized.FilterPrefix,
		Reconstructed: res.Reconstructed.Text,
		Query:         sliced.Text,
		Variables:     sliced.Variables,
		Completion:    res,
		Slice:         sliced,
	}, "", nil
}

func (e *Engine) mergeNamespaces(extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return e.namespaces
	}
	out := make(map[string]string, len(e.namespaces)+len(extra))
	for k, v := range e.namespaces {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (e *Engine) withRequestID(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req
}
