// Package executor sends autocompletion queries to the raw endpoint and
// caches the returned bindings per query for the editing session.
package executor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/logger"
)

const (
	// DefaultBudgetHeader carries the execution budget in milliseconds.
	DefaultBudgetHeader = "timeout"

	contentTypeForm    = "application/x-www-form-urlencoded"
	contentTypeResults = "application/sparql-results+json"

	// maxErrorBody bounds how much of a failed response ends up in errors.
	maxErrorBody = 512
)

// Executor fetches bindings for autocompletion queries. It is safe for
// concurrent use; identical concurrent fetches share one round trip.
type Executor struct {
	client       *http.Client
	cache        *Cache
	headers      map[string]string
	budgetHeader string
	budget       time.Duration
	limiter      *rate.Limiter
	group        singleflight.Group
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient sets the client used for fetches. The client owns the
// transport timeouts.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithCache shares an existing session cache.
func WithCache(c *Cache) Option {
	return func(e *Executor) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithHeaders adds static headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(e *Executor) {
		for k, v := range h {
			e.headers[k] = v
		}
	}
}

// WithBudget asks the endpoint to stop sampling after d. The budget is sent
// in milliseconds in header, or DefaultBudgetHeader when header is empty.
func WithBudget(header string, d time.Duration) Option {
	return func(e *Executor) {
		if header == "" {
			header = DefaultBudgetHeader
		}
		e.budgetHeader = header
		e.budget = d
	}
}

// WithRateLimit caps outgoing requests per second. A non-positive rps
// disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *Executor) {
		if rps <= 0 {
			e.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns an executor with its own cache unless WithCache is given.
func New(opts ...Option) *Executor {
	e := &Executor{
		client:  http.DefaultClient,
		cache:   NewCache(),
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the session cache.
func (e *Executor) Cache() *Cache {
	return e.cache
}

// Fetch returns the bindings for query. The cache answers when it holds an
// entry computed for the same filter prefix; otherwise the endpoint is
// queried and its bindings are appended to whatever the entry already held.
func (e *Executor) Fetch(ctx context.Context, endpoint, query, filterPrefix string) ([]Binding, error) {
	lgr := logger.FromContext(ctx)
	if bindings, ok := e.cache.lookup(query, filterPrefix); ok {
		cacheLookupsTotal.WithLabelValues(resultHit).Inc()
		lgr.V(1).Info("cache hit", "bindings", len(bindings))
		return bindings, nil
	}

	key := filterPrefix + "\x00" + query
	v, err, shared := e.group.Do(key, func() (any, error) {
		// A fetch for this key may have completed since the lookup above.
		if bindings, ok := e.cache.lookup(query, filterPrefix); ok {
			cacheLookupsTotal.WithLabelValues(resultHit).Inc()
			return bindings, nil
		}
		fetched, err := e.post(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}
		bindings, extended := e.cache.merge(query, filterPrefix, fetched)
		if extended {
			cacheLookupsTotal.WithLabelValues(resultExtend).Inc()
		} else {
			cacheLookupsTotal.WithLabelValues(resultMiss).Inc()
		}
		return bindings, nil
	})
	if err != nil {
		return nil, err
	}
	bindings, ok := v.([]Binding)
	if !ok {
		return nil, errors.Wrapf(errors.ErrCacheInconsistent, "coalesced fetch returned %T", v)
	}
	if shared {
		lgr.V(1).Info("fetch shared with a concurrent request")
	}
	return bindings, nil
}

func (e *Executor) post(ctx context.Context, endpoint, query string) ([]Binding, error) {
	lgr := logger.FromContext(ctx)
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			fetchFailuresTotal.WithLabelValues(reasonRateLimit).Inc()
			return nil, errors.Mark(errors.Wrap(err, "rate limiter"), errors.ErrFetchFailed)
		}
	}

	raw, err := RawEndpoint(endpoint)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrFetchFailed)
	}
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, raw, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "build request"), errors.ErrFetchFailed)
	}
	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("Accept", contentTypeResults)
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}
	if e.budget > 0 {
		req.Header.Set(e.budgetHeader, strconv.FormatInt(e.budget.Milliseconds(), 10))
	}

	lgr.V(1).Info("fetching", logger.EndpointKey, raw)
	start := time.Now()
	resp, err := e.client.Do(req)
	fetchDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		fetchFailuresTotal.WithLabelValues(reasonTransport).Inc()
		return nil, errors.Mark(errors.Wrapf(err, "POST %s", raw), errors.ErrFetchFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fetchFailuresTotal.WithLabelValues(reasonStatus).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.WithDetail(
			errors.Wrapf(errors.ErrFetchFailed, "POST %s: %s", raw, resp.Status),
			strings.TrimSpace(string(body)))
	}

	var doc response
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		fetchFailuresTotal.WithLabelValues(reasonDecode).Inc()
		return nil, errors.Mark(errors.Wrap(err, "decode results"), errors.ErrFetchFailed)
	}
	bindingsFetchedTotal.Add(float64(len(doc.Results.Bindings)))
	lgr.V(1).Info("fetched", "bindings", len(doc.Results.Bindings), "elapsed", time.Since(start).String())
	return doc.Results.Bindings, nil
}
