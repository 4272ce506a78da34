package core

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passage-org/passage-complete/internal/cel"
	"github.com/passage-org/passage-complete/internal/config"
	"github.com/passage-org/passage-complete/internal/executor"
	"github.com/passage-org/passage-complete/internal/limiter"
)

func TestEngineUsesInjectedExecutor(t *testing.T) {
	raw := newRawEndpoint(t, http.StatusOK, objectResults)
	cache := executor.NewCache()
	shared := executor.New(executor.WithCache(cache), executor.WithHTTPClient(raw.Client()))

	a, err := New(WithExecutor(shared), WithEndpoint(raw.URL+"/sparql"))
	require.NoError(t, err)
	b, err := New(WithExecutor(shared), WithEndpoint(raw.URL+"/sparql"))
	require.NoError(t, err)

	req := request("SELECT * WHERE { ?s <http://ex.org/knows> | }")
	assert.Len(t, a.Complete(context.Background(), req), 3)
	assert.Len(t, b.Complete(context.Background(), req), 3)

	assert.Same(t, shared, a.Executor())
	assert.Equal(t, 1, cache.Len())
	assert.EqualValues(t, 1, raw.requests.Load())
}

func TestEngineAppliesFilterThenWindow(t *testing.T) {
	raw := newRawEndpoint(t, http.StatusOK, objectResults)
	filter, err := cel.Compile(`s.walks == 1`)
	require.NoError(t, err)

	engine, err := New(
		WithEndpoint(raw.URL+"/sparql"),
		WithFilter(filter),
		WithWindow(limiter.Config{Limit: 1}),
	)
	require.NoError(t, err)

	list := engine.Complete(context.Background(), request("SELECT * WHERE { ?s <http://ex.org/knows> | }"))
	require.Len(t, list, 1)
	assert.Equal(t, "<http://other.org/carol>", list[0].Value)
}

func TestEngineRequestOverridesEndpoint(t *testing.T) {
	raw := newRawEndpoint(t, http.StatusOK, objectResults)
	engine, err := New(WithEndpoint("http://127.0.0.1:1/sparql"))
	require.NoError(t, err)

	req := request("SELECT * WHERE { ?s <http://ex.org/knows> | }")
	req.Endpoint = raw.URL + "/passage"
	list, err := engine.CompleteErr(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestNewRejectsInvalidWindow(t *testing.T) {
	_, err := New(WithWindow(limiter.Config{Limit: 1, Tail: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestNewFromConfig(t *testing.T) {
	raw := newRawEndpoint(t, http.StatusOK, objectResults)
	cfg, err := config.Parse([]byte(`
endpoint:
  url: ` + raw.URL + `/sparql
ranking:
  filter: "s.score >= 0.5"
  limit: 5
namespaces:
  ex: http://ex.org/
`))
	require.NoError(t, err)

	engine, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, raw.URL+"/sparql", engine.Endpoint())

	a, err := engine.Analyze(request("SELECT * WHERE { ?s ex:knows | }"))
	require.NoError(t, err)
	assert.Contains(t, a.Reconstructed, "<http://www.w3.org/2000/01/rdf-schema#label> ?SUGGEST_LABEL")

	list := engine.Complete(context.Background(), request("SELECT * WHERE { ?s ex:knows | }"))
	require.Len(t, list, 1)
	assert.Equal(t, "ex:alice", list[0].Value)

	_, err = NewFromConfig(nil)
	require.Error(t, err)
}
