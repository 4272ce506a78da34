package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/passage-org/passage-complete/internal/ranking"
	"github.com/passage-org/passage-complete/pkg/core"
)

const rawResults = `{
  "head": {"vars": ["SUGGEST", "probabilityOfRetrievingRestOfMapping"]},
  "results": {"bindings": [
    {"SUGGEST": {"type": "uri", "value": "http://ex.org/alice"},
     "probabilityOfRetrievingRestOfMapping": {"type": "literal", "value": "0.5"}},
    {"SUGGEST": {"type": "uri", "value": "http://ex.org/bob"},
     "probabilityOfRetrievingRestOfMapping": {"type": "literal", "value": "1"}}
  ]}
}`

// setupCLI isolates the user config and returns a config file pointing at
// a stub raw endpoint.
func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/raw" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, rawResults)
	}))
	t.Cleanup(raw.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := fmt.Sprintf("endpoint:\n  url: %s/sparql\nnamespaces:\n  ex: http://ex.org/\n", raw.URL)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(strings.NewReader(stdin))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCompleteCommand(t *testing.T) {
	cfg := setupCLI(t)

	out, err := execute(t, "SELECT * WHERE { ?s ex:knows ", "complete", "--config-file", cfg, "-o", "json")
	require.NoError(t, err)

	var list []ranking.Suggestion
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "ex:alice", list[0].Value)
	assert.Equal(t, 1.0, list[0].Score)
	assert.Equal(t, "ex:bob", list[1].Value)
}

func TestCompleteCommandFromFileWithCursor(t *testing.T) {
	cfg := setupCLI(t)
	query := filepath.Join(t.TempDir(), "query.rq")
	require.NoError(t, os.WriteFile(query, []byte("SELECT * WHERE {\n  ?s ex:knows ex:b\n}\n"), 0o600))

	out, err := execute(t, "", "complete", query, "--config-file", cfg, "--line", "1", "--col", "18", "-o", "yaml")
	require.NoError(t, err)

	var list []ranking.Suggestion
	require.NoError(t, yaml.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ex:bob", list[0].Value)
}

func TestCompleteCommandWindowAndFilter(t *testing.T) {
	cfg := setupCLI(t)

	out, err := execute(t, "SELECT * WHERE { ?s ex:knows ", "complete", "--config-file", cfg,
		"--tail", "1", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "ex:bob")
	assert.NotContains(t, out, "ex:alice")

	out, err = execute(t, "SELECT * WHERE { ?s ex:knows ", "complete", "--config-file", cfg,
		"--filter", "s.score < 1.0", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "ex:bob")
	assert.NotContains(t, out, "ex:alice")
}

func TestCompleteCommandTable(t *testing.T) {
	cfg := setupCLI(t)

	out, err := execute(t, "SELECT * WHERE { ?s ex:knows ", "complete", "--config-file", cfg, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "VALUE")
	assert.Contains(t, out, "ex:alice")
}

func TestCompleteCommandErrors(t *testing.T) {
	cfg := setupCLI(t)

	tests := []struct {
		name string
		in   string
		args []string
		want string
	}{
		{"limit and tail", "SELECT", []string{"--limit", "1", "--tail", "1"}, "mutually exclusive"},
		{"line past end", "SELECT", []string{"--line", "3"}, "past the last line"},
		{"column past end", "SELECT", []string{"--col", "10"}, "past the end of line"},
		{"bad output", "SELECT", []string{"-o", "csv"}, "csv"},
		{"bad filter", "SELECT * WHERE { ?s ?p ", []string{"--filter", "s.nope +"}, "ranking.filter"},
		{"missing file", "", []string{"does-not-exist.rq"}, "read query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"complete", "--config-file", cfg}, tt.args...)
			_, err := execute(t, tt.in, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompleteCommandPrintsEmptyListOnFailure(t *testing.T) {
	cfg := setupCLI(t)

	out, err := execute(t, "SELECT * WHERE { ?s ?p ?o ", "complete", "--config-file", cfg, "-o", "json")
	require.Error(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestSliceCommand(t *testing.T) {
	cfg := setupCLI(t)

	out, err := execute(t, "SELECT ?x WHERE { ?s ex:knows  . ?s ex:age ?a . ?z ex:other ?y } ORDER BY ?x", "slice",
		"--config-file", cfg, "--line", "0", "--col", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "?s ex:knows ?SUGGEST")
	assert.Contains(t, out, "?s ex:age ?a")
	assert.NotContains(t, out, "ex:other")
	assert.NotContains(t, out, "ORDER BY")

	out, err = execute(t, "SELECT * WHERE { ?s ex:knows ", "slice", "--config-file", cfg, "-o", "json")
	require.NoError(t, err)
	var analysis core.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, "object", analysis.Slot)
	assert.Contains(t, analysis.Reconstructed, "?SUGGEST_LABEL")
}

func TestConfigCommands(t *testing.T) {
	cfg := setupCLI(t)

	out, err := execute(t, "", "config", "get", "--config-file", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "probability_variable: probabilityOfRetrievingRestOfMapping")
	assert.Contains(t, out, "ex: http://ex.org/")

	out, err = execute(t, "", "config", "default")
	require.NoError(t, err)
	assert.Contains(t, out, "# Default configuration.")

	out, err = execute(t, "", "config", "path")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), filepath.Join("passage-complete", "config.yaml")))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "passage-complete "))
	assert.Contains(t, out, "commit unknown")
}

func TestCursorResolve(t *testing.T) {
	text := "SELECT *\nWHERE { ?s ?p \n"
	tests := []struct {
		name         string
		cursor       cursorFlags
		line, column int
	}{
		{"end of query", cursorFlags{-1, -1}, 1, 14},
		{"end of line", cursorFlags{0, -1}, 0, 8},
		{"explicit", cursorFlags{1, 3}, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col, err := tt.cursor.resolve(text)
			require.NoError(t, err)
			assert.Equal(t, tt.line, line)
			assert.Equal(t, tt.column, col)
		})
	}
}
