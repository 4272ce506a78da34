package completion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/token"
)

// cursorAt removes the '|' marker from text and returns the marked tokens,
// the cursor token index and the cursor position.
func cursorAt(t *testing.T, text string) ([]token.Token, int, Position) {
	t.Helper()
	idx := strings.Index(text, "|")
	require.GreaterOrEqual(t, idx, 0, "missing cursor marker in %q", text)
	before := text[:idx]
	pos := Position{Line: strings.Count(before, "\n"), Column: idx - (strings.LastIndex(before, "\n") + 1)}
	tokens := token.Flatten(token.Tokenize(before + text[idx+1:]))
	tokens, cursor := token.MarkCursor(tokens, pos.Line, pos.Column)
	return tokens, cursor, pos
}

func texts(entities []Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Text()
	}
	return out
}

func TestGroupEntities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"bare terms", "?s| <http://ex.org/p> ?o", []string{"?s", "<http://ex.org/p>", "?o"}},
		{"language tag", `?s ex:p "chat"@fr|`, []string{"?s", "ex:p", `"chat"@fr`}},
		{"datatype", `?s ex:p "1"^^xsd:int|`, []string{"?s", "ex:p", `"1"^^xsd:int`}},
		{"plain literal and number", `"a" 12|`, []string{`"a"`, "12"}},
		{"blank nodes and shorthand", "_:b a| :C", []string{"_:b", "a", ":C"}},
		{"partial prefixed name", "?s fo|", []string{"?s", "fo"}},
		{"unterminated iri", "?s <http://ex.org/pa|", []string{"?s", "<http://ex.org/pa"}},
		{"stops at terminator", "?s ?p ?o| . ?x ?y", []string{"?s", "?p", "?o"}},
		{"stops at closing brace", "?s ?p| } ?x", []string{"?s", "?p"}},
		{"cursor in blank space", "?s | ?o", []string{"?s", "?o"}},
		{"empty", "|", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _, _ := cursorAt(t, tt.text)
			got, err := GroupEntities(token.StripWhitespace(tokens))
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(got))
		})
	}
}

func TestGroupEntitiesUnterminatedIRICarriesCursor(t *testing.T) {
	tokens, _, _ := cursorAt(t, "?s <http://ex.org/pa|")
	got, err := GroupEntities(token.StripWhitespace(tokens))
	require.NoError(t, err)
	require.Len(t, got, 2)

	iri := got[1]
	require.Len(t, iri, 1)
	assert.True(t, iri.HasCursor())
	assert.Equal(t, Position{Line: 0, Column: 3}, iri.Begin())
	assert.Equal(t, Position{Line: 0, Column: 20}, iri.Finish())
}

func TestGroupEntitiesAborts(t *testing.T) {
	for _, text := range []string{"?s| FILTER", "?s| ( ?o", "?s| = ?o"} {
		t.Run(text, func(t *testing.T) {
			tokens, _, _ := cursorAt(t, text)
			got, err := GroupEntities(token.StripWhitespace(tokens))
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, errors.ErrNotATriple))
		})
	}
}

// Entities come out ordered, never overlap, and cover every non-blank token
// up to the terminator.
func TestGroupEntitiesCoverTheInput(t *testing.T) {
	inputs := []string{
		`?s| ex:p "v"@en-GB`,
		`<http://a> <http://b>| "1"^^<http://www.w3.org/2001/XMLSchema#int>`,
		"_:x| a 3.5e2",
		`"x"|`,
	}
	for _, text := range inputs {
		t.Run(text, func(t *testing.T) {
			tokens, _, _ := cursorAt(t, text)
			stripped := token.StripWhitespace(tokens)
			got, err := GroupEntities(stripped)
			require.NoError(t, err)

			var flat []token.Token
			for i, e := range got {
				require.NotEmpty(t, e)
				if i > 0 {
					assert.False(t, e.Begin().Before(got[i-1].Finish()), "entity %d overlaps its predecessor", i)
				}
				flat = append(flat, e...)
			}
			var want []token.Token
			for _, tok := range stripped {
				if tok.Kind != token.Whitespace {
					want = append(want, tok)
				}
			}
			assert.Equal(t, want, flat)
		})
	}
}
