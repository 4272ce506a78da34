package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/token"
)

func TestLocateIncompleteTriple(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		entities   []string
		inherited  int
		terminator string
		free       []string
	}{
		{
			name:     "cursor right after the subject",
			text:     "SELECT * WHERE { ?s| <http://ex.org/p> ?o }",
			entities: []string{"?s", "<http://ex.org/p>", "?o"},
			free:     []string{"s", "o"},
		},
		{
			name:       "terminated by a period",
			text:       "SELECT * WHERE { ?s ?p | . ?a ?b ?c }",
			entities:   []string{"?s", "?p"},
			terminator: ".",
			free:       []string{"s", "p"},
		},
		{
			name:     "never crosses a brace",
			text:     "SELECT * WHERE { ?s ?p ?o . OPTIONAL { ?o ex:q |} }",
			entities: []string{"?o", "ex:q"},
			free:     []string{"o"},
		},
		{
			name:     "empty group",
			text:     "SELECT * WHERE { | }",
			entities: []string{},
		},
		{
			name:     "spans lines",
			text:     "SELECT * WHERE {\n  ?s\n    ex:p |\n}",
			entities: []string{"?s", "ex:p"},
			free:     []string{"s"},
		},
		{
			name:      "after a semicolon",
			text:      "SELECT * WHERE { ?s ex:p ?o ; ex:q | }",
			entities:  []string{"?s", "ex:q"},
			inherited: 1,
			free:      []string{"s"},
		},
		{
			name:      "after a comma",
			text:      "SELECT * WHERE { ?s ex:p ?o , | }",
			entities:  []string{"?s", "ex:p"},
			inherited: 2,
			free:      []string{"s"},
		},
		{
			name:      "after chained semicolons",
			text:      "SELECT * WHERE { ?s ex:p ?o ; ex:q ?x ; | }",
			entities:  []string{"?s"},
			inherited: 1,
			free:      []string{"s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, cursor, _ := cursorAt(t, tt.text)
			triple, err := LocateIncompleteTriple(tokens, cursor)
			require.NoError(t, err)

			assert.Equal(t, tt.entities, texts(triple.Entities))
			assert.Equal(t, tt.inherited, triple.Inherited)
			assert.Equal(t, tt.terminator, triple.Terminator)
			assert.Equal(t, tt.free, triple.FreeVariables)
			assert.LessOrEqual(t, triple.Start, cursor)
			assert.Greater(t, triple.End, cursor)
			assert.Len(t, triple.Own(), len(tt.entities)-tt.inherited)
		})
	}
}

func TestLocateIncompleteTripleRangeIsTight(t *testing.T) {
	tokens, cursor, _ := cursorAt(t, "SELECT * WHERE { ?s| <http://ex.org/p> ?o }")
	triple, err := LocateIncompleteTriple(tokens, cursor)
	require.NoError(t, err)

	assert.Equal(t, "?s", tokens[triple.Start].Text)
	assert.Equal(t, "?o", tokens[triple.End-1].Text)
}

func TestLocateIncompleteTripleFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"cursor on a keyword", "SEL|ECT * WHERE { ?s ?p ?o }"},
		{"cursor on a brace", "SELECT * WHERE {| ?s ?p ?o }"},
		{"more than three terms", "SELECT * WHERE { ?a ?b ?c ?d| }"},
		{"orphan language tag", "SELECT * WHERE { ?a @en| }"},
		{"comma after an incomplete pattern", "SELECT * WHERE { ?s ex:p , | }"},
		{"cursor in a comment", "SELECT * WHERE { # note| \n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, cursor, _ := cursorAt(t, tt.text)
			_, err := LocateIncompleteTriple(tokens, cursor)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrNotATriple), "got %v", err)
		})
	}
}

func TestLocateIncompleteTripleBadIndex(t *testing.T) {
	_, err := LocateIncompleteTriple([]token.Token{}, 0)
	assert.True(t, errors.Is(err, errors.ErrNotATriple))
}
