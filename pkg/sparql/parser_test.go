package sparql

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passage-org/passage-complete/pkg/errors"
)

func iri(s string) Term     { return Term{Kind: TermIRI, Text: s} }
func pname(s string) Term   { return Term{Kind: TermPrefixed, Text: s} }
func literal(s string) Term { return Term{Kind: TermLiteral, Text: s} }

func TestParseSimpleSelect(t *testing.T) {
	q, err := Parse("SELECT * WHERE { ?s <http://ex.org/p> ?o }")
	require.NoError(t, err)

	want := &Query{
		Where: []Node{&BGP{Triples: []*Triple{
			{Subject: Var("s"), Predicate: iri("<http://ex.org/p>"), Object: Var("o")},
		}}},
	}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePrologueAndModifiers(t *testing.T) {
	text := `PREFIX ex: <http://ex.org/>
PREFIX : <http://default.org/>
SELECT DISTINCT ?s (COUNT(?o) AS ?n)
FROM <http://g.org/>
WHERE { ?s ex:p ?o . }
GROUP BY ?s
ORDER BY DESC(?n)
LIMIT 10 OFFSET 5`
	q, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []Prefix{{Name: "ex", IRI: "http://ex.org/"}, {Name: "", IRI: "http://default.org/"}}, q.Prefixes)
	assert.True(t, q.Distinct)
	assert.Equal(t, []Projection{{Variable: "s"}, {Variable: "n", Expression: "COUNT(?o)"}}, q.Projection)
	assert.Equal(t, []string{"<http://g.org/>"}, q.From)
	assert.Equal(t, []string{"?s"}, q.GroupBy)
	assert.Equal(t, []string{"DESC(?n)"}, q.OrderBy)
	require.NotNil(t, q.Limit)
	require.NotNil(t, q.Offset)
	assert.Equal(t, 10, *q.Limit)
	assert.Equal(t, 5, *q.Offset)
	assert.True(t, q.Declares("ex:"))
	assert.False(t, q.Declares("foaf"))
	assert.Equal(t, map[string]string{"ex": "http://ex.org/", "": "http://default.org/"}, q.Namespaces())
}

func TestParseShorthandTriples(t *testing.T) {
	q, err := Parse(`SELECT * WHERE { ?s a ex:C ; ex:name "Bob"@en , "Robert"^^xsd:string . ?s ex:age 42 }`)
	require.NoError(t, err)
	require.Len(t, q.Where, 1)

	bgp, ok := q.Where[0].(*BGP)
	require.True(t, ok)
	want := []*Triple{
		{Subject: Var("s"), Predicate: pname("a"), Object: pname("ex:C")},
		{Subject: Var("s"), Predicate: pname("ex:name"), Object: literal(`"Bob"@en`)},
		{Subject: Var("s"), Predicate: pname("ex:name"), Object: literal(`"Robert"^^xsd:string`)},
		{Subject: Var("s"), Predicate: pname("ex:age"), Object: literal("42")},
	}
	if diff := cmp.Diff(want, bgp.Triples); diff != "" {
		t.Errorf("triples mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGraphPatterns(t *testing.T) {
	text := `SELECT * WHERE {
  ?s ex:p ?o .
  OPTIONAL { ?o rdfs:label ?l }
  { ?s ex:q ?x } UNION { ?s ex:r ?x } UNION { ?s ex:t ?x }
  GRAPH ?g { ?x ex:u ?y }
  FILTER(?y > 3 && ?x != ?o)
  FILTER regex(?l, "^a", "i")
  FILTER NOT EXISTS { ?s ex:deleted true }
  BIND(STR(?y) AS ?ys)
  VALUES (?z ?w) { (1 UNDEF) (ex:a "b") }
  VALUES ?v { ex:c }
  MINUS { ?s ex:hidden ?h }
  SERVICE SILENT <http://remote/sparql> { ?s ex:w ?w }
}`
	q, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, q.Where, 12)

	assert.IsType(t, &BGP{}, q.Where[0])
	assert.IsType(t, &Optional{}, q.Where[1])

	union, ok := q.Where[2].(*Union)
	require.True(t, ok)
	assert.Len(t, union.Patterns, 3)
	for _, branch := range union.Patterns {
		assert.IsType(t, &Group{}, branch)
	}

	graph, ok := q.Where[3].(*Graph)
	require.True(t, ok)
	assert.Equal(t, Var("g"), graph.Name)

	f1 := q.Where[4].(*Filter)
	assert.Equal(t, "?y > 3 && ?x != ?o", f1.Expression)
	assert.Equal(t, []string{"y", "x", "o"}, f1.Vars)

	f2 := q.Where[5].(*Filter)
	assert.Equal(t, `regex(?l, "^a", "i")`, f2.Expression)
	assert.Equal(t, []string{"l"}, f2.Vars)

	f3 := q.Where[6].(*Filter)
	assert.Equal(t, "NOT EXISTS { ?s ex:deleted true }", f3.Expression)

	bind := q.Where[7].(*Bind)
	assert.Equal(t, "STR(?y)", bind.Expression)
	assert.Equal(t, "ys", bind.Variable)
	assert.Equal(t, []string{"y", "ys"}, Variables(bind))

	values := q.Where[8].(*Values)
	assert.Equal(t, []string{"z", "w"}, values.Variables)
	assert.Equal(t, [][]string{{"1", "UNDEF"}, {"ex:a", `"b"`}}, values.Rows)

	single := q.Where[9].(*Values)
	assert.Equal(t, []string{"v"}, single.Variables)
	assert.Equal(t, [][]string{{"ex:c"}}, single.Rows)

	assert.IsType(t, &Minus{}, q.Where[10])
	service := q.Where[11].(*Service)
	assert.True(t, service.Silent)
	assert.Equal(t, "<http://remote/sparql>", service.Name.Text)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing closing brace", "SELECT * WHERE { ?s ?p ?o "},
		{"not a select", "ASK { ?s ?p ?o }"},
		{"empty projection", "SELECT WHERE { ?s ?p ?o }"},
		{"sub-query", "SELECT * WHERE { SELECT ?s WHERE { ?s ?p ?o } }"},
		{"literal predicate", `SELECT * WHERE { ?s "p" ?o }`},
		{"partial prefixed name", "SELECT * WHERE { ?s foo ?o }"},
		{"trailing garbage", "SELECT * WHERE { ?s ?p ?o } }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			var syn *SyntaxError
			assert.True(t, errors.As(err, &syn), "expected a SyntaxError, got %v", err)
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse("SELECT *\nWHERE { ?s ?p }")
	require.Error(t, err)

	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, 1, syn.Line)
	assert.Equal(t, 14, syn.Column)
	assert.Contains(t, syn.Error(), "2:15")
}

func TestWalkAndTriples(t *testing.T) {
	q, err := Parse(`SELECT * WHERE { ?a ex:p ?b . OPTIONAL { ?b ex:q ?c } { ?c ex:r ?d } UNION { ?d ex:s ?e } }`)
	require.NoError(t, err)

	var objects []string
	for _, tr := range Triples(q) {
		objects = append(objects, tr.Object.Text)
	}
	assert.Equal(t, []string{"?b", "?c", "?d", "?e"}, objects)

	visited := 0
	Walk(q, func(n Node) bool {
		visited++
		_, isOptional := n.(*Optional)
		return !isOptional
	})
	// Query, BGP, triple, Optional, Union, two Groups, two BGPs, two triples.
	assert.Equal(t, 11, visited)
}
