// Package ranking turns the weighted samples returned by the raw endpoint
// into a deduplicated list of suggestions ordered by estimated relevance.
package ranking

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/passage-org/passage-complete/internal/executor"
)

// Kind is the RDF term kind of a suggestion.
type Kind string

const (
	KindIRI       Kind = "iri"
	KindLiteral   Kind = "literal"
	KindBlankNode Kind = "bnode"
)

// Suggestion is one ranked candidate for the slot being completed.
type Suggestion struct {
	// Value is the text to insert: a prefixed name or <iri>, a quoted
	// literal, or a blank node label.
	Value string `json:"value" yaml:"value" toml:"value"`
	// Term is the raw term value as returned by the endpoint.
	Term          string   `json:"term" yaml:"term" toml:"term"`
	Kind          Kind     `json:"kind" yaml:"kind" toml:"kind"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	LabelLanguage string   `json:"labelLanguage,omitempty" yaml:"labelLanguage,omitempty" toml:"labelLanguage,omitempty"`
	Score         float64  `json:"score" yaml:"score" toml:"score"`
	WalkCount     int      `json:"walks" yaml:"walks" toml:"walks"`
	Provenance    []string `json:"provenance,omitempty" yaml:"provenance,omitempty" toml:"provenance,omitempty"`
}

// Options name the reserved variables of the bindings and carry the
// namespace aliases and UI language used for filtering.
type Options struct {
	SuggestVariable     string
	ProbabilityVariable string
	LabelVariable       string
	ProvenanceVariables []string
	Namespaces          *Namespaces
	Language            string
}

// DefaultOptions returns the variable names used by the autocompletion
// queries.
func DefaultOptions() Options {
	return Options{
		SuggestVariable:     "SUGGEST",
		ProbabilityVariable: "probabilityOfRetrievingRestOfMapping",
		LabelVariable:       "SUGGEST_LABEL",
		ProvenanceVariables: []string{"graph", "source"},
	}
}

// candidate is one successful walk, decoded.
type candidate struct {
	value       string
	term        string
	kind        Kind
	literal     bool
	probability float64
	label       string
	labelLang   string
	provenance  []string
}

type group struct {
	first      candidate
	inverseSum float64
	walks      int
	label      string
	labelLang  string
	provenance []string
	exactScore float64
}

// Aggregate filters, groups and scores bindings. The score of a group of n
// walks out of total successful walks is mean(1/p) * n/total; the list is
// sorted by descending score, ties broken by walk count then value.
func Aggregate(bindings []executor.Binding, filterPrefix string, opts Options) []Suggestion {
	var walks []candidate
	for _, b := range bindings {
		if c, ok := decode(b, opts); ok {
			walks = append(walks, c)
		}
	}
	total := len(walks)
	if total == 0 {
		return nil
	}

	var order []string
	groups := map[string]*group{}
	for _, c := range walks {
		if !matchesFilter(c, filterPrefix, opts.Namespaces) || !languageMatches(c.labelLang, opts.Language) {
			continue
		}
		g, ok := groups[c.value]
		if !ok {
			g = &group{first: c}
			groups[c.value] = g
			order = append(order, c.value)
		}
		g.walks++
		g.inverseSum += 1 / c.probability
		if g.label == "" && c.label != "" {
			g.label, g.labelLang = c.label, c.labelLang
		}
		for _, p := range c.provenance {
			g.provenance = appendUnique(g.provenance, p)
		}
	}

	out := make([]*group, 0, len(order))
	for _, v := range order {
		g := groups[v]
		// mean(1/p) * walks/total, with the walk count cancelled out.
		g.exactScore = g.inverseSum / float64(total)
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.exactScore != b.exactScore {
			return a.exactScore > b.exactScore
		}
		if a.walks != b.walks {
			return a.walks > b.walks
		}
		return a.first.value < b.first.value
	})

	suggestions := make([]Suggestion, len(out))
	for i, g := range out {
		suggestions[i] = Suggestion{
			Value:         g.first.value,
			Term:          g.first.term,
			Kind:          g.first.kind,
			Label:         g.label,
			LabelLanguage: g.labelLang,
			Score:         Round(g.exactScore),
			WalkCount:     g.walks,
			Provenance:    g.provenance,
		}
	}
	return suggestions
}

// Round rounds a score to two decimals for display.
func Round(score float64) float64 {
	return math.Round(score*100) / 100
}

// decode extracts the candidate of one binding. Empty bindings and failed
// walks, whose probability is missing or not positive, are dropped.
func decode(b executor.Binding, opts Options) (candidate, bool) {
	if len(b) == 0 {
		return candidate{}, false
	}
	v, ok := b[opts.SuggestVariable]
	if !ok {
		return candidate{}, false
	}
	p, ok := b[opts.ProbabilityVariable]
	if !ok {
		return candidate{}, false
	}
	proba, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
	if err != nil || proba <= 0 || math.IsInf(proba, 0) || math.IsNaN(proba) {
		return candidate{}, false
	}

	c := candidate{term: v.Value, probability: proba}
	switch {
	case v.Type == executor.TypeURI:
		c.kind = KindIRI
		c.value = iriText(v.Value, opts.Namespaces)
	case v.Type == executor.TypeBlankNode:
		c.kind = KindBlankNode
		c.value = "_:" + v.Value
	case v.IsLiteral():
		c.kind = KindLiteral
		c.literal = true
		c.value = literalText(v, opts.Namespaces)
		if v.Lang != "" {
			c.label, c.labelLang = v.Value, v.Lang
		}
	default:
		return candidate{}, false
	}

	if l, ok := b[opts.LabelVariable]; ok && opts.LabelVariable != "" && l.Value != "" {
		c.label, c.labelLang = l.Value, l.Lang
	}
	for _, name := range opts.ProvenanceVariables {
		if pv, ok := b[name]; ok && pv.Value != "" {
			c.provenance = appendUnique(c.provenance, pv.Value)
		}
	}
	return c, true
}

func iriText(iri string, ns *Namespaces) string {
	if short, ok := ns.Abbreviate(iri); ok {
		return short
	}
	return "<" + iri + ">"
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func literalText(v executor.Value, ns *Namespaces) string {
	quoted := `"` + literalEscaper.Replace(v.Value) + `"`
	switch {
	case v.Lang != "":
		return quoted + "@" + v.Lang
	case v.Datatype != "":
		return quoted + "^^" + iriText(v.Datatype, ns)
	}
	return quoted
}

// matchesFilter applies the characters already typed for the slot.
func matchesFilter(c candidate, prefix string, ns *Namespaces) bool {
	switch {
	case prefix == "":
		return true
	case strings.HasPrefix(prefix, `"`):
		if !c.literal {
			return false
		}
		needle := strings.ToLower(strings.TrimSuffix(prefix[1:], `"`))
		return strings.Contains(strings.ToLower(c.term), needle) ||
			strings.Contains(strings.ToLower(c.label), needle)
	case strings.HasPrefix(prefix, "<"):
		if c.kind != KindIRI {
			return false
		}
		return strings.HasPrefix(c.term, strings.TrimSuffix(prefix[1:], ">"))
	}
	if strings.HasPrefix(c.term, prefix) || strings.HasPrefix(c.value, prefix) {
		return true
	}
	if full, ok := ns.Expand(prefix); ok && c.kind == KindIRI {
		return strings.HasPrefix(c.term, full)
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
