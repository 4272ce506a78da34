package completion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/sparql"
	"github.com/passage-org/passage-complete/pkg/token"
)

// Reconstructed is the query text with the replacement triple spliced in,
// and its parsed tree.
type Reconstructed struct {
	Text           string
	Query          *sparql.Query
	BracesAppended int
}

// ReconstructOptions tune the text built around the replacement triple.
type ReconstructOptions struct {
	// Namespaces maps prefix aliases known to the editor to their IRI. The
	// ones the query does not declare are prepended as PREFIX lines.
	Namespaces map[string]string
	// LabelPredicate, when set, adds an optional label lookup for the
	// suggestion variable next to the replacement triple.
	LabelPredicate string
}

// Reconstruct splices the synthesized triple over the located triple,
// serializes the tokens and parses the result. On a parse failure the
// missing closing braces are appended and parsing is retried once.
func Reconstruct(tokens []token.Token, triple *IncompleteTriple, synth Synthesized, opts ReconstructOptions) (*Reconstructed, error) {
	var b strings.Builder
	writePrefixes(&b, tokens, opts.Namespaces)
	b.WriteString(token.Render(splice(tokens, triple, synth, opts.LabelPredicate)))
	text := b.String()

	q, err := sparql.Parse(text)
	if err == nil {
		return &Reconstructed{Text: text, Query: q}, nil
	}
	missing := missingBraces(tokens)
	if missing <= 0 {
		return nil, errors.Mark(errors.Wrap(err, "could not parse the reconstructed query"), errors.ErrQueryGenerationFailed)
	}
	balanced := text + "\n" + strings.Repeat("}", missing)
	q, err = sparql.Parse(balanced)
	if err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "could not parse the reconstructed query after appending %d closing braces", missing),
			errors.ErrQueryGenerationFailed)
	}
	return &Reconstructed{Text: balanced, Query: q, BracesAppended: missing}, nil
}

// splice replaces tokens[triple.Start:triple.End] with the synthesized
// triple and inserts the label lookup where the pattern statement ends.
func splice(tokens []token.Token, triple *IncompleteTriple, synth Synthesized, labelPredicate string) []token.Fragment {
	positions := synth.Positions()[triple.Inherited:]
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = string(p)
	}
	terminator := triple.Terminator
	if terminator == "" {
		terminator = "."
	}
	replacement := strings.Join(parts, " ") + " " + terminator
	if triple.Start > 0 && !blank(tokens[triple.Start-1]) {
		replacement = " " + replacement
	}

	label := ""
	if labelPredicate != "" {
		label = fmt.Sprintf(" OPTIONAL { ?%s %s ?%s }", SuggestVariable, iriRef(labelPredicate), LabelVariable)
	}

	out := make([]token.Fragment, 0, len(tokens)+3)
	out = append(out, token.Fragments(tokens[:triple.Start])...)
	out = append(out, token.Synthetic(replacement))
	if label == "" || terminator == "." {
		if blank(tokens[triple.End-1]) {
			label += " "
		}
		out = append(out, token.Synthetic(label))
		return append(out, token.Fragments(tokens[triple.End:])...)
	}

	// After ';' or ',' the statement goes on, so the lookup waits for its end.
	at, after := statementEnd(tokens, triple.End)
	if after {
		at++
	}
	out = append(out, token.Fragments(tokens[triple.End:at])...)
	out = append(out, token.Synthetic(label))
	return append(out, token.Fragments(tokens[at:])...)
}

// statementEnd finds where the triples statement starting at i ends: at a
// '.' (after it), or before a closing brace or keyword of the same group.
func statementEnd(tokens []token.Token, i int) (int, bool) {
	depth := 0
	for ; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case t.IsPunct("{") || t.IsPunct("["):
			depth++
		case t.IsPunct("}") || t.IsPunct("]"):
			if depth == 0 {
				return i, false
			}
			depth--
		case depth == 0 && t.IsPunct("."):
			return i, true
		case depth == 0 && t.Kind == token.Keyword && !isLiteralKeyword(t.Text):
			return i, false
		}
	}
	return len(tokens), false
}

func isLiteralKeyword(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

// iriRef writes an IRI in angle brackets unless it is already bracketed or
// a prefixed name.
func iriRef(iri string) string {
	if strings.HasPrefix(iri, "<") || (!strings.Contains(iri, "://") && strings.Contains(iri, ":")) {
		return iri
	}
	return "<" + iri + ">"
}

// writePrefixes writes a PREFIX line for every namespace alias the query
// does not declare itself, in alias order.
func writePrefixes(b *strings.Builder, tokens []token.Token, namespaces map[string]string) {
	if len(namespaces) == 0 {
		return
	}
	declared := declaredPrefixes(tokens)
	aliases := make([]string, 0, len(namespaces))
	for alias := range namespaces {
		alias = strings.TrimSuffix(alias, ":")
		if _, ok := declared[alias]; !ok {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		iri, ok := namespaces[alias]
		if !ok {
			iri = namespaces[alias+":"]
		}
		fmt.Fprintf(b, "PREFIX %s: <%s>\n", alias, strings.Trim(iri, "<>"))
	}
}

func declaredPrefixes(tokens []token.Token) map[string]struct{} {
	out := map[string]struct{}{}
	sig := token.StripWhitespace(tokens)
	for i := 0; i+1 < len(sig); i++ {
		if sig[i].Kind == token.Keyword && strings.EqualFold(sig[i].Text, "PREFIX") && sig[i+1].Kind == token.PrefixedName {
			out[strings.TrimSuffix(sig[i+1].Text, ":")] = struct{}{}
		}
	}
	return out
}

// missingBraces counts unclosed '{' tokens.
func missingBraces(tokens []token.Token) int {
	n := 0
	for _, t := range tokens {
		switch {
		case t.IsPunct("{"):
			n++
		case t.IsPunct("}"):
			n--
		}
	}
	return n
}
