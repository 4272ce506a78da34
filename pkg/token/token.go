// Package token defines the editor-level token model consumed by the
// completion pipeline: lexed tokens with line and column spans, synthetic
// text fragments spliced in by the engine, and cursor marking.
package token

import "strings"

// Kind classifies a token the way an editor tokenizer would.
type Kind int

const (
	Whitespace   Kind = iota // Run of blanks inside one line
	Comment                  // '#' up to the end of the line
	Variable                 // ?name or $name
	IRI                      // <...> with its closing bracket
	PrefixedName             // prefix:local, _:label, or the 'a' shorthand
	Number                   // Integer, decimal or double literal
	String                   // Quoted literal, quotes included
	LangTag                  // @en, @en-GB
	Punct                    // Braces, brackets, '.', ';', ',', '^^', '*', an unterminated '<'
	Operator                 // Comparison, logical and arithmetic operators
	Keyword                  // SPARQL keywords and built-in function names
	Error                    // Partial lexeme the tokenizer could not classify
)

var kindNames = [...]string{
	Whitespace:   "whitespace",
	Comment:      "comment",
	Variable:     "variable",
	IRI:          "iri",
	PrefixedName: "prefixed-name",
	Number:       "number",
	String:       "string",
	LangTag:      "lang-tag",
	Punct:        "punct",
	Operator:     "operator",
	Keyword:      "keyword",
	Error:        "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one lexeme of one line. Start and End are byte columns within
// the line, End exclusive.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Start  int
	End    int
	Cursor bool
}

// IsTerm reports whether the token can stand for an RDF term on its own or
// open one (a literal that may be followed by a tag or datatype).
func (t Token) IsTerm() bool {
	switch t.Kind {
	case Variable, IRI, PrefixedName, Number, String, Error:
		return true
	}
	return false
}

// IsPunct reports whether the token is the given punctuation.
func (t Token) IsPunct(text string) bool {
	return t.Kind == Punct && t.Text == text
}

// Fragment is a piece of query text: either a lexed Token or engine-made
// Synthetic text.
type Fragment interface {
	Source() string
}

// Source returns the token text.
func (t Token) Source() string { return t.Text }

// Synthetic is text the engine splices into a token stream. It has no
// position of its own.
type Synthetic string

// Source returns the synthetic text.
func (s Synthetic) Source() string { return string(s) }

// Fragments converts tokens to fragments.
func Fragments(tokens []Token) []Fragment {
	out := make([]Fragment, len(tokens))
	for i, t := range tokens {
		out[i] = t
	}
	return out
}

// Render serializes fragments back to query text. A newline is written
// each time a token starts on a later line than the previous token.
func Render(frags []Fragment) string {
	var b strings.Builder
	line := -1
	for _, f := range frags {
		if t, ok := f.(Token); ok {
			if line >= 0 {
				for ; line < t.Line; line++ {
					b.WriteByte('\n')
				}
			}
			line = t.Line
		}
		b.WriteString(f.Source())
	}
	return b.String()
}

// Flatten joins per-line token slices into a single slice, keeping each
// token's Line.
func Flatten(lines [][]Token) []Token {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	out := make([]Token, 0, n)
	for _, l := range lines {
		out = append(out, l...)
	}
	return out
}

// StripWhitespace returns the tokens that are neither whitespace nor
// comments, except a whitespace token carrying the cursor.
func StripWhitespace(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if (t.Kind == Whitespace || t.Kind == Comment) && !t.Cursor {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MarkCursor flags the token under the cursor and returns its index. The
// token under the cursor is the one whose span satisfies Start < col <= End,
// so a cursor right after a term belongs to that term. At column 0 the
// first token of the line is used. A line without tokens gets an empty
// whitespace token so the cursor always has one.
func MarkCursor(tokens []Token, line, col int) ([]Token, int) {
	for i := range tokens {
		tokens[i].Cursor = false
	}
	first, last := -1, -1
	insertAt := len(tokens)
	for i, t := range tokens {
		if t.Line < line {
			continue
		}
		if t.Line > line {
			insertAt = i
			break
		}
		if first < 0 {
			first = i
		}
		last = i
		if t.Start < col && col <= t.End {
			tokens[i].Cursor = true
			return tokens, i
		}
	}
	switch {
	case first >= 0 && col <= tokens[first].Start:
		tokens[first].Cursor = true
		return tokens, first
	case last >= 0:
		tokens[last].Cursor = true
		return tokens, last
	}
	blank := Token{Kind: Whitespace, Line: line, Start: col, End: col, Cursor: true}
	tokens = append(tokens, Token{})
	copy(tokens[insertAt+1:], tokens[insertAt:])
	tokens[insertAt] = blank
	return tokens, insertAt
}
