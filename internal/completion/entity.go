package completion

import (
	"strings"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/token"
)

// Entity is the run of tokens forming one RDF term: a bare term, a literal
// with its language tag or datatype, or an IRI still being typed.
type Entity []token.Token

// Text returns the entity as it reads in the query.
func (e Entity) Text() string {
	var b strings.Builder
	for _, t := range e {
		b.WriteString(t.Text)
	}
	return b.String()
}

// TextBefore returns the part of the entity's text that comes before p.
func (e Entity) TextBefore(p Position) string {
	var b strings.Builder
	for _, t := range e {
		if !(Position{Line: t.Line, Column: t.Start}).Before(p) {
			break
		}
		if t.Line == p.Line && t.End > p.Column {
			b.WriteString(t.Text[:p.Column-t.Start])
			break
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// HasCursor reports whether one of the entity's tokens carries the cursor.
func (e Entity) HasCursor() bool {
	for _, t := range e {
		if t.Cursor {
			return true
		}
	}
	return false
}

// IsVariable reports whether the entity is a single variable token.
func (e Entity) IsVariable() bool {
	return len(e) == 1 && e[0].Kind == token.Variable
}

// Begin returns the position of the entity's first byte.
func (e Entity) Begin() Position {
	return Position{Line: e[0].Line, Column: e[0].Start}
}

// Finish returns the position just past the entity's last byte.
func (e Entity) Finish() Position {
	last := e[len(e)-1]
	return Position{Line: last.Line, Column: last.End}
}

// Position is a (line, column) pair in the edited text.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

// GroupEntities turns a whitespace-stripped token slice into entities in one
// left-to-right pass. Grouping stops at the first '.', ';', ',' or '}'. A
// token that cannot be part of a triple aborts with ErrNotATriple.
func GroupEntities(tokens []token.Token) ([]Entity, error) {
	var out []Entity
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case t.Kind == token.Whitespace:
			// Only the cursor's own whitespace survives stripping.
		case t.Kind == token.String:
			switch {
			case i+1 < len(tokens) && tokens[i+1].Kind == token.LangTag:
				out = append(out, Entity{t, tokens[i+1]})
				i++
			case i+2 < len(tokens) && tokens[i+1].IsPunct("^^") && isDatatype(tokens[i+2]):
				out = append(out, Entity{t, tokens[i+1], tokens[i+2]})
				i += 2
			default:
				out = append(out, Entity{t})
			}
		case t.IsTerm():
			out = append(out, Entity{t})
		case t.IsPunct("<"):
			pseudo, consumed := unterminatedIRI(tokens[i:])
			out = append(out, Entity{pseudo})
			i += consumed - 1
		case isTerminator(t) || t.IsPunct("}"):
			return out, nil
		default:
			return nil, errors.Wrapf(errors.ErrNotATriple, "unexpected %s %q", t.Kind, t.Text)
		}
	}
	return out, nil
}

// unterminatedIRI collapses '<' and the partial IRI text glued to it into
// one pseudo token. It consumes tokens up to and including the cursor token
// when the cursor sits inside the IRI.
func unterminatedIRI(tokens []token.Token) (token.Token, int) {
	pseudo := tokens[0]
	pseudo.Kind = token.Error
	n := 1
	for n < len(tokens) {
		t := tokens[n]
		adjacent := t.Line == pseudo.Line && t.Start == pseudo.End
		if !adjacent || t.Kind == token.Whitespace || isTerminator(t) || t.IsPunct("{") || t.IsPunct("}") {
			break
		}
		pseudo.Text += t.Text
		pseudo.End = t.End
		pseudo.Cursor = pseudo.Cursor || t.Cursor
		n++
		if t.Cursor {
			break
		}
	}
	return pseudo, n
}

func isDatatype(t token.Token) bool {
	return t.Kind == token.IRI || t.Kind == token.PrefixedName || t.Kind == token.Error
}

func isTerminator(t token.Token) bool {
	return t.IsPunct(".") || t.IsPunct(";") || t.IsPunct(",")
}
