package completion

import (
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/token"
)

// MaxEntities is the number of terms in a triple pattern.
const MaxEntities = 3

// IncompleteTriple is the triple pattern around the cursor. Tokens in
// [Start, End) of the located token slice belong to it, terminator
// included.
//
// When the pattern continues a previous one through ';' or ',', the subject
// (and predicate after ',') of that pattern lead Entities and Inherited
// counts them. They are not part of [Start, End).
type IncompleteTriple struct {
	Start         int
	End           int
	Entities      []Entity
	Inherited     int
	Terminator    string
	FreeVariables []string
}

// Own returns the entities written inside [Start, End).
func (t *IncompleteTriple) Own() []Entity {
	return t.Entities[t.Inherited:]
}

// LocateIncompleteTriple finds the triple pattern the cursor token at
// cursorIndex belongs to, scanning outward from it in both directions.
func LocateIncompleteTriple(tokens []token.Token, cursorIndex int) (*IncompleteTriple, error) {
	if cursorIndex < 0 || cursorIndex >= len(tokens) {
		return nil, errors.Wrapf(errors.ErrNotATriple, "cursor index %d out of range", cursorIndex)
	}
	cur := tokens[cursorIndex]
	if !scannable(cur) {
		return nil, errors.Wrapf(errors.ErrNotATriple, "cursor is on %s %q", cur.Kind, cur.Text)
	}

	start := scanBackward(tokens, cursorIndex)
	end, terminator := scanForward(tokens, cursorIndex)
	start, end = trimRange(tokens, start, end, cursorIndex)

	own, err := GroupEntities(token.StripWhitespace(tokens[start:end]))
	if err != nil {
		return nil, err
	}

	var inherited []Entity
	if start > 0 {
		if prev := previousSignificant(tokens, start-1); prev >= 0 && (tokens[prev].IsPunct(";") || tokens[prev].IsPunct(",")) {
			inherited, err = inheritedEntities(tokens, prev)
			if err != nil {
				return nil, err
			}
		}
	}

	entities := append(inherited, own...)
	if len(entities) > MaxEntities {
		return nil, errors.Wrapf(errors.ErrNotATriple, "found %d terms around the cursor", len(entities))
	}

	triple := &IncompleteTriple{
		Start:      start,
		End:        end,
		Entities:   entities,
		Inherited:  len(inherited),
		Terminator: terminator,
	}
	for _, e := range entities {
		if e.IsVariable() && len(e[0].Text) > 1 {
			triple.FreeVariables = appendUnique(triple.FreeVariables, e[0].Text[1:])
		}
	}
	return triple, nil
}

// inheritedEntities returns the subject (after ';') or subject and predicate
// (after ',') of the pattern that ends with the separator at sepIndex.
func inheritedEntities(tokens []token.Token, sepIndex int) ([]Entity, error) {
	want := 1
	if tokens[sepIndex].IsPunct(",") {
		want = 2
	}
	last := previousSignificant(tokens, sepIndex-1)
	if last < 0 || !partOfTerm(tokens[last]) {
		return nil, errors.Wrapf(errors.ErrNotATriple, "nothing precedes %q", tokens[sepIndex].Text)
	}
	start := scanBackward(tokens, last)
	start, _ = trimRange(tokens, start, last+1, last)
	own, err := GroupEntities(token.StripWhitespace(tokens[start : last+1]))
	if err != nil {
		return nil, err
	}

	var before []Entity
	if prev := previousSignificant(tokens, start-1); prev >= 0 && (tokens[prev].IsPunct(";") || tokens[prev].IsPunct(",")) {
		before, err = inheritedEntities(tokens, prev)
		if err != nil {
			return nil, err
		}
	}
	full := append(before, own...)
	if len(full) != MaxEntities {
		return nil, errors.Wrapf(errors.ErrNotATriple, "pattern before %q has %d terms", tokens[sepIndex].Text, len(full))
	}
	return full[:want], nil
}

// scanBackward returns the index of the leftmost token reachable from i
// through term pieces and blanks.
func scanBackward(tokens []token.Token, i int) int {
	start := i
	for j := i - 1; j >= 0; j-- {
		t := tokens[j]
		if !partOfTerm(t) && !blank(t) {
			break
		}
		start = j
	}
	return start
}

// scanForward returns the end (exclusive) of the pattern starting at i and
// the terminator that closed it, if any. It never crosses a brace.
func scanForward(tokens []token.Token, i int) (int, string) {
	end := i + 1
	for j := i + 1; j < len(tokens); j++ {
		t := tokens[j]
		if isTerminator(t) {
			return j + 1, t.Text
		}
		if !partOfTerm(t) && !blank(t) {
			break
		}
		end = j + 1
	}
	return end, ""
}

// trimRange drops blanks at both ends of [start, end), except the cursor's.
func trimRange(tokens []token.Token, start, end, cursorIndex int) (int, int) {
	for start < end && start != cursorIndex && blank(tokens[start]) {
		start++
	}
	for end > start && end-1 != cursorIndex && blank(tokens[end-1]) {
		end--
	}
	return start, end
}

func previousSignificant(tokens []token.Token, i int) int {
	for ; i >= 0; i-- {
		if !blank(tokens[i]) {
			return i
		}
	}
	return -1
}

// scannable reports whether the cursor token can sit inside a triple.
func scannable(t token.Token) bool {
	return partOfTerm(t) || t.Kind == token.Whitespace
}

func partOfTerm(t token.Token) bool {
	return t.IsTerm() || t.Kind == token.LangTag || t.IsPunct("^^") || t.IsPunct("<")
}

func blank(t token.Token) bool {
	return t.Kind == token.Whitespace || t.Kind == token.Comment
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
