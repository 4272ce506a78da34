package completion

import (
	"strings"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/token"
)

// Reserved variable names, without the '?' sigil.
const (
	SuggestVariable      = "SUGGEST"
	PredicatePlaceholder = "predicate_placeholder"
	ObjectPlaceholder    = "object_placeholder"
	LabelVariable        = "SUGGEST_LABEL"
)

// Slot names the triple position being completed.
type Slot int

const (
	SlotSubject Slot = iota
	SlotPredicate
	SlotObject
)

func (s Slot) String() string {
	switch s {
	case SlotSubject:
		return "subject"
	case SlotPredicate:
		return "predicate"
	case SlotObject:
		return "object"
	}
	return "unknown"
}

// Synthesized is the replacement triple. Exactly one position holds the
// suggestion variable. FilterPrefix is what the user already typed for the
// term being completed.
type Synthesized struct {
	Subject      token.Synthetic
	Predicate    token.Synthetic
	Object       token.Synthetic
	Slot         Slot
	FilterPrefix string
}

// Positions returns subject, predicate and object in order.
func (s Synthesized) Positions() []token.Synthetic {
	return []token.Synthetic{s.Subject, s.Predicate, s.Object}
}

func (s Synthesized) String() string {
	return string(s.Subject) + " " + string(s.Predicate) + " " + string(s.Object)
}

var (
	suggest    = token.Synthetic("?" + SuggestVariable)
	predicateP = token.Synthetic("?" + PredicatePlaceholder)
	objectP    = token.Synthetic("?" + ObjectPlaceholder)
)

// SynthesizeTriple decides from the cursor position which position of the
// triple is being completed and builds a replacement triple with the
// suggestion variable in that position.
func SynthesizeTriple(entities []Entity, cursor Position) (Synthesized, error) {
	switch len(entities) {
	case 0:
		return Synthesized{Subject: suggest, Predicate: predicateP, Object: objectP, Slot: SlotSubject}, nil

	case 1:
		a := entities[0]
		switch {
		case a.HasCursor():
			return Synthesized{Subject: suggest, Predicate: predicateP, Object: objectP, Slot: SlotSubject, FilterPrefix: prefixOf(a, cursor)}, nil
		case !a.Begin().Before(cursor):
			return Synthesized{Subject: suggest, Predicate: predicateP, Object: text(a), Slot: SlotSubject}, nil
		default:
			return Synthesized{Subject: text(a), Predicate: suggest, Object: objectP, Slot: SlotPredicate}, nil
		}

	case 2:
		a, b := entities[0], entities[1]
		switch {
		case a.HasCursor():
			return Synthesized{Subject: suggest, Predicate: text(b), Object: objectP, Slot: SlotSubject, FilterPrefix: prefixOf(a, cursor)}, nil
		case b.HasCursor():
			return Synthesized{Subject: text(a), Predicate: suggest, Object: objectP, Slot: SlotPredicate, FilterPrefix: prefixOf(b, cursor)}, nil
		case !a.Begin().Before(cursor):
			return Synthesized{Subject: suggest, Predicate: text(a), Object: text(b), Slot: SlotSubject}, nil
		case !b.Begin().Before(cursor):
			return Synthesized{Subject: text(a), Predicate: suggest, Object: text(b), Slot: SlotPredicate}, nil
		default:
			return Synthesized{Subject: text(a), Predicate: text(b), Object: suggest, Slot: SlotObject}, nil
		}

	case 3:
		out := Synthesized{Subject: text(entities[0]), Predicate: text(entities[1]), Object: text(entities[2])}
		for i, e := range entities {
			if !e.HasCursor() {
				continue
			}
			out.Slot = Slot(i)
			out.FilterPrefix = prefixOf(e, cursor)
			switch out.Slot {
			case SlotSubject:
				out.Subject = suggest
			case SlotPredicate:
				out.Predicate = suggest
			case SlotObject:
				out.Object = suggest
			}
			return out, nil
		}
		return Synthesized{}, errors.WithHint(
			errors.Wrapf(errors.ErrTripleAlreadyComplete, "%s %s %s", out.Subject, out.Predicate, out.Object),
			"move the cursor into the term you want completed")
	}
	return Synthesized{}, errors.Wrapf(errors.ErrNotATriple, "found %d terms around the cursor", len(entities))
}

func text(e Entity) token.Synthetic {
	return token.Synthetic(e.Text())
}

// prefixOf returns the text typed before the cursor, used to pre-filter
// suggestions. Variables never match a suggestion so they give no prefix.
func prefixOf(e Entity, cursor Position) string {
	if e.IsVariable() {
		return ""
	}
	return strings.TrimSpace(e.TextBefore(cursor))
}
