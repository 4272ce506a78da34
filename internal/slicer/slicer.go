// Package slicer restricts a parsed query to the patterns that constrain the
// suggestion variable, producing the autocompletion query.
package slicer

import (
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/sparql"
)

// Options name the reserved variables, without their '?' sigil.
type Options struct {
	SuggestVariable string
	LabelVariable   string
}

// Result is the sliced query and the variables found relevant to the
// suggestion variable.
type Result struct {
	Query     *sparql.Query
	Text      string
	Variables []string
}

// Slice marks the context of the suggestion variable in q, trims everything
// else and generates the autocompletion query with a wildcard projection.
// q is modified in place: its modifiers are stripped and its nodes marked.
func Slice(q *sparql.Query, opts Options) (*Result, error) {
	StripModifiers(q)
	vars, err := MarkContext(q, opts)
	if err != nil {
		return nil, err
	}
	trimmed := Trim(q, opts)
	trimmed.Projection = nil
	return &Result{
		Query:     trimmed,
		Text:      sparql.Generate(trimmed),
		Variables: vars,
	}, nil
}

// StripModifiers drops the result-shaping parts of q so the slice keeps
// the pattern's cardinality.
func StripModifiers(q *sparql.Query) {
	q.Distinct = false
	q.Reduced = false
	q.Limit = nil
	q.Offset = nil
	q.OrderBy = nil
	q.GroupBy = nil
	q.Having = nil
}

// MarkContext seeds the context with the triples holding the suggestion
// variable, drops the union branches that do not hold the current triple,
// closes the context over shared variables and marks the ancestors of
// in-context nodes. It returns the relevant variables.
func MarkContext(q *sparql.Query, opts Options) ([]string, error) {
	var (
		items  []sparql.Node
		seed   []string
		labels = map[*sparql.Triple]bool{}
		err    error
	)
	sparql.Walk(q, func(n sparql.Node) bool {
		n.Marks().InContext = false
		switch v := n.(type) {
		case *sparql.Minus:
			err = errors.Wrap(errors.ErrContextSliceUnsupported, "MINUS")
		case *sparql.Service:
			err = errors.Wrap(errors.ErrContextSliceUnsupported, "SERVICE")
		case *sparql.Query:
			if v != q {
				err = errors.Wrap(errors.ErrContextSliceUnsupported, "sub-query")
			}
		case *sparql.Optional:
			if t := labelLookup(v, opts); t != nil {
				labels[t] = true
			}
		case *sparql.Triple, *sparql.Filter, *sparql.Bind, *sparql.Values:
			items = append(items, n)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if t, ok := it.(*sparql.Triple); ok {
			t.Current = holds(t, opts.SuggestVariable) && !labels[t]
		}
	}
	dropped := droppedBranches(q)
	reachable := make([]sparql.Node, 0, len(items))
	for _, it := range items {
		if dropped[it] {
			continue
		}
		reachable = append(reachable, it)
		t, ok := it.(*sparql.Triple)
		if !ok || !holds(t, opts.SuggestVariable) {
			continue
		}
		t.InContext = true
		if !t.Current {
			continue
		}
		for _, v := range sparql.Variables(t) {
			seed = appendUnique(seed, v)
		}
	}
	if len(seed) == 0 {
		return nil, errors.Wrapf(errors.ErrQueryGenerationFailed, "no triple pattern holds ?%s", opts.SuggestVariable)
	}

	vars := Close(reachable, seed)
	markAncestors(q)
	return vars, nil
}

// droppedBranches returns every node under a union branch that loses to the
// single sibling holding the current triple.
func droppedBranches(q *sparql.Query) map[sparql.Node]bool {
	dropped := map[sparql.Node]bool{}
	sparql.Walk(q, func(n sparql.Node) bool {
		if dropped[n] {
			return false
		}
		if _, ok := n.(*sparql.Union); !ok {
			return true
		}
		kids := sparql.Children(n)
		holding := 0
		for _, k := range kids {
			if holdsCurrent(k) {
				holding++
			}
		}
		if holding != 1 {
			return true
		}
		for _, k := range kids {
			if holdsCurrent(k) {
				continue
			}
			sparql.Walk(k, func(d sparql.Node) bool {
				dropped[d] = true
				return true
			})
		}
		return true
	})
	return dropped
}

// Close grows the set of relevant variables from seed until it stops
// changing: every item sharing a variable with the set is marked in context
// and brings its own variables in. Items already in context contribute their
// variables up front, so running Close again returns the same set.
func Close(items []sparql.Node, seed []string) []string {
	vars := append([]string(nil), seed...)
	known := make(map[string]bool, len(seed))
	add := func(names []string) {
		for _, v := range names {
			if !known[v] {
				known[v] = true
				vars = append(vars, v)
			}
		}
	}
	for _, v := range seed {
		known[v] = true
	}
	for _, it := range items {
		if it.Marks().InContext {
			add(sparql.Variables(it))
		}
	}
	for changed := true; changed; {
		changed = false
		for _, it := range items {
			if it.Marks().InContext {
				continue
			}
			names := sparql.Variables(it)
			for _, v := range names {
				if known[v] {
					it.Marks().InContext = true
					add(names)
					changed = true
					break
				}
			}
		}
	}
	return vars
}

// markAncestors sets InContext on every container with an in-context
// descendant, children before parents.
func markAncestors(q *sparql.Query) {
	var order []sparql.Node
	sparql.Walk(q, func(n sparql.Node) bool {
		order = append(order, n)
		return true
	})
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		kids := sparql.Children(n)
		if len(kids) == 0 {
			continue
		}
		in := false
		for _, k := range kids {
			in = in || k.Marks().InContext
		}
		n.Marks().InContext = in
	}
}

// labelLookup returns the triple of OPTIONAL { ?suggest <p> ?label } or nil.
func labelLookup(o *sparql.Optional, opts Options) *sparql.Triple {
	if opts.LabelVariable == "" || len(o.Patterns) != 1 {
		return nil
	}
	var t *sparql.Triple
	switch v := o.Patterns[0].(type) {
	case *sparql.Triple:
		t = v
	case *sparql.BGP:
		if len(v.Triples) == 1 {
			t = v.Triples[0]
		}
	}
	if t == nil || t.Subject.VarName() != opts.SuggestVariable || t.Object.VarName() != opts.LabelVariable {
		return nil
	}
	return t
}

func holds(t *sparql.Triple, variable string) bool {
	for _, v := range sparql.Variables(t) {
		if v == variable {
			return true
		}
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
