package slicer

import "github.com/passage-org/passage-complete/pkg/sparql"

// Trim returns a copy of q holding only in-context nodes. Singleton groups,
// unions and BGPs collapse into their child, and an optional around the
// current triple is unwrapped, except the label lookup which is kept as is.
// Trim leaves q untouched and Trim(Trim(q)) equals Trim(q).
func Trim(q *sparql.Query, opts Options) *sparql.Query {
	out := *q
	out.Where = trimList(q.Where, opts)
	return &out
}

func trimList(nodes []sparql.Node, opts Options) []sparql.Node {
	var out []sparql.Node
	for _, n := range nodes {
		if !n.Marks().InContext {
			continue
		}
		out = append(out, trimNode(n, opts)...)
	}
	return out
}

// trimNode returns the nodes replacing n: none, n's trimmed copy, its only
// child, or the promoted contents of an unwrapped optional.
func trimNode(n sparql.Node, opts Options) []sparql.Node {
	switch v := n.(type) {
	case *sparql.Group:
		kids := trimList(v.Patterns, opts)
		if len(kids) == 1 {
			return kids
		}
		return []sparql.Node{&sparql.Group{Mark: v.Mark, Patterns: kids}}
	case *sparql.Union:
		kids := trimList(v.Patterns, opts)
		if len(kids) == 1 {
			return kids
		}
		return []sparql.Node{&sparql.Union{Mark: v.Mark, Patterns: kids}}
	case *sparql.Optional:
		if labelLookup(v, opts) != nil {
			return []sparql.Node{v}
		}
		kids := trimList(v.Patterns, opts)
		if holdsCurrent(v) {
			return kids
		}
		return []sparql.Node{&sparql.Optional{Mark: v.Mark, Patterns: kids}}
	case *sparql.Graph:
		return []sparql.Node{&sparql.Graph{Mark: v.Mark, Name: v.Name, Patterns: trimList(v.Patterns, opts)}}
	case *sparql.BGP:
		var kept []*sparql.Triple
		for _, t := range v.Triples {
			if t.InContext {
				kept = append(kept, t)
			}
		}
		if len(kept) == 1 {
			return []sparql.Node{kept[0]}
		}
		return []sparql.Node{&sparql.BGP{Mark: v.Mark, Triples: kept}}
	case *sparql.Minus:
		return []sparql.Node{&sparql.Minus{Mark: v.Mark, Patterns: trimList(v.Patterns, opts)}}
	case *sparql.Service:
		return []sparql.Node{&sparql.Service{Mark: v.Mark, Name: v.Name, Silent: v.Silent, Patterns: trimList(v.Patterns, opts)}}
	case *sparql.Query:
		return []sparql.Node{Trim(v, opts)}
	}
	// Triple, Filter, Bind and Values are leaves.
	return []sparql.Node{n}
}

func holdsCurrent(n sparql.Node) bool {
	found := false
	sparql.Walk(n, func(c sparql.Node) bool {
		if t, ok := c.(*sparql.Triple); ok && t.Current {
			found = true
		}
		return !found
	})
	return found
}
