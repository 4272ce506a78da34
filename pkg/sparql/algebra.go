// Package sparql parses the subset of SPARQL SELECT queries the completion
// engine needs into a typed algebra tree, and generates query text back
// from such a tree.
//
// The tree is a closed sum type: every node is one of *Query, *Group,
// *Union, *Optional, *Minus, *Graph, *Service, *BGP, *Triple, *Filter,
// *Bind or *Values. Each node embeds a Mark carrying the context flag used
// by the slicer.
package sparql

import "strings"

// Node is implemented by every algebra node type of this package only.
type Node interface {
	// Marks returns the node's context marks.
	Marks() *Mark
	isNode()
}

// Mark holds slicing state shared by every node.
type Mark struct {
	InContext bool
}

// Marks returns the receiver so embedding types satisfy Node.
func (m *Mark) Marks() *Mark { return m }

// TermKind classifies a triple term.
type TermKind int

const (
	TermVariable TermKind = iota
	TermIRI
	TermPrefixed
	TermLiteral
	TermBlank
)

// Term is one position of a triple pattern, kept in its SPARQL surface form
// (prefixed names are not expanded).
type Term struct {
	Kind TermKind
	Text string
}

// Var builds a variable term from a name without its sigil.
func Var(name string) Term {
	return Term{Kind: TermVariable, Text: "?" + name}
}

func (t Term) String() string { return t.Text }

// IsVariable reports whether the term is a variable.
func (t Term) IsVariable() bool { return t.Kind == TermVariable }

// VarName returns the variable name without its sigil, or "" for non
// variables.
func (t Term) VarName() string {
	if t.Kind != TermVariable || len(t.Text) < 2 {
		return ""
	}
	return t.Text[1:]
}

// Prefix is one PREFIX declaration. IRI is stored without angle brackets.
type Prefix struct {
	Name string
	IRI  string
}

// Projection is one SELECT item: a variable, or an expression bound with AS.
type Projection struct {
	Variable   string
	Expression string
}

// Query is a SELECT query. A nil Projection means SELECT *.
type Query struct {
	Mark
	Base       string
	Prefixes   []Prefix
	Distinct   bool
	Reduced    bool
	Projection []Projection
	From       []string
	FromNamed  []string
	Where      []Node
	GroupBy    []string
	Having     []string
	OrderBy    []string
	Limit      *int
	Offset     *int
}

// Group is a nested { ... } group graph pattern.
type Group struct {
	Mark
	Patterns []Node
}

// Union holds the alternative branches of { A } UNION { B } ...
type Union struct {
	Mark
	Patterns []Node
}

// Optional is OPTIONAL { ... }.
type Optional struct {
	Mark
	Patterns []Node
}

// Minus is MINUS { ... }.
type Minus struct {
	Mark
	Patterns []Node
}

// Graph is GRAPH name { ... }.
type Graph struct {
	Mark
	Name     Term
	Patterns []Node
}

// Service is SERVICE [SILENT] name { ... }.
type Service struct {
	Mark
	Name     Term
	Silent   bool
	Patterns []Node
}

// BGP is a run of consecutive triple patterns.
type BGP struct {
	Mark
	Triples []*Triple
}

// Triple is one triple pattern. Current is set by the slicer on triples
// that hold the suggestion variable.
type Triple struct {
	Mark
	Subject   Term
	Predicate Term
	Object    Term
	Current   bool
}

// Filter is FILTER(expression). Vars lists the variables the expression
// mentions, in order of first appearance.
type Filter struct {
	Mark
	Expression string
	Vars       []string
}

// Bind is BIND(expression AS ?variable).
type Bind struct {
	Mark
	Expression string
	Vars       []string
	Variable   string
}

// Values is an inline data block. Rows hold terms in surface form, UNDEF
// included.
type Values struct {
	Mark
	Variables []string
	Rows      [][]string
}

func (*Query) isNode()    {}
func (*Group) isNode()    {}
func (*Union) isNode()    {}
func (*Optional) isNode() {}
func (*Minus) isNode()    {}
func (*Graph) isNode()    {}
func (*Service) isNode()  {}
func (*BGP) isNode()      {}
func (*Triple) isNode()   {}
func (*Filter) isNode()   {}
func (*Bind) isNode()     {}
func (*Values) isNode()   {}

// Children returns the direct sub-patterns of n. Leaves return nil.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Query:
		return v.Where
	case *Group:
		return v.Patterns
	case *Union:
		return v.Patterns
	case *Optional:
		return v.Patterns
	case *Minus:
		return v.Patterns
	case *Graph:
		return v.Patterns
	case *Service:
		return v.Patterns
	case *BGP:
		out := make([]Node, len(v.Triples))
		for i, t := range v.Triples {
			out[i] = t
		}
		return out
	}
	return nil
}

// Variables returns the variable names a leaf mentions. Containers return
// nil.
func Variables(n Node) []string {
	switch v := n.(type) {
	case *Triple:
		var out []string
		for _, t := range []Term{v.Subject, v.Predicate, v.Object} {
			if name := t.VarName(); name != "" {
				out = appendUnique(out, name)
			}
		}
		return out
	case *Filter:
		return v.Vars
	case *Bind:
		out := append([]string(nil), v.Vars...)
		return appendUnique(out, v.Variable)
	case *Values:
		return v.Variables
	}
	return nil
}

// Walk visits n and its descendants depth first, parents before children,
// with an explicit stack. Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		kids := Children(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// Triples returns every triple pattern under n in document order.
func Triples(n Node) []*Triple {
	var out []*Triple
	Walk(n, func(c Node) bool {
		if t, ok := c.(*Triple); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}

// Namespaces returns the query's prefix declarations as a map from alias to
// IRI.
func (q *Query) Namespaces() map[string]string {
	out := make(map[string]string, len(q.Prefixes))
	for _, p := range q.Prefixes {
		out[p.Name] = p.IRI
	}
	return out
}

// Declares reports whether the query declares the given prefix alias.
func (q *Query) Declares(alias string) bool {
	alias = strings.TrimSuffix(alias, ":")
	for _, p := range q.Prefixes {
		if p.Name == alias {
			return true
		}
	}
	return false
}
