package completion

import (
	"sort"
	"strings"
)

// Keyword describes a SPARQL keyword or built-in function offered when the
// cursor is not inside a triple pattern.
type Keyword struct {
	Name        string
	Signature   string
	Description string
	Category    string
	// IsFunction marks built-in calls, inserted with parentheses.
	IsFunction bool
}

// Keyword categories in display order.
const (
	CategoryForm     = "form"
	CategoryPattern  = "pattern"
	CategoryModifier = "modifier"
	CategoryFunction = "function"
	CategoryGeneral  = "general"
)

var defaultCategoryOrder = []string{
	CategoryForm,
	CategoryPattern,
	CategoryModifier,
	CategoryFunction,
	CategoryGeneral,
}

// KeywordRegistry indexes keywords by upper-cased name and by category.
type KeywordRegistry struct {
	keywords   map[string]Keyword
	byCategory map[string][]string
	allNames   []string
}

// NewKeywordRegistry returns a registry holding kws. Later entries replace
// earlier ones with the same name unless they carry less documentation.
func NewKeywordRegistry(kws []Keyword) *KeywordRegistry {
	r := &KeywordRegistry{
		keywords:   make(map[string]Keyword, len(kws)),
		byCategory: make(map[string][]string),
	}
	for _, kw := range kws {
		kw.Name = strings.ToUpper(kw.Name)
		if existing, ok := r.keywords[kw.Name]; ok && len(existing.Description) > len(kw.Description) {
			continue
		}
		r.keywords[kw.Name] = kw
	}
	for name, kw := range r.keywords {
		cat := kw.Category
		if cat == "" {
			cat = CategoryGeneral
		}
		r.byCategory[cat] = append(r.byCategory[cat], name)
		r.allNames = append(r.allNames, name)
	}
	for cat := range r.byCategory {
		sort.Strings(r.byCategory[cat])
	}
	sort.Strings(r.allNames)
	return r
}

// DefaultKeywords returns the registry of SPARQL 1.1 query keywords and
// built-in functions.
func DefaultKeywords() *KeywordRegistry {
	return NewKeywordRegistry(sparqlKeywords)
}

// Get returns the keyword named name, case-insensitively.
func (r *KeywordRegistry) Get(name string) (Keyword, bool) {
	kw, ok := r.keywords[strings.ToUpper(name)]
	return kw, ok
}

// All returns every keyword sorted by name.
func (r *KeywordRegistry) All() []Keyword {
	return r.collect(r.allNames)
}

// ByCategory returns the keywords of one category sorted by name.
func (r *KeywordRegistry) ByCategory(category string) []Keyword {
	return r.collect(r.byCategory[category])
}

// Categories returns the non-empty categories in display order.
func (r *KeywordRegistry) Categories() []string {
	var out []string
	for _, cat := range defaultCategoryOrder {
		if len(r.byCategory[cat]) > 0 {
			out = append(out, cat)
		}
	}
	return out
}

// Complete returns the keywords starting with prefix, case-insensitively.
// An empty prefix matches everything.
func (r *KeywordRegistry) Complete(prefix string) []Keyword {
	prefix = strings.ToUpper(prefix)
	i := sort.SearchStrings(r.allNames, prefix)
	var names []string
	for ; i < len(r.allNames) && strings.HasPrefix(r.allNames[i], prefix); i++ {
		names = append(names, r.allNames[i])
	}
	return r.collect(names)
}

// Size returns the number of keywords.
func (r *KeywordRegistry) Size() int {
	return len(r.keywords)
}

func (r *KeywordRegistry) collect(names []string) []Keyword {
	out := make([]Keyword, 0, len(names))
	for _, n := range names {
		out = append(out, r.keywords[n])
	}
	return out
}

// FormatSignature returns the signature, falling back to the name, with
// parentheses for functions.
func FormatSignature(kw Keyword) string {
	if kw.Signature != "" {
		return kw.Signature
	}
	if kw.IsFunction {
		return kw.Name + "()"
	}
	return kw.Name
}

// FormatOneLiner returns the signature and description on one line.
func FormatOneLiner(kw Keyword) string {
	sig := FormatSignature(kw)
	desc := strings.TrimSpace(kw.Description)
	if desc == "" {
		return sig
	}
	return sig + ": " + desc
}

var sparqlKeywords = []Keyword{
	{Name: "SELECT", Signature: "SELECT [DISTINCT|REDUCED] vars|*", Description: "Project the solutions onto variables.", Category: CategoryForm},
	{Name: "ASK", Description: "Test whether the pattern has a solution.", Category: CategoryForm},
	{Name: "CONSTRUCT", Signature: "CONSTRUCT { template }", Description: "Build a graph from a template.", Category: CategoryForm},
	{Name: "DESCRIBE", Signature: "DESCRIBE resources|*", Description: "Return a description of resources.", Category: CategoryForm},
	{Name: "PREFIX", Signature: "PREFIX alias: <iri>", Description: "Declare a namespace alias.", Category: CategoryForm},
	{Name: "BASE", Signature: "BASE <iri>", Description: "Set the base IRI.", Category: CategoryForm},
	{Name: "WHERE", Signature: "WHERE { pattern }", Description: "Start the graph pattern.", Category: CategoryPattern},
	{Name: "OPTIONAL", Signature: "OPTIONAL { pattern }", Description: "Left join with a pattern.", Category: CategoryPattern},
	{Name: "UNION", Signature: "{ a } UNION { b }", Description: "Solutions of either pattern.", Category: CategoryPattern},
	{Name: "MINUS", Signature: "MINUS { pattern }", Description: "Remove compatible solutions.", Category: CategoryPattern},
	{Name: "GRAPH", Signature: "GRAPH iri|?var { pattern }", Description: "Match in a named graph.", Category: CategoryPattern},
	{Name: "SERVICE", Signature: "SERVICE [SILENT] <endpoint> { pattern }", Description: "Evaluate a pattern at a remote endpoint.", Category: CategoryPattern},
	{Name: "FILTER", Signature: "FILTER(expression)", Description: "Keep solutions where the expression holds.", Category: CategoryPattern},
	{Name: "BIND", Signature: "BIND(expression AS ?var)", Description: "Assign an expression to a variable.", Category: CategoryPattern},
	{Name: "VALUES", Signature: "VALUES ?var { terms }", Description: "Inline data.", Category: CategoryPattern},
	{Name: "DISTINCT", Description: "Drop duplicate solutions.", Category: CategoryModifier},
	{Name: "REDUCED", Description: "Allow dropping duplicate solutions.", Category: CategoryModifier},
	{Name: "ORDER BY", Signature: "ORDER BY [ASC|DESC](expression)", Description: "Sort solutions.", Category: CategoryModifier},
	{Name: "GROUP BY", Signature: "GROUP BY expression", Description: "Group solutions for aggregates.", Category: CategoryModifier},
	{Name: "HAVING", Signature: "HAVING(expression)", Description: "Filter groups.", Category: CategoryModifier},
	{Name: "LIMIT", Signature: "LIMIT n", Description: "Return at most n solutions.", Category: CategoryModifier},
	{Name: "OFFSET", Signature: "OFFSET n", Description: "Skip the first n solutions.", Category: CategoryModifier},
	{Name: "BOUND", Signature: "BOUND(?var)", Description: "True when the variable is bound.", Category: CategoryFunction, IsFunction: true},
	{Name: "STR", Signature: "STR(term)", Description: "Lexical form of a literal or IRI.", Category: CategoryFunction, IsFunction: true},
	{Name: "LANG", Signature: "LANG(literal)", Description: "Language tag of a literal.", Category: CategoryFunction, IsFunction: true},
	{Name: "LANGMATCHES", Signature: "LANGMATCHES(tag, range)", Description: "Match a language tag against a range.", Category: CategoryFunction, IsFunction: true},
	{Name: "DATATYPE", Signature: "DATATYPE(literal)", Description: "Datatype IRI of a literal.", Category: CategoryFunction, IsFunction: true},
	{Name: "IRI", Signature: "IRI(string)", Description: "Build an IRI.", Category: CategoryFunction, IsFunction: true},
	{Name: "ISIRI", Signature: "ISIRI(term)", Description: "True for IRIs.", Category: CategoryFunction, IsFunction: true},
	{Name: "ISBLANK", Signature: "ISBLANK(term)", Description: "True for blank nodes.", Category: CategoryFunction, IsFunction: true},
	{Name: "ISLITERAL", Signature: "ISLITERAL(term)", Description: "True for literals.", Category: CategoryFunction, IsFunction: true},
	{Name: "REGEX", Signature: "REGEX(text, pattern [, flags])", Description: "Match a regular expression.", Category: CategoryFunction, IsFunction: true},
	{Name: "CONTAINS", Signature: "CONTAINS(text, part)", Description: "True when text contains part.", Category: CategoryFunction, IsFunction: true},
	{Name: "STRSTARTS", Signature: "STRSTARTS(text, prefix)", Description: "True when text starts with prefix.", Category: CategoryFunction, IsFunction: true},
	{Name: "STRENDS", Signature: "STRENDS(text, suffix)", Description: "True when text ends with suffix.", Category: CategoryFunction, IsFunction: true},
	{Name: "STRLEN", Signature: "STRLEN(text)", Description: "Length of a string.", Category: CategoryFunction, IsFunction: true},
	{Name: "LCASE", Signature: "LCASE(text)", Description: "Lower-case a string.", Category: CategoryFunction, IsFunction: true},
	{Name: "UCASE", Signature: "UCASE(text)", Description: "Upper-case a string.", Category: CategoryFunction, IsFunction: true},
	{Name: "CONCAT", Signature: "CONCAT(text, ...)", Description: "Concatenate strings.", Category: CategoryFunction, IsFunction: true},
	{Name: "COUNT", Signature: "COUNT([DISTINCT] expression|*)", Description: "Count solutions in a group.", Category: CategoryFunction, IsFunction: true},
	{Name: "SUM", Signature: "SUM(expression)", Description: "Sum over a group.", Category: CategoryFunction, IsFunction: true},
	{Name: "MIN", Signature: "MIN(expression)", Description: "Minimum over a group.", Category: CategoryFunction, IsFunction: true},
	{Name: "MAX", Signature: "MAX(expression)", Description: "Maximum over a group.", Category: CategoryFunction, IsFunction: true},
	{Name: "AVG", Signature: "AVG(expression)", Description: "Average over a group.", Category: CategoryFunction, IsFunction: true},
	{Name: "SAMPLE", Signature: "SAMPLE(expression)", Description: "Any value of a group.", Category: CategoryFunction, IsFunction: true},
	{Name: "GROUP_CONCAT", Signature: "GROUP_CONCAT(expression [; SEPARATOR=s])", Description: "Concatenate the values of a group.", Category: CategoryFunction, IsFunction: true},
	{Name: "COALESCE", Signature: "COALESCE(expression, ...)", Description: "First expression without error.", Category: CategoryFunction, IsFunction: true},
	{Name: "IF", Signature: "IF(condition, then, else)", Description: "Conditional expression.", Category: CategoryFunction, IsFunction: true},
	{Name: "EXISTS", Signature: "EXISTS { pattern }", Description: "True when the pattern matches.", Category: CategoryFunction},
	{Name: "NOT EXISTS", Signature: "NOT EXISTS { pattern }", Description: "True when the pattern does not match.", Category: CategoryFunction},
	{Name: "AS", Description: "Name a projected or bound expression.", Category: CategoryGeneral},
	{Name: "FROM", Signature: "FROM [NAMED] <graph>", Description: "Set the dataset.", Category: CategoryGeneral},
	{Name: "SILENT", Description: "Ignore failures of the enclosing operation.", Category: CategoryGeneral},
}
