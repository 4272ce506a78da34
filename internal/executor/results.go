package executor

// Term types of the query-results JSON format.
const (
	TypeURI          = "uri"
	TypeLiteral      = "literal"
	TypeTypedLiteral = "typed-literal"
	TypeBlankNode    = "bnode"
)

// Value is one RDF term as serialized in application/sparql-results+json.
type Value struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// IsLiteral reports whether v is a plain, language-tagged or typed literal.
func (v Value) IsLiteral() bool {
	return v.Type == TypeLiteral || v.Type == TypeTypedLiteral
}

// Binding maps variable names, without '?', to the values of one solution.
type Binding map[string]Value

// response is the subset of the results document the executor reads.
type response struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}
