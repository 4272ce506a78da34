package sparql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/token"
)

// SyntaxError reports where parsing stopped and why.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line+1, e.Column+1, e.Msg)
}

// Parse parses a SELECT query.
func Parse(text string) (*Query, error) {
	toks := token.StripWhitespace(token.Flatten(token.Tokenize(text)))
	p := &parser{toks: toks}
	q, err := p.query()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return q, nil
}

type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token.Token {
	if p.eof() {
		return token.Token{Kind: token.Error}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token.Token {
	t := p.peek()
	if !p.eof() {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	t := p.peek()
	if p.eof() && len(p.toks) > 0 {
		last := p.toks[len(p.toks)-1]
		t = token.Token{Line: last.Line, Start: last.End}
	}
	msg := fmt.Sprintf(format, args...)
	if p.eof() {
		msg += " (unexpected end of query)"
	} else {
		msg += fmt.Sprintf(" (found %q)", t.Text)
	}
	return &SyntaxError{Line: t.Line, Column: t.Start, Msg: msg}
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return !p.eof() && t.Kind == token.Keyword && strings.EqualFold(t.Text, kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) isPunct(s string) bool {
	return !p.eof() && p.peek().IsPunct(s)
}

func (p *parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return p.errorf("expected %q", s)
	}
	return nil
}

func (p *parser) query() (*Query, error) {
	q := &Query{}
	for {
		switch {
		case p.acceptKeyword("BASE"):
			t := p.next()
			if t.Kind != token.IRI {
				p.pos--
				return nil, p.errorf("expected IRI after BASE")
			}
			q.Base = strings.Trim(t.Text, "<>")
			continue
		case p.acceptKeyword("PREFIX"):
			name := p.next()
			if name.Kind != token.PrefixedName || !strings.HasSuffix(name.Text, ":") {
				p.pos--
				return nil, p.errorf("expected prefix name after PREFIX")
			}
			iri := p.next()
			if iri.Kind != token.IRI {
				p.pos--
				return nil, p.errorf("expected IRI in PREFIX declaration")
			}
			q.Prefixes = append(q.Prefixes, Prefix{
				Name: strings.TrimSuffix(name.Text, ":"),
				IRI:  strings.Trim(iri.Text, "<>"),
			})
			continue
		}
		break
	}
	if !p.acceptKeyword("SELECT") {
		return nil, p.errorf("expected SELECT")
	}
	if err := p.selectClause(q); err != nil {
		return nil, err
	}
	for p.acceptKeyword("FROM") {
		named := p.acceptKeyword("NAMED")
		t := p.next()
		if t.Kind != token.IRI && t.Kind != token.PrefixedName {
			p.pos--
			return nil, p.errorf("expected IRI after FROM")
		}
		if named {
			q.FromNamed = append(q.FromNamed, t.Text)
		} else {
			q.From = append(q.From, t.Text)
		}
	}
	p.acceptKeyword("WHERE")
	where, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = where
	if err := p.solutionModifiers(q); err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("unexpected trailing input")
	}
	return q, nil
}

func (p *parser) selectClause(q *Query) error {
	if p.acceptKeyword("DISTINCT") {
		q.Distinct = true
	} else if p.acceptKeyword("REDUCED") {
		q.Reduced = true
	}
	if p.acceptPunct("*") {
		return nil
	}
	for {
		t := p.peek()
		switch {
		case !p.eof() && t.Kind == token.Variable && len(t.Text) > 1:
			p.pos++
			q.Projection = append(q.Projection, Projection{Variable: t.Text[1:]})
			continue
		case p.isPunct("("):
			p.pos++
			start := p.pos
			depth := 0
			for !p.eof() && !(depth == 0 && p.isKeyword("AS")) {
				if p.isPunct("(") {
					depth++
				} else if p.isPunct(")") {
					depth--
				}
				p.pos++
			}
			expr := joinTokens(p.toks[start:p.pos])
			if !p.acceptKeyword("AS") {
				return p.errorf("expected AS in select expression")
			}
			v := p.next()
			if v.Kind != token.Variable {
				p.pos--
				return p.errorf("expected variable after AS")
			}
			if err := p.expectPunct(")"); err != nil {
				return err
			}
			q.Projection = append(q.Projection, Projection{Variable: v.Text[1:], Expression: expr})
			continue
		}
		break
	}
	if len(q.Projection) == 0 {
		return p.errorf("expected '*' or at least one variable")
	}
	return nil
}

func (p *parser) solutionModifiers(q *Query) error {
	for !p.eof() {
		switch {
		case p.acceptKeyword("GROUP"):
			if !p.acceptKeyword("BY") {
				return p.errorf("expected BY after GROUP")
			}
			q.GroupBy = p.conditions()
		case p.acceptKeyword("HAVING"):
			q.Having = p.conditions()
		case p.acceptKeyword("ORDER"):
			if !p.acceptKeyword("BY") {
				return p.errorf("expected BY after ORDER")
			}
			q.OrderBy = p.conditions()
		case p.acceptKeyword("LIMIT"):
			n, err := p.integer()
			if err != nil {
				return err
			}
			q.Limit = &n
		case p.acceptKeyword("OFFSET"):
			n, err := p.integer()
			if err != nil {
				return err
			}
			q.Offset = &n
		default:
			return p.errorf("unexpected solution modifier")
		}
	}
	return nil
}

// conditions collects GROUP BY / HAVING / ORDER BY items as raw text, one
// per variable, bracketed expression, or call.
func (p *parser) conditions() []string {
	var out []string
	for !p.eof() {
		if p.isKeyword("GROUP") || p.isKeyword("HAVING") || p.isKeyword("ORDER") ||
			p.isKeyword("LIMIT") || p.isKeyword("OFFSET") {
			break
		}
		start := p.pos
		t := p.next()
		if p.isPunct("(") {
			p.skipBalanced("(", ")")
		} else if t.IsPunct("(") {
			p.pos--
			p.skipBalanced("(", ")")
		}
		out = append(out, joinTokens(p.toks[start:p.pos]))
	}
	return out
}

func (p *parser) integer() (int, error) {
	t := p.next()
	n, err := strconv.Atoi(t.Text)
	if t.Kind != token.Number || err != nil {
		p.pos--
		return 0, p.errorf("expected integer")
	}
	return n, nil
}

// skipBalanced consumes from an opening token to its matching closing one.
// It stops at end of input when the input is unbalanced.
func (p *parser) skipBalanced(open, closing string) {
	depth := 0
	for !p.eof() {
		t := p.next()
		switch {
		case t.IsPunct(open):
			depth++
		case t.IsPunct(closing):
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) groupGraphPattern() ([]Node, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if p.isKeyword("SELECT") {
		return nil, p.errorf("sub-queries are not supported")
	}
	var out []Node
	for {
		if p.eof() {
			return nil, p.errorf("expected '}'")
		}
		if p.acceptPunct("}") {
			return out, nil
		}
		if p.acceptPunct(".") {
			continue
		}
		node, err := p.patternElement()
		if err != nil {
			return nil, err
		}
		if bgp, ok := node.(*BGP); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*BGP); ok {
				prev.Triples = append(prev.Triples, bgp.Triples...)
				continue
			}
		}
		out = append(out, node)
	}
}

func (p *parser) patternElement() (Node, error) {
	switch {
	case p.acceptKeyword("OPTIONAL"):
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Optional{Patterns: inner}, nil
	case p.acceptKeyword("MINUS"):
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Minus{Patterns: inner}, nil
	case p.acceptKeyword("GRAPH"):
		name, err := p.graphName()
		if err != nil {
			return nil, err
		}
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Graph{Name: name, Patterns: inner}, nil
	case p.acceptKeyword("SERVICE"):
		silent := p.acceptKeyword("SILENT")
		name, err := p.graphName()
		if err != nil {
			return nil, err
		}
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Service{Name: name, Silent: silent, Patterns: inner}, nil
	case p.acceptKeyword("FILTER"):
		expr, vars, err := p.constraint()
		if err != nil {
			return nil, err
		}
		return &Filter{Expression: expr, Vars: vars}, nil
	case p.acceptKeyword("BIND"):
		return p.bind()
	case p.acceptKeyword("VALUES"):
		return p.values()
	case p.isPunct("{"):
		return p.groupOrUnion()
	}
	triples, err := p.triplesSameSubject()
	if err != nil {
		return nil, err
	}
	return &BGP{Triples: triples}, nil
}

func (p *parser) graphName() (Term, error) {
	t := p.next()
	switch t.Kind {
	case token.Variable:
		return Term{Kind: TermVariable, Text: t.Text}, nil
	case token.IRI:
		return Term{Kind: TermIRI, Text: t.Text}, nil
	case token.PrefixedName:
		return Term{Kind: TermPrefixed, Text: t.Text}, nil
	}
	p.pos--
	return Term{}, p.errorf("expected IRI or variable")
}

func (p *parser) groupOrUnion() (Node, error) {
	first, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	group := &Group{Patterns: first}
	if !p.isKeyword("UNION") {
		return group, nil
	}
	union := &Union{Patterns: []Node{group}}
	for p.acceptKeyword("UNION") {
		branch, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		union.Patterns = append(union.Patterns, &Group{Patterns: branch})
	}
	return union, nil
}

// constraint reads a FILTER body: a bracketed expression, a built-in or
// function call, or [NOT] EXISTS { ... }. The returned text never carries
// the outer brackets.
func (p *parser) constraint() (string, []string, error) {
	start := p.pos
	switch {
	case p.isPunct("("):
		p.skipBalanced("(", ")")
		if !p.toks[p.pos-1].IsPunct(")") {
			return "", nil, p.errorf("unbalanced parentheses in FILTER")
		}
		inner := p.toks[start+1 : p.pos-1]
		return joinTokens(inner), variablesOf(inner), nil
	case p.isKeyword("NOT") || p.isKeyword("EXISTS"):
		p.acceptKeyword("NOT")
		if !p.acceptKeyword("EXISTS") {
			return "", nil, p.errorf("expected EXISTS")
		}
		if !p.isPunct("{") {
			return "", nil, p.errorf("expected '{' after EXISTS")
		}
		p.skipBalanced("{", "}")
	default:
		t := p.next()
		if (t.Kind != token.Keyword && t.Kind != token.PrefixedName && t.Kind != token.IRI) || !p.isPunct("(") {
			p.pos--
			return "", nil, p.errorf("expected FILTER expression")
		}
		p.skipBalanced("(", ")")
	}
	toks := p.toks[start:p.pos]
	return joinTokens(toks), variablesOf(toks), nil
}

func (p *parser) bind() (Node, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	start := p.pos
	depth := 0
	for !p.eof() && !(depth == 0 && p.isKeyword("AS")) {
		if p.isPunct("(") {
			depth++
		} else if p.isPunct(")") {
			depth--
		}
		p.pos++
	}
	exprToks := p.toks[start:p.pos]
	if !p.acceptKeyword("AS") {
		return nil, p.errorf("expected AS in BIND")
	}
	v := p.next()
	if v.Kind != token.Variable {
		p.pos--
		return nil, p.errorf("expected variable after AS")
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &Bind{Expression: joinTokens(exprToks), Vars: variablesOf(exprToks), Variable: v.Text[1:]}, nil
}

func (p *parser) values() (Node, error) {
	out := &Values{}
	multi := p.acceptPunct("(")
	for {
		t := p.peek()
		if p.eof() || t.Kind != token.Variable {
			break
		}
		p.pos++
		out.Variables = append(out.Variables, t.Text[1:])
		if !multi {
			break
		}
	}
	if multi {
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	if len(out.Variables) == 0 {
		return nil, p.errorf("expected variable in VALUES")
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.acceptPunct("}") {
		if p.eof() {
			return nil, p.errorf("expected '}' closing VALUES")
		}
		var row []string
		if multi {
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			for !p.acceptPunct(")") {
				v, err := p.dataValue()
				if err != nil {
					return nil, err
				}
				row = append(row, v)
			}
		} else {
			v, err := p.dataValue()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func (p *parser) dataValue() (string, error) {
	if p.acceptKeyword("UNDEF") {
		return "UNDEF", nil
	}
	t, err := p.term()
	if err != nil {
		return "", err
	}
	if t.Kind == TermVariable {
		return "", p.errorf("variables are not allowed in VALUES data")
	}
	return t.Text, nil
}

// triplesSameSubject reads "s p o" with ';' and ',' shorthand.
func (p *parser) triplesSameSubject() ([]*Triple, error) {
	subject, err := p.term()
	if err != nil {
		return nil, err
	}
	var out []*Triple
	for {
		predicate, err := p.term()
		if err != nil {
			return nil, err
		}
		if predicate.Kind == TermLiteral || predicate.Kind == TermBlank {
			return nil, p.errorf("invalid predicate %s", predicate.Text)
		}
		for {
			object, err := p.term()
			if err != nil {
				return nil, err
			}
			out = append(out, &Triple{Subject: subject, Predicate: predicate, Object: object})
			if !p.acceptPunct(",") {
				break
			}
		}
		if !p.acceptPunct(";") {
			return out, nil
		}
		for p.acceptPunct(";") {
		}
		if p.isPunct(".") || p.isPunct("}") {
			return out, nil
		}
	}
}

// term reads a variable, IRI, prefixed name, blank node or literal.
func (p *parser) term() (Term, error) {
	if p.eof() {
		return Term{}, p.errorf("expected term")
	}
	t := p.next()
	switch t.Kind {
	case token.Variable:
		if len(t.Text) < 2 {
			break
		}
		return Term{Kind: TermVariable, Text: t.Text}, nil
	case token.IRI:
		return Term{Kind: TermIRI, Text: t.Text}, nil
	case token.PrefixedName:
		if strings.HasPrefix(t.Text, "_:") {
			return Term{Kind: TermBlank, Text: t.Text}, nil
		}
		return Term{Kind: TermPrefixed, Text: t.Text}, nil
	case token.Number:
		return Term{Kind: TermLiteral, Text: t.Text}, nil
	case token.Keyword:
		if strings.EqualFold(t.Text, "true") || strings.EqualFold(t.Text, "false") {
			return Term{Kind: TermLiteral, Text: strings.ToLower(t.Text)}, nil
		}
	case token.String:
		text := t.Text
		switch {
		case !p.eof() && p.peek().Kind == token.LangTag:
			text += p.next().Text
		case p.isPunct("^^"):
			p.pos++
			dt := p.next()
			if dt.Kind != token.IRI && dt.Kind != token.PrefixedName {
				p.pos--
				return Term{}, p.errorf("expected datatype IRI after ^^")
			}
			text += "^^" + dt.Text
		}
		return Term{Kind: TermLiteral, Text: text}, nil
	case token.Punct:
		if t.Text == "[" && p.acceptPunct("]") {
			return Term{Kind: TermBlank, Text: "[]"}, nil
		}
	}
	p.pos--
	return Term{}, p.errorf("expected term")
}

// joinTokens renders tokens back to text, with a single space between
// tokens that were not adjacent in the source.
func joinTokens(toks []token.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			if prev.Line != t.Line || prev.End != t.Start {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func variablesOf(toks []token.Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == token.Variable && len(t.Text) > 1 {
			out = appendUnique(out, t.Text[1:])
		}
	}
	return out
}
