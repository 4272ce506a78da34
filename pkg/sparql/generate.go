package sparql

import (
	"fmt"
	"strconv"
	"strings"
)

const indentUnit = "  "

// Generate serializes a query tree back to SPARQL text.
func Generate(q *Query) string {
	var b strings.Builder
	if q.Base != "" {
		fmt.Fprintf(&b, "BASE <%s>\n", q.Base)
	}
	for _, p := range q.Prefixes {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", p.Name, p.IRI)
	}
	b.WriteString("SELECT ")
	switch {
	case q.Distinct:
		b.WriteString("DISTINCT ")
	case q.Reduced:
		b.WriteString("REDUCED ")
	}
	if len(q.Projection) == 0 {
		b.WriteString("*")
	} else {
		items := make([]string, len(q.Projection))
		for i, p := range q.Projection {
			if p.Expression != "" {
				items[i] = fmt.Sprintf("(%s AS ?%s)", p.Expression, p.Variable)
			} else {
				items[i] = "?" + p.Variable
			}
		}
		b.WriteString(strings.Join(items, " "))
	}
	b.WriteByte('\n')
	for _, f := range q.From {
		fmt.Fprintf(&b, "FROM %s\n", f)
	}
	for _, f := range q.FromNamed {
		fmt.Fprintf(&b, "FROM NAMED %s\n", f)
	}
	b.WriteString("WHERE {\n")
	writePatterns(&b, q.Where, 1)
	b.WriteString("}")
	if len(q.GroupBy) > 0 {
		b.WriteString("\nGROUP BY " + strings.Join(q.GroupBy, " "))
	}
	if len(q.Having) > 0 {
		b.WriteString("\nHAVING " + strings.Join(q.Having, " "))
	}
	if len(q.OrderBy) > 0 {
		b.WriteString("\nORDER BY " + strings.Join(q.OrderBy, " "))
	}
	if q.Limit != nil {
		b.WriteString("\nLIMIT " + strconv.Itoa(*q.Limit))
	}
	if q.Offset != nil && *q.Offset > 0 {
		b.WriteString("\nOFFSET " + strconv.Itoa(*q.Offset))
	}
	return b.String()
}

func writePatterns(b *strings.Builder, nodes []Node, depth int) {
	for _, n := range nodes {
		writeNode(b, n, depth)
	}
}

func writeBlock(b *strings.Builder, head string, nodes []Node, depth int) {
	pad := strings.Repeat(indentUnit, depth)
	b.WriteString(pad + head + "{\n")
	writePatterns(b, nodes, depth+1)
	b.WriteString(pad + "}\n")
}

func writeNode(b *strings.Builder, n Node, depth int) {
	pad := strings.Repeat(indentUnit, depth)
	switch v := n.(type) {
	case *Query:
		// Sub-queries are not produced by the parser.
		writeBlock(b, "", v.Where, depth)
	case *Group:
		writeBlock(b, "", v.Patterns, depth)
	case *Union:
		for i, branch := range v.Patterns {
			if i > 0 {
				b.WriteString(pad + "UNION\n")
			}
			if g, ok := branch.(*Group); ok {
				writeBlock(b, "", g.Patterns, depth)
			} else {
				writeBlock(b, "", []Node{branch}, depth)
			}
		}
	case *Optional:
		writeBlock(b, "OPTIONAL ", v.Patterns, depth)
	case *Minus:
		writeBlock(b, "MINUS ", v.Patterns, depth)
	case *Graph:
		writeBlock(b, "GRAPH "+v.Name.Text+" ", v.Patterns, depth)
	case *Service:
		head := "SERVICE "
		if v.Silent {
			head += "SILENT "
		}
		writeBlock(b, head+v.Name.Text+" ", v.Patterns, depth)
	case *BGP:
		for _, t := range v.Triples {
			writeNode(b, t, depth)
		}
	case *Triple:
		fmt.Fprintf(b, "%s%s %s %s .\n", pad, v.Subject.Text, v.Predicate.Text, v.Object.Text)
	case *Filter:
		fmt.Fprintf(b, "%sFILTER(%s)\n", pad, v.Expression)
	case *Bind:
		fmt.Fprintf(b, "%sBIND(%s AS ?%s)\n", pad, v.Expression, v.Variable)
	case *Values:
		writeValues(b, v, pad)
	}
}

func writeValues(b *strings.Builder, v *Values, pad string) {
	vars := make([]string, len(v.Variables))
	for i, name := range v.Variables {
		vars[i] = "?" + name
	}
	fmt.Fprintf(b, "%sVALUES (%s) {", pad, strings.Join(vars, " "))
	for _, row := range v.Rows {
		fmt.Fprintf(b, " (%s)", strings.Join(row, " "))
	}
	b.WriteString(" }\n")
}
