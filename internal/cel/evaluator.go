// Package cel compiles the optional suggestion filter: a CEL boolean
// expression evaluated against every ranked suggestion, exposed as s.
package cel

import (
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/passage-org/passage-complete/internal/ranking"
	"github.com/passage-org/passage-complete/pkg/errors"
)

// SuggestionVariable is the name a suggestion is bound to.
const SuggestionVariable = "s"

// fields lists what an expression may read from s.
var fields = map[string]bool{
	"value":      true,
	"term":       true,
	"kind":       true,
	"label":      true,
	"language":   true,
	"score":      true,
	"walks":      true,
	"provenance": true,
}

// Fields returns the names an expression may read from s, sorted.
func Fields() []string {
	out := make([]string, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Filter is a compiled suggestion predicate, safe for concurrent use.
type Filter struct {
	expr string
	prg  cel.Program
}

// newEnv returns the environment filters compile against.
func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(SuggestionVariable, cel.MapType(cel.StringType, cel.DynType)),
		celext.Strings(),
		celext.Lists(),
		celext.Math(),
	)
}

// Compile parses and checks expr. It fails when expr does not parse, reads
// a field s does not have or does not evaluate to a bool.
func Compile(expr string) (*Filter, error) {
	env, err := newEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}
	parsed, issues := env.Parse(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expr)
	}
	pe, err := cel.AstToParsedExpr(parsed)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid filter %q", expr)
	}
	if unknown := unknownFields(pe.GetExpr()); len(unknown) > 0 {
		return nil, errors.WithHintf(
			errors.Newf("invalid filter %q: unknown field %s", expr, strings.Join(unknown, ", ")),
			"available fields: %s", strings.Join(Fields(), ", "))
	}
	checked, issues := env.Check(parsed)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expr)
	}
	if out := checked.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, errors.Newf("invalid filter %q: evaluates to %s, want bool", expr, out)
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid filter %q", expr)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the filter against one suggestion.
func (f *Filter) Match(s ranking.Suggestion) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{SuggestionVariable: activation(s)})
	if err != nil {
		return false, errors.Wrapf(err, "filter %q on %s", f.expr, s.Value)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, errors.Newf("filter %q on %s: got %s, want bool", f.expr, s.Value, out.Type())
	}
	return bool(b), nil
}

// Apply keeps the suggestions matching the filter, in order. A nil filter
// keeps everything.
func (f *Filter) Apply(list []ranking.Suggestion) ([]ranking.Suggestion, error) {
	if f == nil {
		return list, nil
	}
	out := make([]ranking.Suggestion, 0, len(list))
	for _, s := range list {
		ok, err := f.Match(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func activation(s ranking.Suggestion) map[string]any {
	provenance := s.Provenance
	if provenance == nil {
		provenance = []string{}
	}
	return map[string]any{
		"value":      s.Value,
		"term":       s.Term,
		"kind":       string(s.Kind),
		"label":      s.Label,
		"language":   s.LabelLanguage,
		"score":      s.Score,
		"walks":      int64(s.WalkCount),
		"provenance": provenance,
	}
}

// unknownFields returns the fields read from s, as s.f or s["f"], that a
// suggestion does not have.
func unknownFields(expr *exprpb.Expr) []string {
	var unknown []string
	seen := map[string]bool{}
	report := func(name string) {
		if !fields[name] && !seen[name] {
			seen[name] = true
			unknown = append(unknown, name)
		}
	}
	var walk func(*exprpb.Expr)
	walk = func(e *exprpb.Expr) {
		if e == nil {
			return
		}
		switch k := e.ExprKind.(type) {
		case *exprpb.Expr_SelectExpr:
			if isSuggestion(k.SelectExpr.GetOperand()) {
				report(k.SelectExpr.GetField())
			}
			walk(k.SelectExpr.GetOperand())
		case *exprpb.Expr_CallExpr:
			call := k.CallExpr
			if call.GetFunction() == "_[_]" && len(call.GetArgs()) == 2 && isSuggestion(call.GetArgs()[0]) {
				if c := call.GetArgs()[1].GetConstExpr(); c != nil {
					report(c.GetStringValue())
				}
			}
			walk(call.GetTarget())
			for _, a := range call.GetArgs() {
				walk(a)
			}
		case *exprpb.Expr_ListExpr:
			for _, el := range k.ListExpr.GetElements() {
				walk(el)
			}
		case *exprpb.Expr_StructExpr:
			for _, entry := range k.StructExpr.GetEntries() {
				walk(entry.GetMapKey())
				walk(entry.GetValue())
			}
		case *exprpb.Expr_ComprehensionExpr:
			c := k.ComprehensionExpr
			walk(c.GetIterRange())
			walk(c.GetAccuInit())
			walk(c.GetLoopCondition())
			walk(c.GetLoopStep())
			walk(c.GetResult())
		}
	}
	walk(expr)
	sort.Strings(unknown)
	return unknown
}

func isSuggestion(e *exprpb.Expr) bool {
	id, ok := e.GetExprKind().(*exprpb.Expr_IdentExpr)
	return ok && id.IdentExpr.GetName() == SuggestionVariable
}
