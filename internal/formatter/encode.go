package formatter

import (
	"bytes"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/passage-org/passage-complete/pkg/errors"
)

// YAMLFormatOptions control YAML rendering.
type YAMLFormatOptions struct {
	Indent              int
	LiteralBlockStrings bool
}

// FormatYAMLString renders v as YAML. Multi-line strings, such as generated
// queries, can be emitted as literal blocks ("|").
func FormatYAMLString(v any, opts YAMLFormatOptions) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", errors.Wrap(err, "encode yaml")
	}
	if opts.LiteralBlockStrings {
		applyLiteralStyle(&node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return "", errors.Wrap(err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "encode yaml")
	}
	return buf.String(), nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}

// tomlDocument is implemented by values whose TOML form differs from their
// Go shape, typically lists that need a top-level table.
type tomlDocument interface {
	TOMLDocument() any
}

// FormatTOMLString renders v as TOML. Top-level slices are wrapped in an
// "items" array of tables since TOML documents are tables.
func FormatTOMLString(v any) (string, error) {
	if d, ok := v.(tomlDocument); ok {
		v = d.TOMLDocument()
	} else if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		v = map[string]any{"items": v}
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(v); err != nil {
		return "", errors.Wrap(err, "encode toml")
	}
	return buf.String(), nil
}
