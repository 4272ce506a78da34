// Package formatter renders suggestion lists and documents for the
// terminal and for machine consumers.
package formatter

import (
	"bytes"
	"encoding/json"
	"image/color"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/passage-org/passage-complete/pkg/errors"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatList  Format = "list"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
)

// Formats lists the supported formats in help order.
var Formats = []Format{FormatTable, FormatList, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat validates a user supplied format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, known := range Formats {
		names[i] = string(known)
	}
	return "", errors.WithHintf(errors.Newf("unknown output format %q", s), "use one of: %s", strings.Join(names, ", "))
}

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultKeyColor   = lipgloss.Color("14")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
)

// TableColors controls the rendered colors. Nil fields fall back to the
// defaults.
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	KeyColor       color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
}

func orDefault(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

// SetTableTheme overrides the table and list styles.
func SetTableTheme(tc TableColors) {
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(orDefault(tc.HeaderFG, defaultHeaderFG)).
		Background(orDefault(tc.HeaderBG, defaultHeaderBG))
	keyStyle = lipgloss.NewStyle().Foreground(orDefault(tc.KeyColor, defaultKeyColor))
	valueStyle = lipgloss.NewStyle().Foreground(orDefault(tc.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(orDefault(tc.SeparatorColor, defaultSeparator))
}

//nolint:gochecknoinits // default theme for package consumers
func init() {
	SetTableTheme(TableColors{})
}

// Tabular is implemented by values that render as a table or a list.
type Tabular interface {
	Columns() []string
	Rows() [][]string
}

// Options control rendering.
type Options struct {
	Format  Format
	NoColor bool
	// Width caps table width. 0 uses the terminal width.
	Width int
}

// Render writes v in the requested format. Table and list formats need a
// Tabular value; anything else falls back to YAML for them.
func Render(w io.Writer, v any, opts Options) error {
	var (
		out string
		err error
	)
	switch opts.Format {
	case FormatJSON:
		out, err = FormatJSONString(v)
	case FormatYAML:
		out, err = FormatYAMLString(v, YAMLFormatOptions{LiteralBlockStrings: true})
	case FormatTOML:
		out, err = FormatTOMLString(v)
	case FormatTable, FormatList, "":
		t, ok := v.(Tabular)
		if !ok {
			out, err = FormatYAMLString(v, YAMLFormatOptions{LiteralBlockStrings: true})
			break
		}
		if opts.Format == FormatList {
			out = RenderList(t, opts.NoColor)
			break
		}
		width := opts.Width
		if width == 0 {
			width = terminalWidth()
		}
		out = RenderTable(t, opts.NoColor, width)
	default:
		_, err = ParseFormat(string(opts.Format))
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return errors.Wrap(err, "write output")
}

// FormatJSONString renders v as indented JSON with a trailing newline.
func FormatJSONString(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", errors.Wrap(err, "encode json")
	}
	return buf.String(), nil
}

// truncate shortens s to maxLen display cells, ending in "..." when there
// is room for it.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// escapeCell flattens control characters so table rows stay single-line.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", `\n`)
}

// terminalWidth returns the width of stdout, or 120 when it is not a
// terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}
