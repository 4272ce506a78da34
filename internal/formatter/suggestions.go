package formatter

import (
	"strconv"
	"strings"

	"github.com/passage-org/passage-complete/internal/ranking"
)

// Suggestions renders a ranked suggestion list.
type Suggestions []ranking.Suggestion

func (Suggestions) Columns() []string {
	return []string{"VALUE", "SCORE", "WALKS", "KIND", "LABEL", "LANG", "PROVENANCE"}
}

func (s Suggestions) Rows() [][]string {
	rows := make([][]string, len(s))
	for i, x := range s {
		rows[i] = []string{
			x.Value,
			strconv.FormatFloat(x.Score, 'f', 2, 64),
			strconv.Itoa(x.WalkCount),
			string(x.Kind),
			x.Label,
			x.LabelLanguage,
			strings.Join(x.Provenance, ", "),
		}
	}
	return rows
}

// TOMLDocument wraps the list in a suggestions array of tables.
func (s Suggestions) TOMLDocument() any {
	return struct {
		Suggestions []ranking.Suggestion `toml:"suggestions"`
	}{Suggestions: s}
}
