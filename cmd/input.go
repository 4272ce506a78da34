package cmd

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/passage-org/passage-complete/pkg/errors"
)

// cursorFlags locate the cursor in the query text. Negative values mean
// the end of the query, or the end of the line when only --line is set.
type cursorFlags struct {
	line   int
	column int
}

// readQuery returns the query of the file argument, or of in when no file
// is given. A terminal on stdin with no file asks for help.
func readQuery(args []string, in io.Reader) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", errors.Wrapf(err, "read query %s", args[0])
		}
		return string(data), nil
	}
	if f, ok := in.(*os.File); ok && len(args) == 0 && term.IsTerminal(int(f.Fd())) {
		return "", errShowHelp
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", errors.Wrap(err, "read query from stdin")
	}
	return string(data), nil
}

// resolve returns the zero based line and byte column of the cursor in text.
func (c cursorFlags) resolve(text string) (line, column int, err error) {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	line = c.line
	if line < 0 {
		line = len(lines) - 1
	}
	if line >= len(lines) {
		return 0, 0, errors.Newf("--line %d is past the last line %d", line, len(lines)-1)
	}
	column = c.column
	if column < 0 {
		column = len(lines[line])
	}
	if column > len(lines[line]) {
		return 0, 0, errors.Newf("--col %d is past the end of line %d", column, line)
	}
	return line, column, nil
}
