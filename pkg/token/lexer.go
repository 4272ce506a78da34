package token

import (
	"strings"
)

// keywords holds SPARQL keywords and built-in function names, upper case.
var keywords = map[string]struct{}{}

//nolint:gochecknoinits // static keyword table
func init() {
	for _, k := range strings.Fields(`
		BASE PREFIX SELECT CONSTRUCT DESCRIBE ASK DISTINCT REDUCED FROM NAMED WHERE
		ORDER BY ASC DESC LIMIT OFFSET GROUP HAVING AS OPTIONAL GRAPH UNION FILTER
		BIND VALUES MINUS SERVICE SILENT EXISTS NOT IN UNDEF TRUE FALSE
		STR LANG LANGMATCHES DATATYPE BOUND IRI URI BNODE RAND ABS CEIL FLOOR ROUND
		CONCAT STRLEN UCASE LCASE ENCODE_FOR_URI CONTAINS STRSTARTS STRENDS
		STRBEFORE STRAFTER YEAR MONTH DAY HOURS MINUTES SECONDS TIMEZONE TZ NOW
		UUID STRUUID MD5 SHA1 SHA256 SHA384 SHA512 COALESCE IF STRLANG STRDT
		SAMETERM ISIRI ISURI ISBLANK ISLITERAL ISNUMERIC REGEX SUBSTR REPLACE
		COUNT SUM MIN MAX AVG SAMPLE GROUP_CONCAT SEPARATOR`) {
		keywords[k] = struct{}{}
	}
}

// IsKeyword reports whether word is a SPARQL keyword, case-insensitively.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}

// Tokenize splits query text into per-line tokens. Every byte of every line
// is covered by exactly one token.
func Tokenize(text string) [][]Token {
	rawLines := strings.Split(text, "\n")
	lines := make([][]Token, len(rawLines))
	for i, l := range rawLines {
		lines[i] = tokenizeLine(strings.TrimSuffix(l, "\r"), i)
	}
	return lines
}

func tokenizeLine(line string, lineNo int) []Token {
	var out []Token
	emit := func(kind Kind, start, end int) {
		out = append(out, Token{Kind: kind, Text: line[start:end], Line: lineNo, Start: start, End: end})
	}
	i := 0
	for i < len(line) {
		c := line[i]
		start := i
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			for i < len(line) && (line[i] == ' ' || line[i] == '\t' || line[i] == '\r') {
				i++
			}
			emit(Whitespace, start, i)
		case c == '#':
			i = len(line)
			emit(Comment, start, i)
		case c == '?' || c == '$':
			i++
			for i < len(line) && isNameChar(line[i]) {
				i++
			}
			emit(Variable, start, i)
		case c == '<':
			i = lexAngle(line, i, emit)
		case c == '"' || c == '\'':
			end, ok := scanString(line, i)
			i = end
			if ok {
				emit(String, start, i)
			} else {
				emit(Error, start, i)
			}
		case c == '@':
			i++
			for i < len(line) && (isAlpha(line[i]) || (i > start+1 && (line[i] == '-' || isDigit(line[i])))) {
				i++
			}
			if i == start+1 {
				emit(Error, start, i)
			} else {
				emit(LangTag, start, i)
			}
		case c == '^':
			if i+1 < len(line) && line[i+1] == '^' {
				i += 2
			} else {
				i++
			}
			emit(Punct, start, i)
		case isDigit(c) || ((c == '+' || c == '-' || c == '.') && i+1 < len(line) && isDigit(line[i+1]) && numberAllowed(out)):
			i = scanNumber(line, i)
			emit(Number, start, i)
		case c == '_' && i+1 < len(line) && line[i+1] == ':':
			i += 2
			i = scanLocal(line, i)
			emit(PrefixedName, start, i)
		case c == ':':
			i = scanLocal(line, i+1)
			emit(PrefixedName, start, i)
		case strings.IndexByte("{}()[].;,*", c) >= 0:
			i++
			emit(Punct, start, i)
		case strings.IndexByte("=!&|><+-/", c) >= 0:
			i = scanOperator(line, i)
			emit(Operator, start, i)
		case isAlpha(c):
			i = lexWord(line, i, emit)
		default:
			i++
			emit(Error, start, i)
		}
	}
	return out
}

// lexAngle handles '<': a full IRI, a comparison operator, or the opening
// bracket of an IRI still being typed followed by its partial text.
func lexAngle(line string, i int, emit func(Kind, int, int)) int {
	start := i
	j := i + 1
	for j < len(line) && !strings.ContainsRune("<>\"{}|^`\\ \t", rune(line[j])) {
		j++
	}
	if j < len(line) && line[j] == '>' {
		emit(IRI, start, j+1)
		return j + 1
	}
	if i+1 < len(line) && (strings.IndexByte(" \t=?$(", line[i+1]) >= 0 || isDigit(line[i+1])) {
		return emitOperator(line, i, emit)
	}
	emit(Punct, start, start+1)
	if j > start+1 {
		emit(Error, start+1, j)
	}
	return j
}

func emitOperator(line string, i int, emit func(Kind, int, int)) int {
	end := scanOperator(line, i)
	emit(Operator, i, end)
	return end
}

// lexWord handles a bare word: prefixed name, keyword, the 'a' shorthand,
// or a partial prefixed name reported as Error.
func lexWord(line string, i int, emit func(Kind, int, int)) int {
	start := i
	for i < len(line) && (isNameChar(line[i]) || line[i] == '-' || line[i] == '.') {
		i++
	}
	for i > start && line[i-1] == '.' {
		i--
	}
	if i < len(line) && line[i] == ':' {
		i = scanLocal(line, i+1)
		emit(PrefixedName, start, i)
		return i
	}
	word := line[start:i]
	switch {
	case word == "a":
		emit(PrefixedName, start, i)
	case IsKeyword(word):
		emit(Keyword, start, i)
	default:
		emit(Error, start, i)
	}
	return i
}

// scanLocal consumes the local part of a prefixed name, excluding a
// trailing '.'.
func scanLocal(line string, i int) int {
	start := i
	for i < len(line) && (isNameChar(line[i]) || strings.IndexByte("-.:%", line[i]) >= 0) {
		i++
	}
	for i > start && line[i-1] == '.' {
		i--
	}
	return i
}

func scanString(line string, i int) (int, bool) {
	q := line[i]
	if strings.HasPrefix(line[i:], strings.Repeat(string(q), 3)) {
		end := strings.Index(line[i+3:], strings.Repeat(string(q), 3))
		if end < 0 {
			return len(line), false
		}
		return i + 3 + end + 3, true
	}
	brace := -1
	for j := i + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case q:
			return j + 1, true
		case '}':
			if brace < 0 {
				brace = j
			}
		}
	}
	if brace < 0 {
		return len(line), false
	}
	// An unclosed short string stops before the first '}' so the group
	// still closes. Blanks before the brace stay whitespace.
	end := brace
	for end > i+1 && (line[end-1] == ' ' || line[end-1] == '\t') {
		end--
	}
	return end, false
}

func scanNumber(line string, i int) int {
	if line[i] == '+' || line[i] == '-' {
		i++
	}
	for i < len(line) && isDigit(line[i]) {
		i++
	}
	if i+1 < len(line) && line[i] == '.' && isDigit(line[i+1]) {
		i++
		for i < len(line) && isDigit(line[i]) {
			i++
		}
	}
	if i < len(line) && (line[i] == 'e' || line[i] == 'E') {
		j := i + 1
		if j < len(line) && (line[j] == '+' || line[j] == '-') {
			j++
		}
		if j < len(line) && isDigit(line[j]) {
			i = j
			for i < len(line) && isDigit(line[i]) {
				i++
			}
		}
	}
	return i
}

var twoCharOperators = []string{"!=", "<=", ">=", "&&", "||"}

func scanOperator(line string, i int) int {
	for _, op := range twoCharOperators {
		if strings.HasPrefix(line[i:], op) {
			return i + 2
		}
	}
	return i + 1
}

// numberAllowed keeps '-' and '+' as operators right after an operand,
// as in ?x-1.
func numberAllowed(prev []Token) bool {
	for k := len(prev) - 1; k >= 0; k-- {
		switch prev[k].Kind {
		case Whitespace, Comment:
			continue
		case Variable, Number, String, IRI, PrefixedName:
			return false
		case Punct:
			return prev[k].Text != ")"
		}
		return true
	}
	return true
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameChar(c byte) bool { return isAlpha(c) || isDigit(c) || c == '_' }
