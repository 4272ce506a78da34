package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// lineAt returns line n of text without its terminator, or "" past the end.
func lineAt(text string, n int) string {
	for i := 0; i < n; i++ {
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return ""
		}
		text = text[nl+1:]
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	return strings.TrimSuffix(text, "\r")
}

// byteColumn converts a UTF-16 column, as sent by clients, to a byte
// offset within line. Columns past the end clamp to len(line).
func byteColumn(line string, character int) int {
	units := 0
	for i, r := range line {
		if units >= character {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

// utf16Column converts a byte offset within line to a UTF-16 column.
func utf16Column(line string, offset int) int {
	units := 0
	for i := 0; i < offset && i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	return units
}

// termStart returns the byte offset where the term being typed before col
// begins. An unclosed quote or angle bracket on the line starts the term.
func termStart(line string, col int) int {
	before := line[:col]
	if strings.Count(before, `"`)%2 == 1 {
		return strings.LastIndex(before, `"`)
	}
	if open := strings.LastIndexByte(before, '<'); open > strings.LastIndexByte(before, '>') {
		return open
	}
	start := col
	for start > 0 && !isTermBoundary(before[start-1]) {
		start--
	}
	return start
}

func isTermBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '{', '}', '(', ')', ';', ',':
		return true
	}
	return false
}

// wordAt returns the letters around col, for keyword lookup.
func wordAt(line string, col int) (string, int, int) {
	isWord := func(c byte) bool {
		return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	start, end := col, col
	for start > 0 && isWord(line[start-1]) {
		start--
	}
	for end < len(line) && isWord(line[end]) {
		end++
	}
	return line[start:end], start, end
}
