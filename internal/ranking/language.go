package ranking

import (
	"strings"

	"golang.org/x/text/language"
)

// primarySubtag returns the lower-cased primary language subtag of a BCP 47
// tag, falling back to the text before the first '-' when the tag does not
// parse.
func primarySubtag(tag string) string {
	if tag == "" {
		return ""
	}
	if t, err := language.Parse(tag); err == nil {
		if base, conf := t.Base(); conf != language.No {
			return base.String()
		}
	}
	head, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(head)
}

// languageMatches reports whether a label tagged labelLang may be shown to
// a user reading ui. Untagged labels and an empty ui accept everything.
func languageMatches(labelLang, ui string) bool {
	if labelLang == "" || ui == "" {
		return true
	}
	return primarySubtag(labelLang) == primarySubtag(ui)
}
