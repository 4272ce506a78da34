package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespacesAbbreviate(t *testing.T) {
	ns := NewNamespaces(map[string]string{
		"ex":     "http://ex.org/",
		"exo:":   "<http://ex.org/onto/>",
		"schema": "http://schema.org/",
		"sdo":    "http://schema.org/",
	})
	tests := []struct {
		iri    string
		want   string
		wantOk bool
	}{
		{"http://ex.org/alice", "ex:alice", true},
		{"http://ex.org/onto/Person", "exo:Person", true},
		{"http://ex.org/", "ex:", true},
		{"http://ex.org/a/b", "", false},
		{"http://ex.org/v1.", "", false},
		{"http://ex.org/v1.2", "ex:v1.2", true},
		{"http://schema.org/name", "sdo:name", true},
		{"http://unknown.org/x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.iri, func(t *testing.T) {
			got, ok := ns.Abbreviate(tt.iri)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamespacesExpand(t *testing.T) {
	ns := NewNamespaces(map[string]string{"ex": "http://ex.org/"})

	got, ok := ns.Expand("ex:kn")
	assert.True(t, ok)
	assert.Equal(t, "http://ex.org/kn", got)

	_, ok = ns.Expand("foaf:name")
	assert.False(t, ok)
	_, ok = ns.Expand("plain")
	assert.False(t, ok)

	var empty *Namespaces
	_, ok = empty.Abbreviate("http://ex.org/a")
	assert.False(t, ok)
}

func TestLanguageMatches(t *testing.T) {
	assert.True(t, languageMatches("", "en"))
	assert.True(t, languageMatches("fr", ""))
	assert.True(t, languageMatches("en-GB", "en"))
	assert.True(t, languageMatches("zh-Hant-TW", "zh"))
	assert.False(t, languageMatches("fr", "en"))
	assert.Equal(t, "en", primarySubtag("EN-us"))
}
