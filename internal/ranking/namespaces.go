package ranking

import (
	"regexp"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
)

// localName is what may follow a namespace for an IRI to be written as a
// prefixed name.
var localName = regexp.MustCompile(`^[A-Za-z0-9_.\-]*$`)

// Namespaces abbreviates IRIs against known namespace aliases and expands
// prefixed names back. The longest matching namespace wins.
type Namespaces struct {
	trie    *patricia.Trie
	aliases map[string]string
}

// NewNamespaces indexes alias to IRI pairs. Aliases may carry a trailing
// ':' and IRIs may be wrapped in angle brackets.
func NewNamespaces(m map[string]string) *Namespaces {
	n := &Namespaces{trie: patricia.NewTrie(), aliases: make(map[string]string, len(m))}
	for alias, iri := range m {
		alias = strings.TrimSuffix(alias, ":")
		iri = strings.Trim(iri, "<>")
		if iri == "" {
			continue
		}
		n.aliases[alias] = iri
		// Several aliases may share a namespace; keep the shortest, then
		// the first in lexical order, so abbreviation is deterministic.
		if prev := n.trie.Get(patricia.Prefix(iri)); prev != nil {
			p := prev.(string)
			if len(p) < len(alias) || (len(p) == len(alias) && p < alias) {
				continue
			}
		}
		n.trie.Set(patricia.Prefix(iri), alias)
	}
	return n
}

// Abbreviate writes iri as alias:local using the longest namespace that is
// a prefix of iri. It reports false when no namespace applies or the local
// part is not a valid local name.
func (n *Namespaces) Abbreviate(iri string) (string, bool) {
	if n == nil || len(n.aliases) == 0 {
		return "", false
	}
	var (
		bestIRI   string
		bestAlias string
	)
	_ = n.trie.VisitPrefixes(patricia.Prefix(iri), func(prefix patricia.Prefix, item patricia.Item) error {
		if len(prefix) > len(bestIRI) {
			bestIRI = string(prefix)
			bestAlias = item.(string)
		}
		return nil
	})
	if bestIRI == "" {
		return "", false
	}
	local := iri[len(bestIRI):]
	if !localName.MatchString(local) || strings.HasSuffix(local, ".") {
		return "", false
	}
	return bestAlias + ":" + local, true
}

// Expand turns alias:local into the full IRI when alias is known.
func (n *Namespaces) Expand(prefixed string) (string, bool) {
	if n == nil {
		return "", false
	}
	alias, local, ok := strings.Cut(prefixed, ":")
	if !ok {
		return "", false
	}
	iri, ok := n.aliases[alias]
	if !ok {
		return "", false
	}
	return iri + local, true
}
