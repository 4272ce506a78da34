package executor

import "sync"

// Entry holds every binding fetched for one autocompletion query and the
// filter prefix of the latest fetch.
type Entry struct {
	Bindings   []Binding
	LastFilter string
}

// Cache maps autocompletion query text to fetched bindings. It lives as
// long as the editing session that created it. Entries only grow: a fetch
// for a new filter prefix appends to the bindings already known.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewCache returns an empty session cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]*Entry{}}
}

// Get returns a copy of the entry for query.
func (c *Cache) Get(query string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[query]
	if !ok {
		return Entry{}, false
	}
	return Entry{Bindings: append([]Binding(nil), e.Bindings...), LastFilter: e.LastFilter}, true
}

// lookup returns the cached bindings when the entry was computed for the
// same filter prefix.
func (c *Cache) lookup(query, filter string) ([]Binding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[query]
	if !ok || e.LastFilter != filter {
		return nil, false
	}
	return append([]Binding(nil), e.Bindings...), true
}

// merge stores fetched bindings for query, appending to an existing entry,
// and remembers filter as the latest prefix. It reports whether an entry
// was extended rather than created.
func (c *Cache) merge(query, filter string, fetched []Binding) ([]Binding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, extended := c.entries[query]
	if !extended {
		e = &Entry{}
		c.entries[query] = e
	}
	e.Bindings = append(e.Bindings, fetched...)
	e.LastFilter = filter
	return append([]Binding(nil), e.Bindings...), extended
}

// Len returns the number of cached queries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry, typically when the editing session ends.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*Entry{}
}
