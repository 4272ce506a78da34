package lsp

import (
	"container/list"
	"sync"
)

// DefaultMaxDocuments bounds the documents one client may keep open.
const DefaultMaxDocuments = 100

type documentEntry struct {
	uri  string
	text string
}

// documents is an LRU cache of open document texts keyed by URI.
type documents struct {
	mu      sync.RWMutex
	max     int
	entries map[string]*list.Element
	lru     *list.List
}

func newDocuments(max int) *documents {
	if max <= 0 {
		max = DefaultMaxDocuments
	}
	return &documents{
		max:     max,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// put stores text for uri as most recently used. It returns the URI evicted
// to make room, if any.
func (d *documents) put(uri, text string) (evicted string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if elem, ok := d.entries[uri]; ok {
		d.lru.MoveToFront(elem)
		elem.Value.(*documentEntry).text = text
		return ""
	}
	if len(d.entries) >= d.max {
		if oldest := d.lru.Back(); oldest != nil {
			entry := oldest.Value.(*documentEntry)
			d.lru.Remove(oldest)
			delete(d.entries, entry.uri)
			evicted = entry.uri
		}
	}
	d.entries[uri] = d.lru.PushFront(&documentEntry{uri: uri, text: text})
	documentsOpen.Set(float64(len(d.entries)))
	return evicted
}

func (d *documents) get(uri string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	elem, ok := d.entries[uri]
	if !ok {
		return "", false
	}
	return elem.Value.(*documentEntry).text, true
}

func (d *documents) remove(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if elem, ok := d.entries[uri]; ok {
		d.lru.Remove(elem)
		delete(d.entries, uri)
	}
	documentsOpen.Set(float64(len(d.entries)))
}

func (d *documents) len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
