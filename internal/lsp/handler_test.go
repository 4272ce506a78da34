package lsp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/passage-org/passage-complete/pkg/core"
)

const rawResults = `{
  "head": {"vars": ["SUGGEST", "probabilityOfRetrievingRestOfMapping", "SUGGEST_LABEL"]},
  "results": {"bindings": [
    {"SUGGEST": {"type": "uri", "value": "http://ex.org/knows"},
     "probabilityOfRetrievingRestOfMapping": {"type": "literal", "value": "0.5"},
     "SUGGEST_LABEL": {"type": "literal", "value": "knows", "xml:lang": "en"}},
    {"SUGGEST": {"type": "uri", "value": "http://ex.org/name"},
     "probabilityOfRetrievingRestOfMapping": {"type": "literal", "value": "1"}}
  ]}
}`

const docURI = protocol.DocumentUri("file:///query.rq")

func newTestHandler(t *testing.T, status int) *Handler {
	t.Helper()
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, rawResults)
	}))
	t.Cleanup(raw.Close)

	engine, err := core.New(
		core.WithEndpoint(raw.URL+"/sparql"),
		core.WithNamespaces(map[string]string{"ex": "http://ex.org/"}),
	)
	require.NoError(t, err)
	return NewHandler(context.Background(), engine)
}

func open(t *testing.T, h *Handler, text string) {
	t.Helper()
	require.NoError(t, h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "sparql", Text: text},
	}))
}

func complete(t *testing.T, h *Handler, line, character uint32) []protocol.CompletionItem {
	t.Helper()
	result, err := h.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     protocol.Position{Line: line, Character: character},
		},
	})
	require.NoError(t, err)
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "got %T", result)
	return items
}

func TestCompletionRanksSuggestions(t *testing.T) {
	h := newTestHandler(t, http.StatusOK)
	open(t, h, "SELECT * WHERE {\n  ?s ex: \n}")

	items := complete(t, h, 1, 8)
	require.Len(t, items, 2)

	assert.Equal(t, "ex:knows", items[0].Label)
	assert.Equal(t, "00000", *items[0].SortText)
	require.NotNil(t, items[0].Detail)
	assert.Equal(t, "knows@en", *items[0].Detail)
	assert.Equal(t, protocol.CompletionItemKindReference, *items[0].Kind)

	edit, ok := items[0].TextEdit.(protocol.TextEdit)
	require.True(t, ok)
	assert.Equal(t, "ex:knows", edit.NewText)
	assert.Equal(t, protocol.Position{Line: 1, Character: 5}, edit.Range.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 8}, edit.Range.End)

	doc, ok := items[1].Documentation.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, doc.Value, "http://ex.org/name")
	assert.Nil(t, items[1].Detail)
}

func TestCompletionFallsBackToKeywords(t *testing.T) {
	h := newTestHandler(t, http.StatusOK)
	open(t, h, "SELECT * WHERE { ?s ?p ?o } LIM")

	items := complete(t, h, 0, 31)
	require.Len(t, items, 1)
	assert.Equal(t, "LIMIT", items[0].Label)
	assert.Equal(t, protocol.CompletionItemKindKeyword, *items[0].Kind)
	edit := items[0].TextEdit.(protocol.TextEdit)
	assert.Equal(t, protocol.UInteger(28), edit.Range.Start.Character)
}

func TestCompletionFailuresYieldEmptyList(t *testing.T) {
	tests := []struct {
		name   string
		status int
		text   string
		char   uint32
	}{
		{"endpoint error", http.StatusBadGateway, "SELECT * WHERE { ?s ?p  }", 23},
		{"complete triple", http.StatusOK, "SELECT * WHERE { ?s ?p ?o  }", 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.status)
			open(t, h, tt.text)
			items := complete(t, h, 0, tt.char)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestCompletionUnknownDocument(t *testing.T) {
	h := newTestHandler(t, http.StatusOK)
	assert.Empty(t, complete(t, h, 0, 0))
}

func TestCompletionRecoversFromPanic(t *testing.T) {
	h := NewHandler(context.Background(), nil)
	open(t, h, "SELECT * WHERE { ?s ?p  }")

	items := complete(t, h, 0, 23)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDocumentSync(t *testing.T) {
	h := newTestHandler(t, http.StatusOK)
	open(t, h, "SELECT")

	require.NoError(t, h.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "ASK { ?s ?p ?o }"}},
	}))
	text, ok := h.documents.get(string(docURI))
	require.True(t, ok)
	assert.Equal(t, "ASK { ?s ?p ?o }", text)

	require.NoError(t, h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	}))
	_, ok = h.documents.get(string(docURI))
	assert.False(t, ok)
}

func TestHover(t *testing.T) {
	h := newTestHandler(t, http.StatusOK)
	open(t, h, "SELECT * WHERE { ?s ?p ?o OPTIONAL { ?o ?q ?r } }")

	hover, err := h.TextDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     protocol.Position{Line: 0, Character: 28},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	content := hover.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "OPTIONAL { pattern }")
	assert.Equal(t, protocol.UInteger(26), hover.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(34), hover.Range.End.Character)

	hover, err = h.TextDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     protocol.Position{Line: 0, Character: 18},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestWebSocketLifecycle(t *testing.T) {
	h := newTestHandler(t, http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(NewServer(h.engine).HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"processId":    nil,
			"locale":       "en",
			"capabilities": map[string]any{},
		},
	}))
	var resp struct {
		ID     int `json:"id"`
		Result struct {
			Capabilities map[string]any `json:"capabilities"`
			ServerInfo   struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, 1, resp.ID)
	assert.Equal(t, ServerName, resp.Result.ServerInfo.Name)
	assert.Contains(t, resp.Result.Capabilities, "completionProvider")
	assert.Contains(t, resp.Result.Capabilities, "hoverProvider")
}
