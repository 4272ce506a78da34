// Package lsp serves SPARQL autocompletion over the Language Server
// Protocol. Documents are synced in full; completion requests run the
// pipeline of pkg/core and fall back to keywords outside triple patterns.
package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/passage-org/passage-complete/internal/completion"
	"github.com/passage-org/passage-complete/internal/ranking"
	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/logger"
	"github.com/passage-org/passage-complete/pkg/settings"
)

// ServerName is reported to clients on initialize.
const ServerName = "passage-complete"

// Handler implements the language server methods for one client.
type Handler struct {
	ctx       context.Context
	engine    *core.Engine
	keywords  *completion.KeywordRegistry
	documents *documents
	lgr       logr.Logger
	// language is the client locale, used to pick labels.
	language string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxDocuments bounds the open documents kept per client.
func WithMaxDocuments(n int) HandlerOption {
	return func(h *Handler) {
		h.documents = newDocuments(n)
	}
}

// WithKeywords replaces the keyword registry used outside triple patterns.
func WithKeywords(r *completion.KeywordRegistry) HandlerOption {
	return func(h *Handler) {
		h.keywords = r
	}
}

// NewHandler creates a handler answering with engine. ctx bounds every
// request and carries the logger.
func NewHandler(ctx context.Context, engine *core.Engine, opts ...HandlerOption) *Handler {
	ctx = settings.IntoContext(ctx, settings.NewServerParams(settings.FrontLSP))
	h := &Handler{
		ctx:       ctx,
		engine:    engine,
		keywords:  completion.DefaultKeywords(),
		documents: newDocuments(DefaultMaxDocuments),
		lgr:       logger.FromContext(ctx).WithValues(logger.FrontKey, settings.FrontLSP),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Protocol returns the glsp dispatch table for h.
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:             h.Initialize,
		Initialized:            h.Initialized,
		Shutdown:               h.Shutdown,
		SetTrace:               h.SetTrace,
		TextDocumentDidOpen:    h.TextDocumentDidOpen,
		TextDocumentDidChange:  h.TextDocumentDidChange,
		TextDocumentDidClose:   h.TextDocumentDidClose,
		TextDocumentCompletion: h.TextDocumentCompletion,
		TextDocumentHover:      h.TextDocumentHover,
	}
}

// Initialize answers the client's capabilities.
func (h *Handler) Initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.Locale != nil {
		h.language = *params.Locale
	}
	h.lgr.Info("client initializing", "client", params.ClientInfo, "locale", h.language)

	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	version := settings.VersionInformation.BuildVersion
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{" ", ":", "<", "?", "\""},
			},
			HoverProvider: &protocol.HoverOptions{},
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &syncKind,
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &version,
		},
	}, nil
}

// Initialized is called once the client received the capabilities.
func (h *Handler) Initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	h.lgr.V(1).Info("client initialized")
	return nil
}

// Shutdown releases the open documents.
func (h *Handler) Shutdown(_ *glsp.Context) error {
	h.lgr.Info("client shutting down", "documents", h.documents.len())
	return nil
}

// SetTrace accepts trace level changes; logging verbosity is set at start.
func (h *Handler) SetTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// TextDocumentDidOpen stores the opened document.
func (h *Handler) TextDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if evicted := h.documents.put(uri, params.TextDocument.Text); evicted != "" {
		h.lgr.Info("document limit reached, evicted oldest document", "evicted", evicted, "uri", uri)
	}
	h.lgr.V(1).Info("document opened", "uri", uri, "length", len(params.TextDocument.Text))
	return nil
}

// TextDocumentDidChange replaces the document text. Only full syncs are
// announced, so every change carries the whole text.
func (h *Handler) TextDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			h.documents.put(uri, whole.Text)
		}
	}
	h.lgr.V(1).Info("document changed", "uri", uri, "changes", len(params.ContentChanges))
	return nil
}

// TextDocumentDidClose forgets the document.
func (h *Handler) TextDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.documents.remove(string(params.TextDocument.URI))
	h.lgr.V(1).Info("document closed", "uri", params.TextDocument.URI)
	return nil
}

// TextDocumentCompletion ranks candidates for the term at the cursor. When
// the cursor is not in a triple pattern, keywords starting with the typed
// word are offered instead. Any other failure, panics included, yields an
// empty list.
func (h *Handler) TextDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.lgr.Error(errors.Newf("%v", r), "panic in completion handler", "uri", params.TextDocument.URI)
			requestsTotal.WithLabelValues(methodCompletion, outcomePanic).Inc()
			result = []protocol.CompletionItem{}
			err = nil
		}
	}()

	text, ok := h.documents.get(string(params.TextDocument.URI))
	if !ok {
		requestsTotal.WithLabelValues(methodCompletion, outcomeEmpty).Inc()
		return []protocol.CompletionItem{}, nil
	}
	lineNo := int(params.Position.Line)
	line := lineAt(text, lineNo)
	col := byteColumn(line, int(params.Position.Character))

	list, cerr := h.engine.CompleteErr(h.ctx, core.Request{
		Text:     text,
		Line:     lineNo,
		Column:   col,
		Language: h.language,
	})
	switch {
	case errors.IsAny(cerr, errors.ErrNotATriple, errors.ErrTripleAlreadyComplete, errors.ErrQueryGenerationFailed):
		items := h.keywordItems(line, lineNo, col)
		requestsTotal.WithLabelValues(methodCompletion, outcomeKeyword).Inc()
		return items, nil
	case cerr != nil:
		h.lgr.Error(cerr, "completion failed", "uri", params.TextDocument.URI, logger.CauseKey, errors.Kind(cerr))
		requestsTotal.WithLabelValues(methodCompletion, outcomeError).Inc()
		return []protocol.CompletionItem{}, nil
	}

	start := termStart(line, col)
	edit := protocol.Range{
		Start: protocol.Position{Line: params.Position.Line, Character: protocol.UInteger(utf16Column(line, start))},
		End:   params.Position,
	}
	items := make([]protocol.CompletionItem, len(list))
	for i, s := range list {
		items[i] = suggestionItem(i, s, edit)
	}
	h.lgr.V(1).Info("completion result", "uri", params.TextDocument.URI, "count", len(items))
	requestsTotal.WithLabelValues(methodCompletion, outcomeOK).Inc()
	return items, nil
}

// TextDocumentHover documents the keyword under the cursor.
func (h *Handler) TextDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (result *protocol.Hover, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.lgr.Error(errors.Newf("%v", r), "panic in hover handler", "uri", params.TextDocument.URI)
			requestsTotal.WithLabelValues(methodHover, outcomePanic).Inc()
			result = nil
			err = nil
		}
	}()

	text, ok := h.documents.get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	line := lineAt(text, int(params.Position.Line))
	word, start, end := wordAt(line, byteColumn(line, int(params.Position.Character)))
	kw, ok := h.keywords.Get(word)
	if word == "" || !ok {
		requestsTotal.WithLabelValues(methodHover, outcomeEmpty).Inc()
		return nil, nil
	}
	requestsTotal.WithLabelValues(methodHover, outcomeOK).Inc()
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("`%s`\n\n%s", completion.FormatSignature(kw), kw.Description),
		},
		Range: &protocol.Range{
			Start: protocol.Position{Line: params.Position.Line, Character: protocol.UInteger(utf16Column(line, start))},
			End:   protocol.Position{Line: params.Position.Line, Character: protocol.UInteger(utf16Column(line, end))},
		},
	}, nil
}

func (h *Handler) keywordItems(line string, lineNo, col int) []protocol.CompletionItem {
	word, start, _ := wordAt(line[:col], col)
	if word == "" {
		return []protocol.CompletionItem{}
	}
	kws := h.keywords.Complete(word)
	edit := protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(lineNo), Character: protocol.UInteger(utf16Column(line, start))},
		End:   protocol.Position{Line: protocol.UInteger(lineNo), Character: protocol.UInteger(utf16Column(line, col))},
	}
	items := make([]protocol.CompletionItem, len(kws))
	for i, kw := range kws {
		kind := protocol.CompletionItemKindKeyword
		if kw.IsFunction {
			kind = protocol.CompletionItemKindFunction
		}
		detail := completion.FormatOneLiner(kw)
		items[i] = protocol.CompletionItem{
			Label:    kw.Name,
			Kind:     &kind,
			Detail:   &detail,
			TextEdit: protocol.TextEdit{Range: edit, NewText: kw.Name},
		}
	}
	return items
}

func suggestionItem(rank int, s ranking.Suggestion, edit protocol.Range) protocol.CompletionItem {
	kind := completionKind(s.Kind)
	sortText := fmt.Sprintf("%05d", rank)
	item := protocol.CompletionItem{
		Label:      s.Value,
		Kind:       &kind,
		SortText:   &sortText,
		FilterText: &s.Value,
		TextEdit:   protocol.TextEdit{Range: edit, NewText: s.Value},
		Documentation: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: suggestionDoc(s),
		},
	}
	if s.Label != "" {
		detail := s.Label
		if s.LabelLanguage != "" {
			detail += "@" + s.LabelLanguage
		}
		item.Detail = &detail
	}
	return item
}

func suggestionDoc(s ranking.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s`\n\nscore %.2f, %d walks", s.Term, s.Score, s.WalkCount)
	if len(s.Provenance) > 0 {
		fmt.Fprintf(&b, "\n\nfrom %s", strings.Join(s.Provenance, ", "))
	}
	return b.String()
}

func completionKind(k ranking.Kind) protocol.CompletionItemKind {
	switch k {
	case ranking.KindLiteral:
		return protocol.CompletionItemKindValue
	case ranking.KindBlankNode:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindReference
	}
}
