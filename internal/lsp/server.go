package lsp

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	glspserver "github.com/tliron/glsp/server"

	"github.com/passage-org/passage-complete/internal/httpserve"
	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/logger"
)

// Server runs language server sessions on top of one engine, so every
// client shares the session cache.
type Server struct {
	engine   *core.Engine
	opts     []HandlerOption
	upgrader websocket.Upgrader
}

// NewServer creates a Server. opts apply to the handler of every session.
func NewServer(engine *core.Engine, opts ...HandlerOption) *Server {
	return &Server{
		engine: engine,
		opts:   opts,
		upgrader: websocket.Upgrader{
			// Editors connect from local origins or none at all.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeStdio serves one client over stdin and stdout until it disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	h := NewHandler(ctx, s.engine, s.opts...)
	logger.FromContext(ctx).Info("serving language server over stdio")
	return glspserver.NewServer(h.Protocol(), ServerName, false).RunStdio()
}

// HandleWebSocket upgrades the request and serves one client over the
// connection until it closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	lgr := logger.FromContext(r.Context())
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		lgr.Error(err, "failed to upgrade websocket", "remote", r.RemoteAddr)
		return
	}
	// The session outlives the upgrade request's context.
	ctx := logger.WithLogger(context.Background(), lgr)
	h := NewHandler(ctx, s.engine, s.opts...)

	lgr.Info("serving language server over websocket", "remote", r.RemoteAddr)
	glspserver.NewServer(h.Protocol(), ServerName, false).ServeWebSocket(conn)
	lgr.Info("websocket session closed", "remote", r.RemoteAddr)
}

// ServeWebSocket listens on address and serves each WebSocket connection as
// one client, until ctx is done.
func (s *Server) ServeWebSocket(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleWebSocket)
	return httpserve.Serve(ctx, address, mux)
}

// ServeMetrics exposes the Prometheus registry on address until ctx is done.
func ServeMetrics(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return httpserve.Serve(ctx, address, mux)
}
