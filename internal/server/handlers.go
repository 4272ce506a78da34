package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/passage-org/passage-complete/internal/ranking"
	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/logger"
)

// CompleteRequest is the body of /v1/complete and /v1/analyze. Line and
// Column are zero based; Column counts bytes.
type CompleteRequest struct {
	Query      string            `json:"query" binding:"required"`
	Line       int               `json:"line" binding:"gte=0"`
	Column     int               `json:"column" binding:"gte=0"`
	Namespaces map[string]string `json:"namespaces,omitempty"`
	Language   string            `json:"language,omitempty"`
	Endpoint   string            `json:"endpoint,omitempty" binding:"omitempty,url"`
}

// noSuggestions is the only failure text a completion response carries.
// The cause goes to the logs under the request ID.
const noSuggestions = "no suggestions"

// CompleteResponse lists suggestions best first. On failure Suggestions is
// empty, Error is noSuggestions and Kind names the failed stage.
type CompleteResponse struct {
	RequestID   string               `json:"requestId"`
	Suggestions []ranking.Suggestion `json:"suggestions"`
	Error       string               `json:"error,omitempty"`
	Kind        string               `json:"kind,omitempty"`
}

// ErrorResponse describes a rejected request.
type ErrorResponse struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Hint      string `json:"hint,omitempty"`
}

func (r CompleteRequest) toCore(id string) core.Request {
	return core.Request{
		Text:       r.Query,
		Line:       r.Line,
		Column:     r.Column,
		Namespaces: r.Namespaces,
		Language:   r.Language,
		Endpoint:   r.Endpoint,
		RequestID:  id,
	}
}

func (s *Server) handleComplete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{RequestID: requestID(c), Error: err.Error()})
		return
	}

	id := requestID(c)
	list, err := s.engine.CompleteErr(c.Request.Context(), req.toCore(id))
	if err == nil {
		c.JSON(http.StatusOK, CompleteResponse{RequestID: id, Suggestions: list})
		return
	}

	kind := errors.Kind(err)
	logger.FromContext(c.Request.Context()).Error(err, "completion failed",
		logger.RequestIDKey, id, logger.CauseKey, kind)
	if errors.Is(err, errors.ErrFetchFailed) {
		c.JSON(http.StatusBadGateway, ErrorResponse{RequestID: id, Error: noSuggestions, Kind: kind})
		return
	}
	c.JSON(http.StatusOK, CompleteResponse{
		RequestID:   id,
		Suggestions: []ranking.Suggestion{},
		Error:       noSuggestions,
		Kind:        kind,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{RequestID: requestID(c), Error: err.Error()})
		return
	}

	id := requestID(c)
	analysis, err := s.engine.Analyze(req.toCore(id))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			RequestID: id,
			Error:     err.Error(),
			Kind:      errors.Kind(err),
			Hint:      errors.FlattenHints(err),
		})
		return
	}
	c.JSON(http.StatusOK, analysis)
}
