package lsp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts language server requests.
	// Labels: method (completion, hover), outcome (ok, empty, keyword, error, panic)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passage_complete",
		Subsystem: "lsp",
		Name:      "requests_total",
		Help:      "Language server requests by method and outcome",
	}, []string{"method", "outcome"})

	documentsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passage_complete",
		Subsystem: "lsp",
		Name:      "documents_open",
		Help:      "Documents currently held by the language server",
	})
)

const (
	methodCompletion = "completion"
	methodHover      = "hover"

	outcomeOK      = "ok"
	outcomeEmpty   = "empty"
	outcomeKeyword = "keyword"
	outcomeError   = "error"
	outcomePanic   = "panic"
)
