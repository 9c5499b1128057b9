package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the ledger API. A nil gatherer leaves /metrics unrouted.
func NewRouter(l Ledger, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HandleHealth(l))
	mux.HandleFunc("GET /blockhash", HandleBlockhash(l))
	mux.HandleFunc("POST /transactions", HandleSendTransaction(l))
	mux.HandleFunc("POST /simulate", HandleSimulate(l))
	mux.HandleFunc("GET /transactions", HandleListTransactions(l))
	mux.HandleFunc("GET /transactions/{signature}", HandleGetTransaction(l))
	mux.HandleFunc("GET /accounts/{address}", HandleGetAccount(l))
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("/", NotFoundHandler())
	return RequestLogger(mux, logger)
}
