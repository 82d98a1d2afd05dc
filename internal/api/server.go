package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer creates an HTTP server with all routes configured.
// Snapshot routes are only registered when snapshots is non-nil.
func NewServer(port string, portfolios PortfolioService, snapshots SnapshotService, gatherer prometheus.Gatherer, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()

	ph := NewPortfolioHandler(portfolios)
	mux.HandleFunc("GET /api/v1/markets", ph.GetMarkets)
	mux.HandleFunc("GET /api/v1/portfolio/{account}", ph.GetPortfolio)
	mux.HandleFunc("GET /api/v1/portfolio/{account}/preview", ph.PreviewAction)

	if snapshots != nil {
		handler := NewHandler(snapshots)
		mux.HandleFunc("GET /api/v1/snapshots/{account}/latest", handler.GetLatestSnapshot)
		mux.HandleFunc("GET /api/v1/snapshots/{account}/{date}", handler.GetSnapshotByDate)
		mux.HandleFunc("GET /api/v1/snapshots/{account}", handler.ListSnapshots)

		generateHandler := http.HandlerFunc(handler.GenerateSnapshot)
		if adminAPIKey != "" {
			mux.Handle("POST /api/v1/snapshots/{account}/generate", requireAuth(adminAPIKey, generateHandler))
		} else {
			mux.Handle("POST /api/v1/snapshots/{account}/generate", generateHandler)
		}
	}

	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
