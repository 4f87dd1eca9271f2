package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Toni1004/Derbit-JP-Test/internal/models"
	"github.com/Toni1004/Derbit-JP-Test/internal/service"
)

const apiVersion = "1.0.0"

var log = logrus.WithField("component", "api")

// PriceReader is the read-only slice of the price service the API serves.
type PriceReader interface {
	GetAllPrices(ctx context.Context, ticker string) ([]models.TickerPrice, error)
	GetLatestPrice(ctx context.Context, ticker string) (*models.TickerPrice, error)
	GetPriceByDate(ctx context.Context, ticker string, start, end *int64) ([]models.TickerPrice, error)
}

var _ PriceReader = (*service.PriceService)(nil)

type Server struct {
	svc        PriceReader
	httpServer *http.Server
}

func NewServer(svc PriceReader, port int, corsOrigin string) *Server {
	s := &Server{svc: svc}

	mux := http.NewServeMux()

	// Price routes
	mux.HandleFunc("GET /api/v1/prices", s.handleAllPrices)
	mux.HandleFunc("GET /api/v1/prices/latest", s.handleLatestPrice)
	mux.HandleFunc("GET /api/v1/prices/filter", s.handlePricesByDate)

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      corsMiddleware(mux, corsOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	log.Infof("REST API server started on http://localhost%s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
