package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Toni1004/Derbit-JP-Test/internal/models"
)

type priceListResponse struct {
	Ticker string               `json:"ticker"`
	Count  int                  `json:"count"`
	Prices []models.TickerPrice `json:"prices"`
}

type latestPriceResponse struct {
	Ticker    string   `json:"ticker"`
	Price     *float64 `json:"price"`
	Timestamp *int64   `json:"timestamp"`
}

// Accepted date formats, most specific first. A trailing Z parses through
// the RFC 3339 layout.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (s *Server) handleAllPrices(w http.ResponseWriter, r *http.Request) {
	ticker, ok := requireTicker(w, r)
	if !ok {
		return
	}

	prices, err := s.svc.GetAllPrices(r.Context(), ticker)
	if err != nil {
		log.Errorf("fetch prices for %s: %v", ticker, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}

	if prices == nil {
		prices = []models.TickerPrice{}
	}
	writeJSON(w, http.StatusOK, priceListResponse{
		Ticker: ticker,
		Count:  len(prices),
		Prices: prices,
	})
}

func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	ticker, ok := requireTicker(w, r)
	if !ok {
		return
	}

	latest, err := s.svc.GetLatestPrice(r.Context(), ticker)
	if err != nil {
		log.Errorf("fetch latest price for %s: %v", ticker, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch latest price")
		return
	}

	resp := latestPriceResponse{Ticker: ticker}
	if latest != nil {
		resp.Price = &latest.Price
		resp.Timestamp = &latest.Timestamp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePricesByDate(w http.ResponseWriter, r *http.Request) {
	ticker, ok := requireTicker(w, r)
	if !ok {
		return
	}

	start, ok := parseDateParam(w, r, "start_date")
	if !ok {
		return
	}
	end, ok := parseDateParam(w, r, "end_date")
	if !ok {
		return
	}

	prices, err := s.svc.GetPriceByDate(r.Context(), ticker, start, end)
	if err != nil {
		log.Errorf("fetch prices by date for %s: %v", ticker, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}

	if prices == nil {
		prices = []models.TickerPrice{}
	}
	writeJSON(w, http.StatusOK, priceListResponse{
		Ticker: ticker,
		Count:  len(prices),
		Prices: prices,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Deribit Price API",
		"version": apiVersion,
		"docs":    "/docs",
	})
}

// --- validation helpers ---

// requireTicker extracts the mandatory ticker query parameter, answering
// 422 when it is absent.
func requireTicker(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		writeError(w, http.StatusUnprocessableEntity, "ticker query parameter is required")
		return "", false
	}
	return ticker, true
}

// parseDateParam converts an optional ISO-8601 query parameter to an epoch
// second bound, answering 400 on a value that fails to parse.
func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			ts := t.Unix()
			return &ts, true
		}
	}

	writeError(w, http.StatusBadRequest,
		fmt.Sprintf("Invalid %s format. Use ISO format (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)", name))
	return nil, false
}
