package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Toni1004/Derbit-JP-Test/internal/models"
)

type stubReader struct {
	calls int

	listResult   []models.TickerPrice
	latestResult *models.TickerPrice
	rangeStart   *int64
	rangeEnd     *int64
	err          error
}

func (s *stubReader) GetAllPrices(ctx context.Context, ticker string) ([]models.TickerPrice, error) {
	s.calls++
	return s.listResult, s.err
}

func (s *stubReader) GetLatestPrice(ctx context.Context, ticker string) (*models.TickerPrice, error) {
	s.calls++
	return s.latestResult, s.err
}

func (s *stubReader) GetPriceByDate(ctx context.Context, ticker string, start, end *int64) ([]models.TickerPrice, error) {
	s.calls++
	s.rangeStart = start
	s.rangeEnd = end
	return s.listResult, s.err
}

func serve(stub PriceReader, method, target string) *httptest.ResponseRecorder {
	srv := NewServer(stub, 0, "*")
	rr := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAllPrices(t *testing.T) {
	stub := &stubReader{listResult: []models.TickerPrice{
		{ID: 2, Ticker: "BTC_USD", Price: 45100, Timestamp: 200},
		{ID: 1, Ticker: "BTC_USD", Price: 45000, Timestamp: 100},
	}}

	rr := serve(stub, http.MethodGet, "/api/v1/prices?ticker=BTC_USD")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	resp := decode[priceListResponse](t, rr)
	if resp.Ticker != "BTC_USD" || resp.Count != 2 || len(resp.Prices) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Prices[0].Timestamp != 200 {
		t.Fatalf("expected newest first, got %+v", resp.Prices)
	}
}

func TestAllPrices_EmptyResult(t *testing.T) {
	rr := serve(&stubReader{}, http.MethodGet, "/api/v1/prices?ticker=BTC_USD")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	resp := decode[priceListResponse](t, rr)
	if resp.Count != 0 || resp.Prices == nil || len(resp.Prices) != 0 {
		t.Fatalf("expected empty prices array, got %+v", resp)
	}
}

func TestMissingTicker(t *testing.T) {
	for _, path := range []string{
		"/api/v1/prices",
		"/api/v1/prices/latest",
		"/api/v1/prices/filter",
	} {
		stub := &stubReader{}
		rr := serve(stub, http.MethodGet, path)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", path, rr.Code)
		}
		if stub.calls != 0 {
			t.Fatalf("%s: service must not be touched when ticker is missing", path)
		}
	}
}

func TestLatestPrice(t *testing.T) {
	stub := &stubReader{latestResult: &models.TickerPrice{
		ID: 7, Ticker: "BTC_USD", Price: 45000.50, Timestamp: 1699123456,
	}}

	rr := serve(stub, http.MethodGet, "/api/v1/prices/latest?ticker=BTC_USD")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	resp := decode[latestPriceResponse](t, rr)
	if resp.Ticker != "BTC_USD" || resp.Price == nil || *resp.Price != 45000.50 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Timestamp == nil || *resp.Timestamp != 1699123456 {
		t.Fatalf("unexpected timestamp: %+v", resp.Timestamp)
	}
}

func TestLatestPrice_NoData(t *testing.T) {
	rr := serve(&stubReader{}, http.MethodGet, "/api/v1/prices/latest?ticker=BTC_USD")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	// Absent data is null fields, not an error
	resp := decode[map[string]any](t, rr)
	if resp["price"] != nil || resp["timestamp"] != nil {
		t.Fatalf("expected null price and timestamp, got %+v", resp)
	}
}

func TestPricesByDate_Bounds(t *testing.T) {
	stub := &stubReader{}
	rr := serve(stub, http.MethodGet,
		"/api/v1/prices/filter?ticker=BTC_USD&start_date=2023-11-01&end_date=2023-11-04T18:04:16Z")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	if stub.rangeStart == nil || *stub.rangeStart != 1698796800 {
		t.Fatalf("unexpected start bound: %v", stub.rangeStart)
	}
	if stub.rangeEnd == nil || *stub.rangeEnd != 1699121056 {
		t.Fatalf("unexpected end bound: %v", stub.rangeEnd)
	}
}

func TestPricesByDate_NoBounds(t *testing.T) {
	stub := &stubReader{}
	rr := serve(stub, http.MethodGet, "/api/v1/prices/filter?ticker=BTC_USD")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.rangeStart != nil || stub.rangeEnd != nil {
		t.Fatal("expected nil bounds when no dates given")
	}
}

func TestPricesByDate_InvalidDate(t *testing.T) {
	for _, target := range []string{
		"/api/v1/prices/filter?ticker=BTC_USD&start_date=invalid-date",
		"/api/v1/prices/filter?ticker=BTC_USD&end_date=04/11/2023",
	} {
		stub := &stubReader{}
		rr := serve(stub, http.MethodGet, target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rr.Code)
		}
		if stub.calls != 0 {
			t.Fatalf("%s: service must not be touched on a bad date", target)
		}

		resp := decode[map[string]string](t, rr)
		if resp["error"] == "" {
			t.Fatal("expected a descriptive error message")
		}
	}
}

func TestRepositoryErrorMapsTo500(t *testing.T) {
	stub := &stubReader{err: errors.New("connection refused")}
	rr := serve(stub, http.MethodGet, "/api/v1/prices?ticker=BTC_USD")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestRoot(t *testing.T) {
	rr := serve(&stubReader{}, http.MethodGet, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	resp := decode[map[string]string](t, rr)
	if resp["message"] == "" || resp["version"] != apiVersion || resp["docs"] == "" {
		t.Fatalf("unexpected root response: %+v", resp)
	}
}

func TestHealth(t *testing.T) {
	rr := serve(&stubReader{}, http.MethodGet, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	resp := decode[map[string]string](t, rr)
	if resp["status"] != "healthy" {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestCorsMiddleware_Headers(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware(inner, "https://myapp.example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	origin := rr.Header().Get("Access-Control-Allow-Origin")
	if origin != "https://myapp.example.com" {
		t.Fatalf("expected custom origin, got %q", origin)
	}
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called for OPTIONS")
	})
	handler := corsMiddleware(inner, "*")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/prices/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rr.Code)
	}
}
