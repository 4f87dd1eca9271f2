package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Toni1004/Derbit-JP-Test/internal/httputil"
)

const requestTimeout = 10 * time.Second

// Timestamps above this are milliseconds and get divided down to seconds.
const millisThreshold = int64(1e10)

// IndexPrice is the normalized result of one index-price fetch.
type IndexPrice struct {
	Price     float64
	Timestamp int64 // epoch seconds
}

// DeribitClient fetches index prices from the Deribit public API over a
// pooled HTTP client. Close releases the pooled connections.
type DeribitClient struct {
	baseURL    string
	httpClient *httputil.Client
}

func NewDeribitClient(baseURL string) *DeribitClient {
	return &DeribitClient{
		baseURL:    baseURL,
		httpClient: httputil.NewPooled(requestTimeout),
	}
}

// GetIndexPrice fetches the current index price for a currency code
// (e.g. "BTC"); the index name queried is "<CODE>_USD". Each call is a
// single round trip, no retries.
func (c *DeribitClient) GetIndexPrice(ctx context.Context, currency string) (*IndexPrice, error) {
	endpoint := c.baseURL + "/public/get_index_price?" + url.Values{
		"index_name": {currency + "_USD"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode}
	}

	var data struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Result struct {
			IndexPrice *float64 `json:"index_price"`
			Timestamp  *int64   `json:"timestamp"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &MalformedResponseError{Message: "undecodable response body"}
	}

	if data.Error != nil {
		msg := data.Error.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &MalformedResponseError{Message: msg}
	}

	if data.Result.IndexPrice == nil || data.Result.Timestamp == nil {
		return nil, &MalformedResponseError{Message: "invalid response format"}
	}

	ts := *data.Result.Timestamp
	if ts > millisThreshold {
		ts /= 1000
	}

	return &IndexPrice{Price: *data.Result.IndexPrice, Timestamp: ts}, nil
}

// Close releases the underlying connection pool.
func (c *DeribitClient) Close() {
	c.httpClient.Close()
}
