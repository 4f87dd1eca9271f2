package httputil

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Client wraps http.Client with a tuned, reusable transport. Connections
// are pooled across calls and released with Close.
type Client struct {
	HTTP *http.Client
}

func NewPooled(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}}
}

// Do performs a single attempt with the request bound to ctx.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.HTTP.Do(req.WithContext(ctx))
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.HTTP.CloseIdleConnections()
}
