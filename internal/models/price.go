package models

// TickerPrice is one stored index-price observation.
// Timestamp is UNIX epoch seconds as reported by the source.
type TickerPrice struct {
	ID        int64   `json:"id"`
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}
