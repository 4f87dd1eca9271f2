package service

import (
	"context"
	"strings"

	"github.com/Toni1004/Derbit-JP-Test/internal/external"
	"github.com/Toni1004/Derbit-JP-Test/internal/models"
	"github.com/Toni1004/Derbit-JP-Test/internal/repository"
)

// IndexPriceClient is the slice of the Deribit client the service consumes.
type IndexPriceClient interface {
	GetIndexPrice(ctx context.Context, currency string) (*external.IndexPrice, error)
	Close()
}

// Repository is the slice of the price repository the service consumes.
type Repository interface {
	Insert(ctx context.Context, ticker string, price float64, timestamp int64) (*models.TickerPrice, error)
	ListByTicker(ctx context.Context, ticker string) ([]models.TickerPrice, error)
	LatestByTicker(ctx context.Context, ticker string) (*models.TickerPrice, error)
	RangeByTicker(ctx context.Context, ticker string, start, end *int64) ([]models.TickerPrice, error)
}

var (
	_ IndexPriceClient = (*external.DeribitClient)(nil)
	_ Repository       = (*repository.PriceRepo)(nil)
)

// PriceService is the only caller of both the Deribit client and the price
// repository.
type PriceService struct {
	client IndexPriceClient
	repo   Repository
}

func NewPriceService(client IndexPriceClient, repo Repository) *PriceService {
	return &PriceService{client: client, repo: repo}
}

// FetchAndSave fetches the index price for the currency part of ticker
// (substring before the first underscore, upper-cased) and stores one
// observation under the original ticker string. Client errors propagate
// unchanged.
func (s *PriceService) FetchAndSave(ctx context.Context, ticker string) (*models.TickerPrice, error) {
	currency := strings.ToUpper(strings.SplitN(ticker, "_", 2)[0])

	idx, err := s.client.GetIndexPrice(ctx, currency)
	if err != nil {
		return nil, err
	}

	return s.repo.Insert(ctx, ticker, idx.Price, idx.Timestamp)
}

// GetAllPrices returns every stored observation for ticker, newest first.
func (s *PriceService) GetAllPrices(ctx context.Context, ticker string) ([]models.TickerPrice, error) {
	return s.repo.ListByTicker(ctx, ticker)
}

// GetLatestPrice returns the newest observation for ticker, or nil when
// none is stored.
func (s *PriceService) GetLatestPrice(ctx context.Context, ticker string) (*models.TickerPrice, error) {
	return s.repo.LatestByTicker(ctx, ticker)
}

// GetPriceByDate returns observations within the inclusive [start, end]
// range; either bound may be nil.
func (s *PriceService) GetPriceByDate(ctx context.Context, ticker string, start, end *int64) ([]models.TickerPrice, error) {
	return s.repo.RangeByTicker(ctx, ticker, start, end)
}

// Close releases the client's connection pool. The caller that constructed
// the service is responsible for invoking it.
func (s *PriceService) Close() {
	s.client.Close()
}
