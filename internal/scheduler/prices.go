package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Toni1004/Derbit-JP-Test/internal/broker"
	"github.com/Toni1004/Derbit-JP-Test/internal/models"
	"github.com/Toni1004/Derbit-JP-Test/internal/service"
)

// TaskName identifies the periodic fetch job in the tick ledger.
const TaskName = "fetch_and_save_prices"

const (
	defaultInterval = 60 * time.Second
	tickHardLimit   = 30 * time.Second
	tickSoftLimit   = 25 * time.Second

	// Shorter than the interval so a crashed holder cannot block the
	// next period.
	lockTTL = 55 * time.Second
)

// DefaultTickers is the fixed set of pairs the worker polls.
var DefaultTickers = []string{"BTC_USD", "ETH_USD"}

// Fetcher is the slice of the price service the scheduler needs.
type Fetcher interface {
	FetchAndSave(ctx context.Context, ticker string) (*models.TickerPrice, error)
}

// TickBroker records tick state and arbitrates between scheduler instances.
type TickBroker interface {
	RecordTick(ctx context.Context, res broker.TickResult) error
	AcquireTickLock(ctx context.Context, ttl time.Duration) (bool, error)
}

// Notifier delivers tick-failure alerts.
type Notifier interface {
	Send(msg string)
	Enabled() bool
}

var (
	_ Fetcher    = (*service.PriceService)(nil)
	_ TickBroker = (*broker.Redis)(nil)
)

var log = logrus.WithField("component", "scheduler")

type PriceSchedulerConfig struct {
	Interval time.Duration // e.g. 60*time.Second
	Tickers  []string
}

// PriceScheduler runs the fetch-and-save job for every configured ticker
// on a fixed interval. Broker and notifier are optional; without a broker
// tick state is logged only.
type PriceScheduler struct {
	svc    Fetcher
	broker TickBroker
	notify Notifier
	cfg    PriceSchedulerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewPriceScheduler(svc Fetcher, tb TickBroker, notify Notifier, cfg PriceSchedulerConfig) *PriceScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if len(cfg.Tickers) == 0 {
		cfg.Tickers = DefaultTickers
	}
	return &PriceScheduler{
		svc:    svc,
		broker: tb,
		notify: notify,
		cfg:    cfg,
	}
}

func (s *PriceScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn("already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	// Initial tick on startup, then the recurring schedule.
	go func() {
		if err := s.RunTick(context.Background()); err != nil {
			log.Errorf("initial tick failed: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				if err := s.RunTick(context.Background()); err != nil {
					log.Errorf("tick failed: %v", err)
				}
			}
		}
	}()

	log.Infof("started (every %s, tickers %v)", s.cfg.Interval, s.cfg.Tickers)
}

func (s *PriceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	log.Info("stopped")
}

func (s *PriceScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunTick executes one tick: both fetches sequentially under the hard
// deadline, with a warning once the soft limit passes. The first failed
// fetch aborts the remainder of the tick; the next tick proceeds on
// schedule regardless.
func (s *PriceScheduler) RunTick(parent context.Context) error {
	startedAt := time.Now().UTC()

	if s.broker != nil {
		ok, err := s.broker.AcquireTickLock(parent, lockTTL)
		if err != nil {
			log.Warnf("tick lock unavailable, proceeding without it: %v", err)
		} else if !ok {
			log.Warn("another scheduler instance holds the tick lock, skipping tick")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(parent, tickHardLimit)
	defer cancel()

	soft := time.AfterFunc(tickSoftLimit, func() {
		log.Warnf("tick exceeded soft time limit (%s)", tickSoftLimit)
	})
	defer soft.Stop()

	s.record(parent, broker.TickResult{
		Task:      TaskName,
		State:     broker.StateStarted,
		StartedAt: startedAt,
	})

	var priceIDs []int64
	for _, ticker := range s.cfg.Tickers {
		p, err := s.svc.FetchAndSave(ctx, ticker)
		if err != nil {
			err = fmt.Errorf("fetch %s: %w", ticker, err)
			s.record(parent, broker.TickResult{
				Task:       TaskName,
				State:      broker.StateFailure,
				StartedAt:  startedAt,
				FinishedAt: time.Now().UTC(),
				DurationMS: time.Since(startedAt).Milliseconds(),
				PriceIDs:   priceIDs,
				Error:      err.Error(),
			})
			if s.notify != nil && s.notify.Enabled() {
				s.notify.Send(fmt.Sprintf("price tick failed: %v", err))
			}
			return err
		}
		priceIDs = append(priceIDs, p.ID)
		log.WithFields(logrus.Fields{
			"ticker":    p.Ticker,
			"price":     p.Price,
			"timestamp": p.Timestamp,
		}).Info("stored observation")
	}

	s.record(parent, broker.TickResult{
		Task:       TaskName,
		State:      broker.StateSuccess,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		DurationMS: time.Since(startedAt).Milliseconds(),
		PriceIDs:   priceIDs,
	})
	return nil
}

// FetchNow triggers a tick outside the normal schedule.
func (s *PriceScheduler) FetchNow(ctx context.Context) error {
	log.Info("manual tick triggered")
	return s.RunTick(ctx)
}

// record writes tick state to the broker; broker failures never interrupt
// the fetch loop.
func (s *PriceScheduler) record(ctx context.Context, res broker.TickResult) {
	if s.broker == nil {
		return
	}
	if err := s.broker.RecordTick(ctx, res); err != nil {
		log.Warnf("record tick state: %v", err)
	}
}
