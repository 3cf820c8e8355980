package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSweepInterval = 5 * time.Minute
	// defaultRetainWindows — сколько полных окон запись остаётся в таблице
	// после начала своего окна, прежде чем её можно удалить.
	defaultRetainWindows = 3
)

var (
	sweeperRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commande_rate_limit_sweeps_total",
		Help: "Total number of rate limit sweep runs.",
	})
	sweeperEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commande_rate_limit_evicted_total",
		Help: "Total number of stale rate limit entries evicted.",
	})
)

// SweeperOptions задаёт параметры фоновой очистки таблицы limiter'а.
type SweeperOptions struct {
	Logger        *log.Entry
	Interval      time.Duration
	RetainWindows int
}

// SweeperOption настраивает Sweeper.
type SweeperOption func(*SweeperOptions)

// WithLogger задаёт logger для sweeper'а.
func WithLogger(logger *log.Entry) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между циклами очистки.
func WithInterval(interval time.Duration) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.Interval = interval
	}
}

// WithRetainWindows задаёт, сколько окон запись переживает до удаления.
func WithRetainWindows(n int) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.RetainWindows = n
	}
}

// Sweeper периодически удаляет устаревшие записи из таблицы limiter'а,
// ограничивая её рост: сам limiter записи никогда не удаляет.
type Sweeper struct {
	limiter  *Limiter
	logger   *log.Entry
	interval time.Duration
	retain   int
}

// NewSweeper создаёт sweeper для limiter'а.
func NewSweeper(limiter *Limiter, options ...SweeperOption) *Sweeper {
	opts := SweeperOptions{
		Interval:      defaultSweepInterval,
		RetainWindows: defaultRetainWindows,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "rate-limit-sweeper")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultSweepInterval
	}
	if opts.RetainWindows <= 0 {
		opts.RetainWindows = defaultRetainWindows
	}

	return &Sweeper{
		limiter:  limiter,
		logger:   logger,
		interval: opts.Interval,
		retain:   opts.RetainWindows,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (s *Sweeper) Run(ctx context.Context) {
	if s.limiter == nil {
		s.logger.Warn("rate limit sweeper is disabled: limiter is nil")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Sweeper) sweep(now time.Time) {
	cutoff := now.Add(-time.Duration(s.retain) * s.limiter.Window())
	evicted := s.limiter.SweepBefore(cutoff)

	sweeperRunsTotal.Inc()
	if evicted > 0 {
		sweeperEvictedTotal.Add(float64(evicted))
		s.logger.WithField("evicted", evicted).Info("rate limit sweep completed")
	}
}
