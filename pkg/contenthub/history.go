package contenthub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// History sampling defaults. 144 samples at 10 minute intervals cover one day.
const (
	DefaultHistoryCapacity = 144
	DefaultSampleInterval  = 10 * time.Minute
)

// HistoryPeriods maps the accepted period names to their window.
var HistoryPeriods = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// DefaultHistoryPeriod is used when a request names none.
const DefaultHistoryPeriod = "24h"

// HistorySampler records PriceSource samples into a HistoryStore.
type HistorySampler struct {
	store    HistoryStore
	source   PriceSource
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	observe  func(error)
}

// NewHistorySampler returns a sampler. A non-positive interval selects
// DefaultSampleInterval.
func NewHistorySampler(store HistoryStore, source PriceSource, interval time.Duration, logger *slog.Logger) *HistorySampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistorySampler{store: store, source: source, interval: interval, logger: logger, now: time.Now}
}

// OnSample registers fn to receive the outcome of every sample taken by Run.
func (h *HistorySampler) OnSample(fn func(error)) *HistorySampler {
	h.observe = fn
	return h
}

func (h *HistorySampler) sample(ctx context.Context) error {
	err := h.Sample(ctx)
	if h.observe != nil {
		h.observe(err)
	}
	return err
}

// Sample fetches one data point and appends it.
func (h *HistorySampler) Sample(ctx context.Context) error {
	point, err := h.source.FetchPrices(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch prices: %w", err)
	}
	if point.ID == "" {
		point.ID = uuid.NewString()
	}
	if point.Timestamp.IsZero() {
		point.Timestamp = h.now().UTC()
	}
	if err := h.store.Append(ctx, point); err != nil {
		return fmt.Errorf("failed to append data point: %w", err)
	}
	return nil
}

// Run samples immediately and then on every tick until ctx is done. Failed
// samples are logged and skipped.
func (h *HistorySampler) Run(ctx context.Context) error {
	if err := h.sample(ctx); err != nil {
		h.logger.ErrorContext(ctx, "Initial history sample failed", "error", err)
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := h.sample(ctx); err != nil {
				h.logger.ErrorContext(ctx, "History sample failed", "error", err)
				continue
			}
			h.logger.DebugContext(ctx, "History updated")
		}
	}
}

// History serves the stored price series. When the period window holds no
// points everything stored is returned instead.
func (s *service) History(ctx context.Context, req HistoryRequest) (_ *HistorySeries, err error) {
	defer s.reportFailure(ctx, "history", &err)
	if s.history == nil {
		return nil, fmt.Errorf("history store not configured: %w", ErrUnsupportedOperation)
	}
	period := req.Period
	if period == "" {
		period = DefaultHistoryPeriod
	}
	chain := req.Chain
	if chain == "" {
		chain = ChainAll
	}

	var since time.Time
	if d, ok := HistoryPeriods[period]; ok {
		since = s.now().Add(-d)
	}
	points, err := s.history.Query(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	if len(points) == 0 && !since.IsZero() {
		if points, err = s.history.Query(ctx, time.Time{}); err != nil {
			return nil, fmt.Errorf("failed to query history: %w", err)
		}
	}

	series := &HistorySeries{Period: period, DataPoints: make([]Fields, 0, len(points))}
	if chain != ChainAll {
		series.Chain = chain
	}
	for _, p := range points {
		series.DataPoints = append(series.DataPoints, historyPoint(p, series.Chain))
	}
	return series, nil
}

// historyPoint renders p for one series, or every series when chain is empty.
func historyPoint(p DataPoint, chain string) Fields {
	out := Fields{"timestamp": p.Timestamp.UnixMilli()}
	if chain != "" {
		if v, ok := p.Prices[chain]; ok {
			out["price"] = v
		} else {
			out["price"] = nil
		}
		return out
	}
	for name, v := range p.Prices {
		out[name] = v
	}
	out["ethPrice"] = p.ETHPrice
	return out
}
