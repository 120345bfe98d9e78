package contenthub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Defaults applied by New.
const (
	DefaultConcurrency = 4
	DefaultMaxTokens   = 100
	DefaultChain       = ChainEthereum
)

// service implements the Service interface
type service struct {
	registry      *Registry
	factory       TrackerFactory
	authors       []AuthorDirectory
	collections   []CollectionDirectory
	history       HistoryStore
	hooks         *Hooks
	tracer        trace.Tracer
	logger        *slog.Logger
	callTimeout   time.Duration
	parallelism   int
	concurrency   int
	maxTokens     int
	fallbackTypes []ContentType
	now           func() time.Time

	resolver *Resolver
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRegistry sets the curated registry used as a hint source and for merges
func WithRegistry(r *Registry) Option {
	return func(s *service) {
		s.registry = r
	}
}

// WithTrackerFactory sets the factory that builds trackers
func WithTrackerFactory(f TrackerFactory) Option {
	return func(s *service) {
		s.factory = f
	}
}

// WithAuthorDirectory adds an author directory. Directories are queried in
// the order they are added.
func WithAuthorDirectory(d AuthorDirectory) Option {
	return func(s *service) {
		s.authors = append(s.authors, d)
	}
}

// WithCollectionDirectory adds a collection directory. Directories are
// queried in the order they are added.
func WithCollectionDirectory(d CollectionDirectory) Option {
	return func(s *service) {
		s.collections = append(s.collections, d)
	}
}

// WithHistoryStore sets the store read by History
func WithHistoryStore(h HistoryStore) Option {
	return func(s *service) {
		s.history = h
	}
}

// WithCallTimeout bounds every adapter call, probes included
func WithCallTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithProbeParallelism sets how many candidates are probed at once
func WithProbeParallelism(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithConcurrency sets how many items of an aggregation run at once
func WithConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMaxTokens caps token enumeration
func WithMaxTokens(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithFallbackTypes replaces the convention based fallback types
func WithFallbackTypes(types ...ContentType) Option {
	return func(s *service) {
		s.fallbackTypes = types
	}
}

// WithHooks adds observation hooks
func WithHooks(h *Hooks) Option {
	return func(s *service) {
		s.hooks.Merge(h)
	}
}

// WithTracer sets the OpenTelemetry tracer
func WithTracer(t trace.Tracer) Option {
	return func(s *service) {
		s.tracer = t
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for history periods
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		hooks:         &Hooks{},
		logger:        slog.Default(),
		callTimeout:   DefaultCallTimeout,
		parallelism:   1,
		concurrency:   DefaultConcurrency,
		maxTokens:     DefaultMaxTokens,
		fallbackTypes: DefaultFallbackTypes,
		now:           time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.factory == nil {
		return nil, fmt.Errorf("tracker factory is required")
	}

	planner := NewPlanner(s.registry, s.factory.RegisteredTypes(), s.fallbackTypes)
	s.resolver = NewResolver(planner, NewProber(s.factory, s.callTimeout),
		WithParallelism(s.parallelism),
		WithResolverHooks(s.hooks),
		WithResolverTracer(s.tracer),
	)

	return s, nil
}

// Resolution operations

func (s *service) Resolve(ctx context.Context, q Query) (*Resolution, error) {
	return s.resolver.Resolve(ctx, q)
}

func (s *service) Plan(q Query) ([]Candidate, error) {
	return s.resolver.Plan(q)
}

func (s *service) Registry() *Registry {
	return s.registry
}

// Helpers

// each runs fn for every index with bounded concurrency. fn reports failures
// through its own result slot, so one item never cancels another.
func (s *service) each(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// reportFailure passes *errp to the OnError hooks unless it is an expected
// outcome: not found, a rejected parameter or an unsupported operation.
func (s *service) reportFailure(ctx context.Context, operation string, errp *error) {
	err := *errp
	if err == nil || isExpected(err) {
		return
	}
	s.hooks.executeOnError(ctx, operation, err)
}

func isExpected(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidParam) ||
		errors.Is(err, ErrMissingParam) ||
		errors.Is(err, ErrUnsupportedOperation)
}

// record returns the registry record merged into a result for address on
// chain.
func (s *service) record(address string, chain Chain) *ContentRecord {
	rec, ok := s.registry.Find(address, chain)
	if !ok {
		return nil
	}
	return &rec
}

// degrade builds the placeholder for a failed list item. A registry record
// keeps its curated fields.
func (s *service) degrade(ctx context.Context, operation, address string, chain Chain, err error) Fields {
	item := DegradedItem{Address: address, Chain: chain, Err: err}
	s.hooks.executeOnDegraded(ctx, operation, item)
	if rec := s.record(address, chain); rec != nil {
		return degradedFromRegistry(*rec, err)
	}
	return item.Fields()
}

func (s *service) collectionDirectories(scope []Chain) []CollectionDirectory {
	var out []CollectionDirectory
	for _, d := range s.collections {
		if containsChain(scope, d.Chain()) {
			out = append(out, d)
		}
	}
	return out
}

func containsChain(chains []Chain, c Chain) bool {
	for _, x := range chains {
		if x == c {
			return true
		}
	}
	return false
}
