package contenthub

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// Resolution is a successful resolution: the first validating candidate of
// the plan, its tracker and its validation read.
type Resolution struct {
	Tracker   Tracker
	Candidate Candidate
	Info      Fields
	// Failures lists the candidates abandoned before the winner, in plan order
	Failures []*ProbeError
}

// Content returns the resolved content before merging.
func (r *Resolution) Content(address string) ResolvedContent {
	return ResolvedContent{
		Address: address,
		Chain:   r.Candidate.Chain,
		Type:    r.Candidate.Type,
		Info:    r.Info,
	}
}

// Resolver evaluates candidate plans.
type Resolver struct {
	planner     *Planner
	prober      *Prober
	parallelism int
	hooks       *Hooks
	tracer      trace.Tracer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithParallelism probes up to n candidates of a plan at once. The winner is
// still the earliest validating candidate in plan order.
func WithParallelism(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithResolverHooks attaches observation hooks.
func WithResolverHooks(h *Hooks) ResolverOption {
	return func(r *Resolver) {
		r.hooks = h
	}
}

// WithResolverTracer records one span per resolution.
func WithResolverTracer(t trace.Tracer) ResolverOption {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewResolver returns a sequential Resolver unless configured otherwise.
func NewResolver(planner *Planner, prober *Prober, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		planner:     planner,
		prober:      prober,
		parallelism: 1,
		tracer:      noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan exposes the candidate order for q.
func (r *Resolver) Plan(q Query) ([]Candidate, error) {
	return r.planner.Plan(q)
}

// Resolve returns the first candidate of q's plan that validates. When none
// does the error is a *ResolutionError, which matches ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Resolution, error) {
	return r.resolve(ctx, q, nil)
}

// ResolveAs resolves q among trackers implementing T, usually one of the
// capability interfaces. Trackers lacking T are not candidates and never reach
// validation.
func ResolveAs[T any](ctx context.Context, r *Resolver, q Query) (T, *Resolution, error) {
	var zero T
	res, err := r.resolve(ctx, q, func(t Tracker) bool {
		_, ok := t.(T)
		return ok
	})
	if err != nil {
		return zero, nil, err
	}
	return res.Tracker.(T), res, nil
}

func (r *Resolver) resolve(ctx context.Context, q Query, accept func(Tracker) bool) (*Resolution, error) {
	start := time.Now()
	plan, err := r.planner.Plan(q)
	if err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "contenthub.resolve", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("content.address", q.Address),
		attribute.String("content.chain_hint", q.Chain),
		attribute.String("content.type_hint", string(q.TypeHint)),
		attribute.Int("content.candidates", len(plan)),
	)

	res, err := r.evaluate(ctx, q.Address, plan, accept)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("content.chain", string(res.Candidate.Chain)),
			attribute.String("content.type", string(res.Candidate.Type)),
			attribute.Int("content.attempts", len(res.Failures)+1),
		)
		span.SetStatus(codes.Ok, "")
	}
	r.hooks.executeAfterResolve(ctx, q, res, err, time.Since(start))
	return res, err
}

// evaluate probes plan in windows of r.parallelism candidates. Each window is
// inspected in plan order, so arrival order never decides a tie.
func (r *Resolver) evaluate(ctx context.Context, address string, plan []Candidate, accept func(Tracker) bool) (*Resolution, error) {
	var failures []*ProbeError
	for i := 0; i < len(plan); i += r.parallelism {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		window := plan[i:min(i+r.parallelism, len(plan))]
		results := r.probeWindow(ctx, address, window, accept)

		for _, result := range results {
			r.hooks.executeAfterProbe(ctx, address, result)
		}
		for _, result := range results {
			if result.OK() {
				return &Resolution{
					Tracker:   result.Tracker,
					Candidate: result.Candidate,
					Info:      result.Info,
					Failures:  failures,
				}, nil
			}
			if pe, ok := result.Err.(*ProbeError); ok {
				failures = append(failures, pe)
			} else {
				failures = append(failures, &ProbeError{Address: address, Candidate: result.Candidate, Err: result.Err})
			}
		}
	}
	return nil, &ResolutionError{Address: address, Attempts: failures}
}

func (r *Resolver) probeWindow(ctx context.Context, address string, window []Candidate, accept func(Tracker) bool) []ProbeResult {
	results := make([]ProbeResult, len(window))
	if len(window) == 1 {
		results[0] = r.prober.probe(ctx, address, window[0], accept)
		return results
	}
	var g errgroup.Group
	for j, c := range window {
		g.Go(func() error {
			results[j] = r.prober.probe(ctx, address, c, accept)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
