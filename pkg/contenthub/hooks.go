package contenthub

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Hook system lets callers observe resolution and aggregation without
// changing their outcome. Hooks may run concurrently and must not block.

// Hooks defines all available observation points
type Hooks struct {
	// AfterProbe runs once per probed candidate
	AfterProbe []ProbeHook

	// AfterResolve runs when a resolution finishes, successfully or not
	AfterResolve []ResolveHook

	// OnDegraded runs when an aggregated item is replaced by a placeholder
	OnDegraded []DegradedHook

	// OnError runs for unexpected operation failures
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]any
	StopChain bool
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]any),
	}
}

// ProbeHook is called after a candidate was probed
type ProbeHook func(hctx *HookContext, address string, result ProbeResult)

// ResolveHook is called after a resolution; res is nil when err is set
type ResolveHook func(hctx *HookContext, q Query, res *Resolution, err error, elapsed time.Duration)

// DegradedHook is called when an item degrades during an aggregation
type DegradedHook func(hctx *HookContext, operation string, item DegradedItem)

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, operation string, err error)

// Merge appends every hook of other to h.
func (h *Hooks) Merge(other *Hooks) {
	if other == nil {
		return
	}
	h.AfterProbe = append(h.AfterProbe, other.AfterProbe...)
	h.AfterResolve = append(h.AfterResolve, other.AfterResolve...)
	h.OnDegraded = append(h.OnDegraded, other.OnDegraded...)
	h.OnError = append(h.OnError, other.OnError...)
}

func (h *Hooks) executeAfterProbe(ctx context.Context, address string, result ProbeResult) {
	if h == nil || len(h.AfterProbe) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterProbe {
		hook(hctx, address, result)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterResolve(ctx context.Context, q Query, res *Resolution, err error, elapsed time.Duration) {
	if h == nil || len(h.AfterResolve) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterResolve {
		hook(hctx, q, res, err, elapsed)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeOnDegraded(ctx context.Context, operation string, item DegradedItem) {
	if h == nil || len(h.OnDegraded) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnDegraded {
		hook(hctx, operation, item)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// LoggingHook logs probes at debug level and degradations at warn level
func LoggingHook(logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{
		AfterProbe: []ProbeHook{
			func(hctx *HookContext, address string, r ProbeResult) {
				if r.OK() {
					logger.DebugContext(hctx.Context, "Probe succeeded", "address", address, "chain", r.Candidate.Chain, "type", r.Candidate.Type, "source", r.Candidate.Source.String())
					return
				}
				logger.DebugContext(hctx.Context, "Probe failed", "address", address, "chain", r.Candidate.Chain, "type", r.Candidate.Type, "error", r.Err)
			},
		},
		OnDegraded: []DegradedHook{
			func(hctx *HookContext, operation string, item DegradedItem) {
				logger.WarnContext(hctx.Context, "Item degraded", "operation", operation, "address", item.Address, "chain", item.Chain, "error", item.Err)
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, operation string, err error) {
				logger.ErrorContext(hctx.Context, "Operation failed", "operation", operation, "error", err)
			},
		},
	}
}

// MetricsHook feeds probe and resolution outcomes to a metrics recorder
func MetricsHook(metrics interface {
	ObserveProbe(chain Chain, contentType ContentType, ok bool, elapsed time.Duration)
	ObserveResolution(outcome string, elapsed time.Duration)
	IncDegraded(operation string)
}) *Hooks {
	return &Hooks{
		AfterProbe: []ProbeHook{
			func(hctx *HookContext, address string, r ProbeResult) {
				metrics.ObserveProbe(r.Candidate.Chain, r.Candidate.Type, r.OK(), r.Elapsed)
			},
		},
		AfterResolve: []ResolveHook{
			func(hctx *HookContext, q Query, res *Resolution, err error, elapsed time.Duration) {
				outcome := "resolved"
				switch {
				case errors.Is(err, ErrNotFound):
					outcome = "not_found"
				case err != nil:
					outcome = "error"
				}
				metrics.ObserveResolution(outcome, elapsed)
			},
		},
		OnDegraded: []DegradedHook{
			func(hctx *HookContext, operation string, item DegradedItem) {
				metrics.IncDegraded(operation)
			},
		},
	}
}
