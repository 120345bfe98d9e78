package contenthub

import (
	"context"
	"fmt"
	"time"
)

// DefaultCallTimeout bounds every individual adapter call.
const DefaultCallTimeout = 8 * time.Second

// ProbeResult is the outcome of probing one candidate. Exactly one of Tracker
// and Err is set.
type ProbeResult struct {
	Candidate Candidate
	Tracker   Tracker
	Info      Fields
	Err       error
	Elapsed   time.Duration
}

// OK reports whether the candidate validated.
func (r ProbeResult) OK() bool {
	return r.Err == nil && r.Tracker != nil
}

// Prober instantiates and validates trackers.
type Prober struct {
	factory TrackerFactory
	timeout time.Duration
}

// NewProber returns a Prober using timeout for the validation read. A
// non-positive timeout selects DefaultCallTimeout.
func NewProber(factory TrackerFactory, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Prober{factory: factory, timeout: timeout}
}

// Probe builds a tracker for the candidate and validates it with one
// CollectionInfo read. It never retries.
func (p *Prober) Probe(ctx context.Context, address string, c Candidate) ProbeResult {
	return p.probe(ctx, address, c, nil)
}

// probe is Probe with a capability filter applied after construction. A
// rejected tracker fails with ErrCapabilityMissing and is never validated.
func (p *Prober) probe(ctx context.Context, address string, c Candidate, accept func(Tracker) bool) ProbeResult {
	start := time.Now()
	res := ProbeResult{Candidate: c}

	tracker, err := safeNewTracker(p.factory, address, c)
	if err == nil && accept != nil && !accept(tracker) {
		err = fmt.Errorf("%w: %T", ErrCapabilityMissing, tracker)
	}
	if err != nil {
		res.Err = &ProbeError{Address: address, Candidate: c, Err: err}
		res.Elapsed = time.Since(start)
		return res
	}

	info, err := callWithTimeout(ctx, p.timeout, tracker.CollectionInfo)
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = &ProbeError{Address: address, Candidate: c, Err: err}
		return res
	}
	if info == nil {
		info = Fields{}
	}
	res.Tracker = tracker
	res.Info = info
	return res
}

// safeNewTracker converts a panicking constructor into a probe failure.
func safeNewTracker(f TrackerFactory, address string, c Candidate) (t Tracker, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("tracker construction panicked: %v", r)
		}
	}()
	t, err = f.NewTracker(address, c.Type, c.Chain)
	if err == nil && t == nil {
		err = fmt.Errorf("factory returned no tracker")
	}
	return t, err
}

// callWithTimeout runs fn under a deadline and stops waiting once it passes,
// even when fn ignores its context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("adapter call panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return zero, fmt.Errorf("%w after %s", ErrProbeTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}
