package contenthub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTracker struct {
	address string
	chain   Chain
	kind    ContentType
	info    func(ctx context.Context) (Fields, error)
}

func (s *stubTracker) Address() string          { return s.address }
func (s *stubTracker) Chain() Chain             { return s.chain }
func (s *stubTracker) ContentType() ContentType { return s.kind }
func (s *stubTracker) CollectionInfo(ctx context.Context) (Fields, error) {
	return s.info(ctx)
}

type stubFactory struct {
	newTracker func(address string, t ContentType, c Chain) (Tracker, error)
}

func (f stubFactory) RegisteredTypes() []ContentType { return []ContentType{TypeBook} }
func (f stubFactory) NewTracker(address string, t ContentType, c Chain) (Tracker, error) {
	return f.newTracker(address, t, c)
}

func infoFactory(info func(ctx context.Context) (Fields, error)) stubFactory {
	return stubFactory{newTracker: func(address string, t ContentType, c Chain) (Tracker, error) {
		return &stubTracker{address: address, chain: c, kind: t, info: info}, nil
	}}
}

var bookOnBase = Candidate{Chain: ChainBase, Type: TypeBook}

func TestProbe_Success(t *testing.T) {
	p := NewProber(infoFactory(func(ctx context.Context) (Fields, error) {
		return Fields{"name": "X"}, nil
	}), time.Second)

	res := p.Probe(context.Background(), "0xAA", bookOnBase)
	require.True(t, res.OK())
	assert.Equal(t, "X", res.Info.String("name"))
	assert.Equal(t, bookOnBase, res.Candidate)
}

func TestProbe_NilInfoIsEmpty(t *testing.T) {
	p := NewProber(infoFactory(func(ctx context.Context) (Fields, error) { return nil, nil }), time.Second)

	res := p.Probe(context.Background(), "0xAA", bookOnBase)
	require.True(t, res.OK())
	assert.NotNil(t, res.Info)
}

func TestProbe_ValidationFailure(t *testing.T) {
	boom := errors.New("execution reverted")
	p := NewProber(infoFactory(func(ctx context.Context) (Fields, error) { return nil, boom }), time.Second)

	res := p.Probe(context.Background(), "0xAA", bookOnBase)
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, boom)
	var pe *ProbeError
	require.ErrorAs(t, res.Err, &pe)
	assert.Equal(t, bookOnBase, pe.Candidate)
}

func TestProbe_StalledAdapterTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := NewProber(infoFactory(func(ctx context.Context) (Fields, error) {
		// ignores ctx on purpose
		<-release
		return Fields{}, nil
	}), 20*time.Millisecond)

	start := time.Now()
	res := p.Probe(context.Background(), "0xAA", bookOnBase)
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrProbeTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProbe_ConstructionFailures(t *testing.T) {
	panicking := stubFactory{newTracker: func(string, ContentType, Chain) (Tracker, error) {
		panic("bad abi")
	}}
	res := NewProber(panicking, time.Second).Probe(context.Background(), "0xAA", bookOnBase)
	assert.False(t, res.OK())
	assert.Contains(t, res.Err.Error(), "bad abi")

	empty := stubFactory{newTracker: func(string, ContentType, Chain) (Tracker, error) { return nil, nil }}
	res = NewProber(empty, time.Second).Probe(context.Background(), "0xAA", bookOnBase)
	assert.False(t, res.OK())
}

func TestProbe_CapabilityFilterSkipsValidation(t *testing.T) {
	called := false
	p := NewProber(infoFactory(func(ctx context.Context) (Fields, error) {
		called = true
		return Fields{}, nil
	}), time.Second)

	res := p.probe(context.Background(), "0xAA", bookOnBase, func(Tracker) bool { return false })
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrCapabilityMissing)
	assert.False(t, called)
}

func TestCallWithTimeout_RecoversPanics(t *testing.T) {
	_, err := callWithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
		panic("nil pointer")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestCallWithTimeout_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := callWithTimeout(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
