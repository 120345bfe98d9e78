package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedao/hub-api/pkg/contenthub"
	"github.com/pagedao/hub-api/pkg/contenthub/history/memory"
)

func point(ts time.Time, eth float64) contenthub.DataPoint {
	return contenthub.DataPoint{Timestamp: ts, Prices: map[string]float64{"ethereum": eth}, ETHPrice: 3000}
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	ctx := context.Background()
	store := memory.New(3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, point(base.Add(time.Duration(i)*time.Minute), float64(i))))
	}

	points, err := store.Query(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 2.0, points[0].Prices["ethereum"])
	assert.Equal(t, 4.0, points[2].Prices["ethereum"])
	assert.Equal(t, 3, store.Capacity())
}

func TestStore_QuerySince(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	assert.Equal(t, contenthub.DefaultHistoryCapacity, store.Capacity())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, point(base, 1)))
	require.NoError(t, store.Append(ctx, point(base.Add(2*time.Hour), 2)))

	points, err := store.Query(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Prices["ethereum"])
}

func TestStore_AppendCopiesPrices(t *testing.T) {
	ctx := context.Background()
	store := memory.New(10)
	p := point(time.Now(), 1)
	require.NoError(t, store.Append(ctx, p))

	p.Prices["ethereum"] = 99

	points, err := store.Query(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, points[0].Prices["ethereum"])
}
