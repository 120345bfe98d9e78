package registrysource_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedao/hub-api/pkg/contenthub"
	"github.com/pagedao/hub-api/pkg/contenthub/registrysource"
)

func TestDecode(t *testing.T) {
	records, err := registrysource.Decode([]byte(`[{"address": "0xAA", "type": "book", "name": "Alpha", "featured": true, "author": "Ann"}, {"address": "0xBB", "type": "nft", "chain": "zora"}]`), contenthub.ChainBase)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Alpha", records[0].Name)
	assert.True(t, records[0].Featured)
	assert.Equal(t, "Ann", records[0].Extra["author"])
	// the document's chain wins
	assert.Equal(t, contenthub.ChainBase, records[1].Chain)

	records, err = registrysource.Decode([]byte("- address: \"0xCC\"\n  type: publication\n"), contenthub.ChainZora)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, contenthub.TypePublication, records[0].Type)

	_, err = registrysource.Decode([]byte(`[{"type": "book"}]`), contenthub.ChainBase)
	assert.ErrorIs(t, err, contenthub.ErrInvalidParam)

	_, err = registrysource.Decode([]byte(`{not an array`), contenthub.ChainBase)
	assert.Error(t, err)
}

func documents(docs map[contenthub.Chain]string) registrysource.FetchFunc {
	return func(ctx context.Context, chain contenthub.Chain) ([]byte, error) {
		doc, ok := docs[chain]
		if !ok {
			return nil, registrysource.ErrNoDocument
		}
		return []byte(doc), nil
	}
}

func TestCollect(t *testing.T) {
	fetch := documents(map[contenthub.Chain]string{
		contenthub.ChainZora: `[{"address": "0xZZ", "type": "nft"}]`,
		contenthub.ChainBase: `[{"address": "0xAA", "type": "book"}]`,
	})
	ctx := context.Background()

	all, err := registrysource.Collect(ctx, "all", fetch)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "0xAA", all[0].Address, "chain priority order")

	one, err := registrysource.Collect(ctx, "zora", fetch)
	require.NoError(t, err)
	require.Len(t, one, 1)

	none, err := registrysource.Collect(ctx, "polygon", fetch)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = registrysource.Collect(ctx, "solana", fetch)
	assert.ErrorIs(t, err, contenthub.ErrInvalidParam)
}

type flakySource struct {
	failures int
	calls    int
	err      error
}

func (f *flakySource) GetContracts(ctx context.Context, chain string) ([]contenthub.ContentRecord, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []contenthub.ContentRecord{{Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook}}, nil
}

func TestLoad_RetriesTransientFailures(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	src := &flakySource{failures: 2, err: errors.New("connection reset")}
	reg, err := registrysource.Load(context.Background(), src, 10*time.Second, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 3, src.calls)

	bad := &flakySource{failures: 5, err: contenthub.ErrInvalidParam}
	_, err = registrysource.Load(context.Background(), bad, 10*time.Second, logger)
	assert.ErrorIs(t, err, contenthub.ErrInvalidParam)
	assert.Equal(t, 1, bad.calls)
}
