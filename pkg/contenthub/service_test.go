package contenthub_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedao/hub-api/pkg/contenthub"
	trackermem "github.com/pagedao/hub-api/pkg/contenthub/tracker/memory"
)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []contenthub.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []contenthub.Option{},
			expectError: true,
		},
		{
			name: "with tracker factory should succeed",
			options: []contenthub.Option{
				contenthub.WithTrackerFactory(trackermem.New(allTypes...)),
			},
		},
		{
			name: "with registry and directories should succeed",
			options: []contenthub.Option{
				contenthub.WithTrackerFactory(trackermem.New(allTypes...)),
				contenthub.WithRegistry(sampleRegistry()),
				contenthub.WithCollectionDirectory(trackermem.New().Directory(contenthub.ChainBase)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := contenthub.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func setupTestService(t *testing.T, f *trackermem.Factory, options ...contenthub.Option) contenthub.Service {
	t.Helper()
	opts := []contenthub.Option{
		contenthub.WithTrackerFactory(f),
		contenthub.WithLogger(slog.New(slog.DiscardHandler)),
		contenthub.WithCallTimeout(time.Second),
	}
	svc, err := contenthub.New(append(opts, options...)...)
	require.NoError(t, err)
	return svc
}

func TestGetCollection_RegistryHit(t *testing.T) {
	f := trackermem.New(allTypes...)
	f.AddContract(trackermem.Contract{Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, Info: map[string]any{"name": "X"}})
	reg := contenthub.NewRegistry([]contenthub.ContentRecord{{Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook}})
	svc := setupTestService(t, f, contenthub.WithRegistry(reg))

	got, err := svc.GetCollection(context.Background(), "0xAA", "")
	require.NoError(t, err)
	assert.Equal(t, contenthub.Fields{"address": "0xAA", "chain": "base", "type": "book", "name": "X"}, got)
}

func TestGetCollection_Fallbacks(t *testing.T) {
	f := trackermem.New(allTypes...)
	// an encoding no tracker type reads, visible only to the zora directory
	f.AddContract(trackermem.Contract{Address: "0xMM", Chain: contenthub.ChainZora, Type: "magazine", Info: map[string]any{"name": "Monthly"}})
	reg := contenthub.NewRegistry([]contenthub.ContentRecord{{Address: "0xRR", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, Name: "Curated"}})
	svc := setupTestService(t, f,
		contenthub.WithRegistry(reg),
		contenthub.WithCollectionDirectory(f.Directory(contenthub.ChainBase)),
		contenthub.WithCollectionDirectory(f.Directory(contenthub.ChainZora)),
	)
	ctx := context.Background()

	t.Run("collection directory", func(t *testing.T) {
		got, err := svc.GetCollection(ctx, "0xMM", "all")
		require.NoError(t, err)
		assert.Equal(t, "zora", got["chain"])
		assert.Equal(t, "magazine", got["type"])
		assert.Equal(t, "Monthly", got["name"])
	})

	t.Run("registry only", func(t *testing.T) {
		got, err := svc.GetCollection(ctx, "0xRR", "")
		require.NoError(t, err)
		assert.Equal(t, "Curated", got["name"])
		assert.Equal(t, true, got[contenthub.FieldFromRegistry])
		assert.NotEmpty(t, got[contenthub.FieldBlockchainFetchError])
	})

	t.Run("registry record on another chain", func(t *testing.T) {
		_, err := svc.GetCollection(ctx, "0xRR", "zora")
		assert.ErrorIs(t, err, contenthub.ErrNotFound)

		got, err := svc.GetCollection(ctx, "0xRR", "base")
		require.NoError(t, err)
		assert.Equal(t, "Curated", got["name"])
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetCollection(ctx, "0xZZ", "")
		assert.ErrorIs(t, err, contenthub.ErrNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.GetCollection(ctx, "0xAA", "solana")
		assert.ErrorIs(t, err, contenthub.ErrInvalidParam)
		_, err = svc.GetCollection(ctx, "", "")
		assert.ErrorIs(t, err, contenthub.ErrMissingParam)
	})
}

func TestListCollections_DegradedItemsCount(t *testing.T) {
	f := trackermem.New(allTypes...)
	f.AddContract(trackermem.Contract{Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, Info: map[string]any{"name": "X"}})
	f.AddContract(trackermem.Contract{Address: "0xBB", Chain: contenthub.ChainZora, Type: contenthub.TypeNFT, Info: map[string]any{"name": "Zed"}})

	var degraded atomic.Int32
	hooks := &contenthub.Hooks{OnDegraded: []contenthub.DegradedHook{
		func(_ *contenthub.HookContext, op string, item contenthub.DegradedItem) {
			assert.Equal(t, "list_collections", op)
			assert.Equal(t, "0xCC", item.Address)
			degraded.Add(1)
		},
	}}
	svc := setupTestService(t, f, contenthub.WithHooks(hooks), contenthub.WithProbeParallelism(3))

	page, err := svc.ListCollections(context.Background(), contenthub.ListCollectionsRequest{
		Addresses: []string{"0xAA", "0xBB", "0xCC"},
		Page:      contenthub.PageRequest{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, contenthub.Pagination{Total: 3, Limit: 2, Offset: 0, HasMore: true}, page.Pagination)
	// the nameless placeholder sorts first
	assert.True(t, contenthub.IsDegraded(page.Items[0]))
	assert.Equal(t, "X", page.Items[1]["name"])
	assert.Equal(t, int32(1), degraded.Load())
}

func TestListCollections_FromRegistry(t *testing.T) {
	f := trackermem.New(allTypes...)
	f.AddContract(trackermem.Contract{Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, Info: map[string]any{"name": "Live Alpha"}})
	svc := setupTestService(t, f, contenthub.WithRegistry(sampleRegistry()))

	page, err := svc.ListCollections(context.Background(), contenthub.ListCollectionsRequest{Chain: "all"})
	require.NoError(t, err)
	require.Equal(t, 3, page.Pagination.Total)

	// featured record first, with live values over curated ones
	first := page.Items[0]
	assert.Equal(t, "Live Alpha", first["name"])
	assert.Equal(t, true, first["featured"])
	assert.False(t, contenthub.IsDegraded(first))

	// unreachable registry records keep their curated fields
	for _, item := range page.Items[1:] {
		assert.True(t, contenthub.IsDegraded(item))
		assert.Equal(t, true, item[contenthub.FieldFromRegistry])
	}
}

func TestGetCollectionItems(t *testing.T) {
	tokens := []trackermem.Token{
		{ID: "1", Metadata: map[string]any{"title": "One"}},
		{ID: "2", Metadata: map[string]any{"title": "Two"}},
		{ID: "3", Err: "metadata unavailable"},
		{ID: "4", Metadata: map[string]any{"title": "Four"}},
	}
	f := trackermem.New(allTypes...)
	f.AddContract(trackermem.Contract{Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, Tokens: tokens})
	f.AddContract(trackermem.Contract{Address: "0xIO", Chain: contenthub.ChainZora, Type: contenthub.TypeBook, InfoOnly: true, Tokens: tokens})
	svc := setupTestService(t, f, contenthub.WithCollectionDirectory(f.Directory(contenthub.ChainZora)))
	ctx := context.Background()

	t.Run("enumerated by tracker", func(t *testing.T) {
		page, err := svc.GetCollectionItems(ctx, contenthub.CollectionItemsRequest{Address: "0xAA", Page: contenthub.PageRequest{Limit: 2, Offset: 1}})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Two", page.Items[0]["title"])
		assert.Equal(t, "3", page.Items[1]["tokenId"])
		assert.True(t, contenthub.IsDegraded(page.Items[1]))
		assert.Equal(t, contenthub.Pagination{Total: 2, Limit: 2, Offset: 1, HasMore: true}, page.Pagination)
		assert.Equal(t, contenthub.CollectionRef{Address: "0xAA", Chain: contenthub.ChainBase}, page.Collection)
	})

	t.Run("served by directory", func(t *testing.T) {
		page, err := svc.GetCollectionItems(ctx, contenthub.CollectionItemsRequest{Address: "0xIO", Chain: "zora", Page: contenthub.PageRequest{Limit: 10}})
		require.NoError(t, err)
		assert.Len(t, page.Items, 4)
		assert.False(t, page.Pagination.HasMore)
		assert.Equal(t, contenthub.ChainZora, page.Collection.Chain)
	})

	t.Run("unknown on a chain without directory", func(t *testing.T) {
		_, err := svc.GetCollectionItems(ctx, contenthub.CollectionItemsRequest{Address: "0xNONE", Chain: "polygon"})
		assert.ErrorIs(t, err, contenthub.ErrNotFound)
		assert.NotErrorIs(t, err, contenthub.ErrUnsupportedOperation)
	})

	t.Run("unknown on every chain", func(t *testing.T) {
		_, err := svc.GetCollectionItems(ctx, contenthub.CollectionItemsRequest{Address: "0xNONE"})
		assert.ErrorIs(t, err, contenthub.ErrNotFound)
	})
}

func TestGetBook(t *testing.T) {
	f := trackermem.New(contenthub.TypeNFT, contenthub.TypeBook)
	f.AddContract(trackermem.Contract{
		Address: "0xBK", Chain: contenthub.ChainBase, Type: contenthub.TypeBook,
		Info:   map[string]any{"name": "Book"},
		Tokens: []trackermem.Token{{ID: "7", Metadata: map[string]any{"title": "Chapter", "description": "d"}}},
	})
	f.AddContract(trackermem.Contract{
		Address: "0xBK", Chain: contenthub.ChainBase, Type: contenthub.TypeNFT,
		Info: map[string]any{"name": "As NFT"},
	})
	f.AddContract(trackermem.Contract{
		Address: "0xBR", Chain: contenthub.ChainEthereum, Type: contenthub.TypeBook,
		Tokens: []trackermem.Token{{ID: "1", Err: "ipfs gateway timeout"}},
	})
	svc := setupTestService(t, f)
	ctx := context.Background()

	book, err := svc.GetBook(ctx, "0xBK", "")
	require.NoError(t, err)
	// book types come before the factory's own order
	assert.Equal(t, "book", book["type"])
	assert.Equal(t, "Book", book["name"])
	assert.Equal(t, "Chapter", book["title"])
	assert.Equal(t, "7", book["tokenId"])

	book, err = svc.GetBook(ctx, "0xBR", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "ipfs gateway timeout", book[contenthub.FieldMetadataError])
}

func TestListBooks(t *testing.T) {
	f := trackermem.New(contenthub.TypeBook)
	f.AddContract(trackermem.Contract{Address: "0xB1", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, Info: map[string]any{"name": "Beta"}})
	f.AddContract(trackermem.Contract{Address: "0xB2", Chain: contenthub.ChainZora, Type: contenthub.TypeBook, Info: map[string]any{"name": "Alpha"}})
	svc := setupTestService(t, f)
	ctx := context.Background()

	req := contenthub.ListBooksRequest{
		Addresses: []string{"0xB1", "", "0xB2", "0xB3"},
		Chains:    []string{"base", "", "zora"},
		Page:      contenthub.PageRequest{Limit: 10, Offset: 1},
	}
	page, err := svc.ListBooks(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pagination.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha", page.Items[0]["name"])
	assert.Equal(t, "Beta", page.Items[1]["name"])

	featured, err := svc.FeaturedBooks(ctx, req)
	require.NoError(t, err)
	require.Len(t, featured.Items, 3)
	// 0xB3 has no chain of its own and is tried on the first one
	assert.Equal(t, "base", featured.Items[0]["chain"])
	assert.True(t, contenthub.IsDegraded(featured.Items[0]))
	for _, item := range featured.Items {
		assert.Equal(t, true, item["featured"])
	}

	_, err = svc.ListBooks(ctx, contenthub.ListBooksRequest{Addresses: []string{" "}})
	assert.ErrorIs(t, err, contenthub.ErrMissingParam)
	_, err = svc.ListBooks(ctx, contenthub.ListBooksRequest{Addresses: []string{"0xB1"}, Chains: []string{"solana"}})
	assert.ErrorIs(t, err, contenthub.ErrInvalidParam)
}

func authorFixture() *trackermem.Factory {
	f := trackermem.New(allTypes...)
	f.AddAuthor(trackermem.Author{
		Address: "0xAuthor", Chain: contenthub.ChainEthereum,
		Bio: "eth bio", PublicationCount: 3,
		LastPublishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Publications: []map[string]any{
			{"title": "Old", "publishedAt": "2023-01-01"},
			{"title": "Newest", "publishedAt": "2024-05-01T00:00:00Z"},
		},
	})
	f.AddAuthor(trackermem.Author{
		Address: "0xauthor", Chain: contenthub.ChainBase,
		Name: "Base Name", Bio: "base bio", PublicationCount: 5,
		LastPublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Publications: []map[string]any{
			{"title": "Middle", "publishedAt": float64(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli())},
		},
	})
	f.AddAuthor(trackermem.Author{
		Address: "0xQuiet", Chain: contenthub.ChainBase, Name: "Quiet",
	})
	return f
}

func authorService(t *testing.T) contenthub.Service {
	f := authorFixture()
	return setupTestService(t, f,
		contenthub.WithAuthorDirectory(f.Directory(contenthub.ChainEthereum)),
		contenthub.WithAuthorDirectory(f.Directory(contenthub.ChainBase)),
	)
}

func TestGetAuthor_UnionAcrossChains(t *testing.T) {
	svc := authorService(t)

	profile, err := svc.GetAuthor(context.Background(), "0xAuthor")
	require.NoError(t, err)
	assert.Equal(t, []contenthub.Chain{contenthub.ChainEthereum, contenthub.ChainBase}, profile.Chains)
	assert.Equal(t, "Base Name", profile.Name)
	assert.Equal(t, "eth bio", profile.Bio)
	assert.Equal(t, 8, profile.TotalPublications)
	assert.Equal(t, 2024, profile.LastPublishedAt.Year())
	assert.Equal(t, time.May, profile.LastPublishedAt.Month())

	_, err = svc.GetAuthor(context.Background(), "0xNobody")
	assert.ErrorIs(t, err, contenthub.ErrNotFound)
}

func TestListAuthors(t *testing.T) {
	svc := authorService(t)

	page, err := svc.ListAuthors(context.Background(), contenthub.ListAuthorsRequest{
		Addresses: []string{"0xQuiet", "0xNobody", "0xAuthor"},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, "0xAuthor", page.Items[0]["address"])
	assert.Equal(t, []string{"ethereum", "base"}, page.Items[0]["chains"])

	degraded := 0
	for _, item := range page.Items {
		if contenthub.IsDegraded(item) {
			degraded++
			assert.Equal(t, "0xNobody", item["address"])
		}
	}
	assert.Equal(t, 1, degraded)
}

func TestGetAuthorPublications(t *testing.T) {
	svc := authorService(t)

	page, err := svc.GetAuthorPublications(context.Background(), "0xAuthor", contenthub.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, contenthub.AuthorSummary{Address: "0xAuthor", PublicationCount: 3}, page.Author)
	assert.Equal(t, contenthub.Pagination{Total: 3, Limit: 2, Offset: 0, HasMore: true}, page.Pagination)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Newest", page.Items[0]["title"])
	assert.Equal(t, "ethereum", page.Items[0]["chain"])
	assert.Equal(t, "Middle", page.Items[1]["title"])
	assert.Equal(t, "base", page.Items[1]["chain"])
}

func TestMergeAuthorRecords(t *testing.T) {
	_, ok := contenthub.MergeAuthorRecords("0xA", []*contenthub.AuthorRecord{nil, nil})
	assert.False(t, ok)

	p, ok := contenthub.MergeAuthorRecords("0xA", []*contenthub.AuthorRecord{
		{Chain: contenthub.ChainZora, Social: contenthub.Fields{"x": "@a"}, PublicationCount: 1},
		nil,
		{Chain: contenthub.ChainZora, Name: "A", Social: contenthub.Fields{"x": "@b"}, PublicationCount: 2},
	})
	require.True(t, ok)
	assert.Equal(t, []contenthub.Chain{contenthub.ChainZora}, p.Chains)
	assert.Equal(t, "A", p.Name)
	assert.Equal(t, "@a", p.Social["x"])
	assert.Equal(t, 3, p.TotalPublications)
}
