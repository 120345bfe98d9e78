package contenthub

import (
	"context"
	"time"
)

// Tracker is a handle on one contract, read as one content type on one
// chain. CollectionInfo doubles as the validation read of a probe.
type Tracker interface {
	Address() string
	Chain() Chain
	ContentType() ContentType

	// CollectionInfo returns collection level metadata
	CollectionInfo(ctx context.Context) (Fields, error)
}

// MetadataFetcher reads token metadata.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, tokenID string) (Fields, error)
}

// TokenLister enumerates token IDs of a collection.
type TokenLister interface {
	AllTokens(ctx context.Context, opts TokenListOptions) ([]string, error)
}

// OwnershipReader reads the ownership record of a token.
type OwnershipReader interface {
	FetchOwnership(ctx context.Context, tokenID string) (Fields, error)
}

// RightsReader reads the rights record of a token.
type RightsReader interface {
	FetchRights(ctx context.Context, tokenID string) (Fields, error)
}

// OwnerTokenLister lists the tokens held by an owner.
type OwnerTokenLister interface {
	TokensByOwner(ctx context.Context, owner string) ([]string, error)
}

// TokenCatalog is a tracker whose tokens can be enumerated and read.
type TokenCatalog interface {
	Tracker
	TokenLister
	MetadataFetcher
}

// TrackerFactory instantiates trackers. NewTracker must be cheap and free of
// side effects; it only fails when the combination cannot be represented.
type TrackerFactory interface {
	// RegisteredTypes returns the content types the factory knows, in
	// registration order
	RegisteredTypes() []ContentType

	// NewTracker returns an unvalidated handle
	NewTracker(address string, contentType ContentType, chain Chain) (Tracker, error)
}

// AuthorDirectory is a chain level adapter able to look up authors.
type AuthorDirectory interface {
	Chain() Chain

	// AuthorByAddress returns nil, nil when the author is unknown on this chain
	AuthorByAddress(ctx context.Context, address string) (*AuthorRecord, error)

	// ContentByAuthor lists the author's publications on this chain
	ContentByAuthor(ctx context.Context, address string) ([]Fields, error)
}

// CollectionDirectory is a chain level adapter able to look up collections.
type CollectionDirectory interface {
	Chain() Chain

	// CollectionByAddress returns nil, nil when the collection is unknown
	CollectionByAddress(ctx context.Context, address string) (Fields, error)

	// CollectionItems returns one window of a collection's items
	CollectionItems(ctx context.Context, address string, limit, offset int) ([]Fields, error)
}

// RegistrySource loads curated records. chain is a chain name or "all".
type RegistrySource interface {
	GetContracts(ctx context.Context, chain string) ([]ContentRecord, error)
}

// DataPoint is one historical price sample.
type DataPoint struct {
	ID        string             `json:"id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Prices    map[string]float64 `json:"prices"`
	ETHPrice  float64            `json:"ethPrice"`
}

// HistoryStore is an externally owned, bounded buffer of data points. Append
// evicts the oldest point once capacity is reached.
type HistoryStore interface {
	Append(ctx context.Context, point DataPoint) error
	// Query returns points newer than since, oldest first. A zero since
	// returns everything.
	Query(ctx context.Context, since time.Time) ([]DataPoint, error)
	Capacity() int
}

// PriceSource supplies the samples recorded by a HistorySampler.
type PriceSource interface {
	FetchPrices(ctx context.Context) (DataPoint, error)
}
