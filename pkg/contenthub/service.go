package contenthub

import (
	"context"
)

// Service is the main interface that clients interact with
type Service interface {
	// Resolution
	Resolve(ctx context.Context, q Query) (*Resolution, error)
	Plan(q Query) ([]Candidate, error)
	Registry() *Registry

	// Collection operations
	GetCollection(ctx context.Context, address, chain string) (Fields, error)
	ListCollections(ctx context.Context, req ListCollectionsRequest) (*Page, error)
	GetCollectionItems(ctx context.Context, req CollectionItemsRequest) (*CollectionItemsPage, error)

	// Book operations
	GetBook(ctx context.Context, address, chain string) (Fields, error)
	ListBooks(ctx context.Context, req ListBooksRequest) (*Page, error)
	FeaturedBooks(ctx context.Context, req ListBooksRequest) (*Page, error)

	// Author operations
	GetAuthor(ctx context.Context, address string) (*AuthorProfile, error)
	ListAuthors(ctx context.Context, req ListAuthorsRequest) (*Page, error)
	GetAuthorPublications(ctx context.Context, address string, page PageRequest) (*PublicationsPage, error)

	// Raw tracker access
	Query(ctx context.Context, req BlockchainRequest) (any, error)

	// NFT operations
	TokenMetadata(ctx context.Context, req TokenRequest) (Fields, error)
	BatchMetadata(ctx context.Context, req BatchRequest) (*BatchResult, error)
	TokensForOwner(ctx context.Context, req OwnerRequest) ([]string, error)
	CheckOwnership(ctx context.Context, req OwnershipCheckRequest) (bool, error)
	CollectionSummary(ctx context.Context, req NFTRequest) (Fields, error)

	// Price history
	History(ctx context.Context, req HistoryRequest) (*HistorySeries, error)
}

// Request/Response types

// ListCollectionsRequest lists explicit addresses, or the registry's records
// for Chain when Addresses is empty.
type ListCollectionsRequest struct {
	Chain     string
	Addresses []string
	Page      PageRequest
}

// CollectionItemsRequest pages through one collection.
type CollectionItemsRequest struct {
	Address string
	Chain   string
	Page    PageRequest
}

// ListBooksRequest pairs addresses with chains by position. An address
// without its own chain uses the first chain, or ethereum.
type ListBooksRequest struct {
	Addresses []string
	Chains    []string
	Page      PageRequest
}

// ListAuthorsRequest lists author profiles.
type ListAuthorsRequest struct {
	Addresses []string
	Page      PageRequest
}

// BlockchainRequest is a raw tracker call.
type BlockchainRequest struct {
	Chain    string
	Address  string
	Method   string
	Params   []string
	TypeHint ContentType
}

// NFTRequest addresses one contract read as AssetType on Chain.
type NFTRequest struct {
	Contract  string
	Chain     string
	AssetType ContentType
}

// TokenRequest reads one token.
type TokenRequest struct {
	NFTRequest
	TokenID          string
	IncludeOwnership bool
}

// BatchRequest reads up to MaxBatchSize tokens.
type BatchRequest struct {
	NFTRequest
	TokenIDs         []string
	IncludeOwnership bool
}

// BatchCounts reports how much of a batch was served.
type BatchCounts struct {
	Requested int `json:"requested"`
	Processed int `json:"processed"`
}

// BatchResult is the answer to a BatchRequest.
type BatchResult struct {
	ContractAddress string      `json:"contractAddress"`
	Chain           Chain       `json:"chain"`
	AssetType       ContentType `json:"assetType"`
	Items           []Fields    `json:"items"`
	Count           int         `json:"count"`
	Request         BatchCounts `json:"request"`
}

// OwnerRequest lists an owner's tokens.
type OwnerRequest struct {
	NFTRequest
	Owner string
}

// OwnershipCheckRequest asks whether Owner holds TokenID.
type OwnershipCheckRequest struct {
	NFTRequest
	TokenID string
	Owner   string
}

// HistoryRequest selects a chain ("all" for every series) and a period.
type HistoryRequest struct {
	Chain  string
	Period string
}

// HistorySeries is the answer to a HistoryRequest.
type HistorySeries struct {
	Chain      string   `json:"chain,omitempty"`
	Period     string   `json:"period"`
	DataPoints []Fields `json:"dataPoints"`
}
