package contenthub

import (
	"context"
	"fmt"
	"strings"
)

// NFT defaults.
const (
	MaxBatchSize          = 20
	RepresentativeTokenID = "1"
	DefaultAssetType      = TypeNFT
	UnknownCollectionName = "Unknown Collection"
	FieldOwnership        = "ownership"
	FieldOwnershipError   = "_ownershipFetchError"
	ownerField            = "owner"
)

// normalize applies the NFT defaults and validates the request.
func (r NFTRequest) normalize() (NFTRequest, Chain, error) {
	if NormalizeAddress(r.Contract) == "" {
		return r, "", missing("contract")
	}
	if r.AssetType == "" {
		r.AssetType = DefaultAssetType
	}
	if r.Chain == "" {
		r.Chain = string(DefaultChain)
	}
	chain, err := ParseChain(r.Chain)
	if err != nil {
		return r, "", err
	}
	if chain == "" {
		return r, "", &ParamError{Param: "chain", Value: r.Chain, Err: ErrInvalidParam}
	}
	return r, chain, nil
}

func (r NFTRequest) query(chain Chain) Query {
	return Query{Address: r.Contract, Chain: string(chain), TypeHint: r.AssetType}
}

// TokenMetadata reads one token, optionally with its ownership record.
func (s *service) TokenMetadata(ctx context.Context, req TokenRequest) (_ Fields, err error) {
	defer s.reportFailure(ctx, "token_metadata", &err)
	nreq, chain, err := req.NFTRequest.normalize()
	if err != nil {
		return nil, err
	}
	if req.TokenID == "" {
		return nil, missing("tokenId")
	}
	t, _, err := ResolveAs[MetadataFetcher](ctx, s.resolver, nreq.query(chain))
	if err != nil {
		return nil, err
	}
	return s.tokenMetadata(ctx, t, req.TokenID, req.IncludeOwnership)
}

func (s *service) tokenMetadata(ctx context.Context, t MetadataFetcher, tokenID string, includeOwnership bool) (Fields, error) {
	md, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
		return t.FetchMetadata(ctx, tokenID)
	})
	if err != nil {
		return nil, err
	}
	out := md.Clone()
	out[FieldTokenID] = tokenID
	if !includeOwnership {
		return out, nil
	}

	reader, ok := t.(OwnershipReader)
	if !ok {
		out[FieldOwnershipError] = ErrCapabilityMissing.Error()
		return out, nil
	}
	ownership, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
		return reader.FetchOwnership(ctx, tokenID)
	})
	if err != nil {
		out[FieldOwnershipError] = err.Error()
		return out, nil
	}
	out[FieldOwnership] = ownership
	return out, nil
}

// BatchMetadata reads up to MaxBatchSize tokens of one contract. Failed
// tokens stay in the result as placeholders.
func (s *service) BatchMetadata(ctx context.Context, req BatchRequest) (_ *BatchResult, err error) {
	defer s.reportFailure(ctx, "batch_metadata", &err)
	nreq, chain, err := req.NFTRequest.normalize()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, id := range req.TokenIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, missing("tokenIds")
	}
	requested := len(ids)
	if len(ids) > MaxBatchSize {
		ids = ids[:MaxBatchSize]
	}

	t, _, err := ResolveAs[MetadataFetcher](ctx, s.resolver, nreq.query(chain))
	if err != nil {
		return nil, err
	}

	items := make([]Fields, len(ids))
	s.each(ctx, len(ids), func(ctx context.Context, i int) {
		md, err := s.tokenMetadata(ctx, t, ids[i], req.IncludeOwnership)
		if err != nil {
			s.hooks.executeOnDegraded(ctx, "batch_metadata", DegradedItem{Address: nreq.Contract, Chain: chain, Err: err})
			items[i] = Fields{
				FieldTokenID:     ids[i],
				FieldError:       err.Error(),
				FieldFetchFailed: true,
			}
			return
		}
		items[i] = md
	})

	return &BatchResult{
		ContractAddress: nreq.Contract,
		Chain:           chain,
		AssetType:       nreq.AssetType,
		Items:           items,
		Count:           len(items),
		Request:         BatchCounts{Requested: requested, Processed: len(ids)},
	}, nil
}

// TokensForOwner lists the tokens an owner holds in one contract.
func (s *service) TokensForOwner(ctx context.Context, req OwnerRequest) (_ []string, err error) {
	defer s.reportFailure(ctx, "tokens_for_owner", &err)
	nreq, chain, err := req.NFTRequest.normalize()
	if err != nil {
		return nil, err
	}
	if NormalizeAddress(req.Owner) == "" {
		return nil, missing("owner")
	}
	t, _, err := ResolveAs[OwnerTokenLister](ctx, s.resolver, nreq.query(chain))
	if err != nil {
		return nil, err
	}
	tokens, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) ([]string, error) {
		return t.TokensByOwner(ctx, req.Owner)
	})
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = []string{}
	}
	return tokens, nil
}

// CheckOwnership reports whether owner holds the token. Addresses compare
// case-insensitively.
func (s *service) CheckOwnership(ctx context.Context, req OwnershipCheckRequest) (_ bool, err error) {
	defer s.reportFailure(ctx, "check_ownership", &err)
	nreq, chain, err := req.NFTRequest.normalize()
	if err != nil {
		return false, err
	}
	if req.TokenID == "" {
		return false, missing("tokenId")
	}
	if NormalizeAddress(req.Owner) == "" {
		return false, missing("address")
	}
	t, _, err := ResolveAs[OwnershipReader](ctx, s.resolver, nreq.query(chain))
	if err != nil {
		return false, err
	}
	ownership, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
		return t.FetchOwnership(ctx, req.TokenID)
	})
	if err != nil {
		return false, err
	}
	return ownedBy(ownership, req.Owner), nil
}

// ownedBy matches owner against the "owner" field, or any entry of an
// "owners" list for multi-holder tokens.
func ownedBy(ownership Fields, owner string) bool {
	want := NormalizeAddress(owner)
	if NormalizeAddress(ownership.String(ownerField)) == want {
		return true
	}
	switch owners := ownership["owners"].(type) {
	case []string:
		for _, o := range owners {
			if NormalizeAddress(o) == want {
				return true
			}
		}
	case []any:
		for _, o := range owners {
			if s, ok := o.(string); ok && NormalizeAddress(s) == want {
				return true
			}
		}
	}
	return false
}

// CollectionSummary describes a contract from the metadata of a
// representative token.
func (s *service) CollectionSummary(ctx context.Context, req NFTRequest) (_ Fields, err error) {
	defer s.reportFailure(ctx, "collection_summary", &err)
	nreq, chain, err := req.normalize()
	if err != nil {
		return nil, err
	}
	t, _, err := ResolveAs[MetadataFetcher](ctx, s.resolver, nreq.query(chain))
	if err != nil {
		return nil, err
	}
	md, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
		return t.FetchMetadata(ctx, RepresentativeTokenID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection info: %w", err)
	}

	summary := Fields{
		FieldName:         orDefault(md.String(FieldTitle), UnknownCollectionName),
		"description":     md.String("description"),
		"contractAddress": nreq.Contract,
		FieldChain:        string(chain),
		"assetType":       string(nreq.AssetType),
		"imageURI":        md.String("imageURI"),
		"creator":         md.String("creator"),
		"symbol":          "",
		"format":          orDefault(md.String("format"), string(TypeNFT)),
		"collectionData": Fields{
			"representativeTokenId":  RepresentativeTokenID,
			"representativeMetadata": md,
		},
	}
	switch extra := md["additionalData"].(type) {
	case Fields:
		summary["symbol"] = extra.String("symbol")
	case map[string]any:
		summary["symbol"] = Fields(extra).String("symbol")
	}
	for _, key := range []string{"totalSupply", "maxSupply"} {
		if v, ok := md[key]; ok && v != nil {
			summary[key] = v
		}
	}
	return summary, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
