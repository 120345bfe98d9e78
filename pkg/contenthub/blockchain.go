package contenthub

import (
	"context"
	"fmt"
	"strconv"
)

// Methods accepted by Query.
const (
	MethodInfo        = "info"
	MethodMetadata    = "metadata"
	MethodTokens      = "tokens"
	MethodOwnership   = "ownership"
	MethodRights      = "rights"
	MethodOwnerTokens = "ownerTokens"
)

// Query performs one raw tracker call on a named chain. The tracker is
// resolved among those implementing the method's capability.
func (s *service) Query(ctx context.Context, req BlockchainRequest) (_ any, err error) {
	defer s.reportFailure(ctx, "query", &err)
	if req.Chain == "" {
		return nil, missing("chain")
	}
	if NormalizeAddress(req.Address) == "" {
		return nil, missing("address")
	}
	chain, err := ParseChain(req.Chain)
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = MethodInfo
	}
	q := Query{Address: req.Address, Chain: string(chain), TypeHint: req.TypeHint}
	param := func(name string) (string, error) {
		if len(req.Params) == 0 || req.Params[0] == "" {
			return "", missing(name)
		}
		return req.Params[0], nil
	}

	switch method {
	case MethodInfo:
		res, err := s.resolver.Resolve(ctx, q)
		if err != nil {
			return nil, err
		}
		return Merge(s.record(req.Address, res.Candidate.Chain), res.Content(req.Address)), nil

	case MethodMetadata:
		tokenID, err := param("tokenId")
		if err != nil {
			return nil, err
		}
		t, _, err := ResolveAs[MetadataFetcher](ctx, s.resolver, q)
		if err != nil {
			return nil, err
		}
		return callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
			return t.FetchMetadata(ctx, tokenID)
		})

	case MethodTokens:
		opts := TokenListOptions{MaxTokens: s.maxTokens}
		if len(req.Params) > 0 && req.Params[0] != "" {
			n, err := strconv.Atoi(req.Params[0])
			if err != nil || n <= 0 {
				return nil, &ParamError{Param: "maxTokens", Value: req.Params[0], Err: ErrInvalidParam}
			}
			opts.MaxTokens = n
		}
		t, _, err := ResolveAs[TokenLister](ctx, s.resolver, q)
		if err != nil {
			return nil, err
		}
		return callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) ([]string, error) {
			return t.AllTokens(ctx, opts)
		})

	case MethodOwnership:
		tokenID, err := param("tokenId")
		if err != nil {
			return nil, err
		}
		t, _, err := ResolveAs[OwnershipReader](ctx, s.resolver, q)
		if err != nil {
			return nil, err
		}
		return callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
			return t.FetchOwnership(ctx, tokenID)
		})

	case MethodRights:
		tokenID, err := param("tokenId")
		if err != nil {
			return nil, err
		}
		t, _, err := ResolveAs[RightsReader](ctx, s.resolver, q)
		if err != nil {
			return nil, err
		}
		return callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
			return t.FetchRights(ctx, tokenID)
		})

	case MethodOwnerTokens:
		owner, err := param("owner")
		if err != nil {
			return nil, err
		}
		t, _, err := ResolveAs[OwnerTokenLister](ctx, s.resolver, q)
		if err != nil {
			return nil, err
		}
		return callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) ([]string, error) {
			return t.TokensByOwner(ctx, owner)
		})

	default:
		return nil, fmt.Errorf("unknown method %q: %w", method, ErrUnsupportedOperation)
	}
}
