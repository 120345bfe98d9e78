package contenthub

import (
	"context"
	"errors"
	"fmt"
)

// GetCollection resolves one collection. When no tracker validates, the
// collection directories are asked in chain order, then the registry record
// is served on its own before giving up.
func (s *service) GetCollection(ctx context.Context, address, chain string) (_ Fields, err error) {
	defer s.reportFailure(ctx, "get_collection", &err)
	if NormalizeAddress(address) == "" {
		return nil, missing("address")
	}
	scope, err := Scope(chain)
	if err != nil {
		return nil, err
	}
	explicit, _ := ParseChain(chain)

	res, err := s.resolver.Resolve(ctx, Query{Address: address, Chain: chain})
	if err == nil {
		return Merge(s.record(address, res.Candidate.Chain), res.Content(address)), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if info, c, ok := s.findInDirectories(ctx, address, scope); ok {
		return Merge(s.record(address, c), ResolvedContent{Address: address, Chain: c, Info: info}), nil
	}

	// a named chain only serves its own record
	rec, ok := s.registry.Lookup(address)
	if explicit != "" {
		rec, ok = s.registry.LookupOnChain(address, explicit)
	}
	if ok {
		s.logger.WarnContext(ctx, "Serving collection from registry only", "address", address, "chain", rec.Chain, "error", err)
		return MergeFailed(rec, err), nil
	}
	return nil, err
}

// findInDirectories returns the first directory answer for address.
func (s *service) findInDirectories(ctx context.Context, address string, scope []Chain) (Fields, Chain, bool) {
	for _, dir := range s.collectionDirectories(scope) {
		info, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
			return dir.CollectionByAddress(ctx, address)
		})
		if err != nil {
			s.logger.DebugContext(ctx, "Collection directory lookup failed", "address", address, "chain", dir.Chain(), "error", err)
			continue
		}
		if info != nil {
			return info, dir.Chain(), true
		}
	}
	return nil, "", false
}

// ListCollections aggregates collections into an exactly counted page.
func (s *service) ListCollections(ctx context.Context, req ListCollectionsRequest) (*Page, error) {
	if _, err := ParseChain(req.Chain); err != nil {
		return nil, err
	}

	type input struct {
		address string
		chain   string
	}
	var inputs []input
	if len(req.Addresses) > 0 {
		for _, a := range req.Addresses {
			if NormalizeAddress(a) == "" {
				continue
			}
			inputs = append(inputs, input{address: a, chain: req.Chain})
		}
	} else {
		for _, rec := range s.registry.ListByChain(req.Chain) {
			inputs = append(inputs, input{address: rec.Address, chain: string(rec.Chain)})
		}
	}

	items := make([]Fields, len(inputs))
	s.each(ctx, len(inputs), func(ctx context.Context, i int) {
		in := inputs[i]
		res, err := s.resolver.Resolve(ctx, Query{Address: in.address, Chain: in.chain})
		if err != nil {
			c, _ := ParseChain(in.chain)
			items[i] = s.degrade(ctx, "list_collections", in.address, c, err)
			return
		}
		items[i] = Merge(s.record(in.address, res.Candidate.Chain), res.Content(in.address))
	})

	SortFeaturedByName(items)
	page := PaginateEnumerated(items, req.Page)
	return &page, nil
}

// GetCollectionItems pages through the tokens of one collection. A tracker
// that can enumerate and read tokens is used directly; otherwise the chain's
// collection directory serves the window. Neither source knows the true
// total, so the page reports what came back.
func (s *service) GetCollectionItems(ctx context.Context, req CollectionItemsRequest) (_ *CollectionItemsPage, err error) {
	defer s.reportFailure(ctx, "get_collection_items", &err)
	if NormalizeAddress(req.Address) == "" {
		return nil, missing("address")
	}
	scope, err := Scope(req.Chain)
	if err != nil {
		return nil, err
	}
	page := req.Page.Normalize()

	res, resolveErr := s.resolver.Resolve(ctx, Query{Address: req.Address, Chain: req.Chain})
	if resolveErr == nil {
		if catalog, ok := res.Tracker.(TokenCatalog); ok {
			items, err := s.tokenWindow(ctx, catalog, page)
			if err == nil {
				return &CollectionItemsPage{
					Page:       PaginateReturned(items, page),
					Collection: CollectionRef{Address: req.Address, Chain: res.Candidate.Chain},
				}, nil
			}
			s.logger.WarnContext(ctx, "Token enumeration failed, trying collection directory", "address", req.Address, "chain", res.Candidate.Chain, "error", err)
		}
		scope = []Chain{res.Candidate.Chain}
	} else if !errors.Is(resolveErr, ErrNotFound) {
		return nil, resolveErr
	}

	chain, dir, err := s.itemsDirectory(ctx, req.Address, scope)
	if err != nil {
		if resolveErr != nil {
			return nil, resolveErr
		}
		return nil, err
	}
	items, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) ([]Fields, error) {
		return dir.CollectionItems(ctx, req.Address, page.Limit, page.Offset)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items of %s on %s: %w", req.Address, chain, err)
	}
	return &CollectionItemsPage{
		Page:       PaginateReturned(items, page),
		Collection: CollectionRef{Address: req.Address, Chain: chain},
	}, nil
}

// itemsDirectory picks the directory serving a collection's items. With one
// chain in scope that chain's directory is used; otherwise the chain is the
// first one whose directory knows the collection.
func (s *service) itemsDirectory(ctx context.Context, address string, scope []Chain) (Chain, CollectionDirectory, error) {
	dirs := s.collectionDirectories(scope)
	if len(scope) == 1 {
		if len(dirs) == 0 {
			return "", nil, fmt.Errorf("no collection directory for %s: %w", scope[0], ErrUnsupportedOperation)
		}
		return scope[0], dirs[0], nil
	}
	_, chain, ok := s.findInDirectories(ctx, address, scope)
	if !ok {
		return "", nil, fmt.Errorf("collection %s not found on any chain: %w", address, ErrNotFound)
	}
	for _, d := range dirs {
		if d.Chain() == chain {
			return chain, d, nil
		}
	}
	return "", nil, fmt.Errorf("collection %s not found on any chain: %w", address, ErrNotFound)
}

// tokenWindow enumerates token IDs up to the token ceiling and reads the
// metadata of the requested window. A failed read becomes an inline
// placeholder for that token.
func (s *service) tokenWindow(ctx context.Context, catalog TokenCatalog, page PageRequest) ([]Fields, error) {
	ids, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) ([]string, error) {
		return catalog.AllTokens(ctx, TokenListOptions{MaxTokens: s.maxTokens})
	})
	if err != nil {
		return nil, err
	}
	if len(ids) > s.maxTokens {
		ids = ids[:s.maxTokens]
	}
	start := min(page.Offset, len(ids))
	end := min(start+page.Limit, len(ids))
	window := ids[start:end]

	items := make([]Fields, len(window))
	s.each(ctx, len(window), func(ctx context.Context, i int) {
		items[i] = s.tokenItem(ctx, catalog, window[i])
	})
	return items, nil
}

func (s *service) tokenItem(ctx context.Context, f MetadataFetcher, tokenID string) Fields {
	md, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
		return f.FetchMetadata(ctx, tokenID)
	})
	if err != nil {
		s.hooks.executeOnDegraded(ctx, "token_metadata", DegradedItem{Address: tokenID, Err: err})
		return Fields{
			FieldTokenID:     tokenID,
			FieldError:       err.Error(),
			FieldFetchFailed: true,
		}
	}
	out := md.Clone()
	out[FieldTokenID] = tokenID
	return out
}
