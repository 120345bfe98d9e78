package contenthub

import (
	"context"
	"strings"
)

// BookTypes are tried before any other type when resolving a book.
var BookTypes = []ContentType{TypeBook, TypeAlexandriaBook}

// GetBook resolves a book and enriches its collection info with the
// metadata of its first token.
func (s *service) GetBook(ctx context.Context, address, chain string) (_ Fields, err error) {
	defer s.reportFailure(ctx, "get_book", &err)
	if NormalizeAddress(address) == "" {
		return nil, missing("address")
	}
	res, err := s.resolver.Resolve(ctx, Query{Address: address, Chain: chain, PreferredTypes: BookTypes})
	if err != nil {
		return nil, err
	}

	rc := res.Content(address)
	if catalog, ok := res.Tracker.(TokenCatalog); ok {
		rc.Info = s.firstTokenInfo(ctx, catalog, res.Info)
	}
	return Merge(s.record(address, res.Candidate.Chain), rc), nil
}

// firstTokenInfo overlays the first token's metadata on info. The book is
// still served when the token read fails.
func (s *service) firstTokenInfo(ctx context.Context, catalog TokenCatalog, info Fields) Fields {
	out := info.Clone()
	ids, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) ([]string, error) {
		return catalog.AllTokens(ctx, TokenListOptions{MaxTokens: 1})
	})
	if err != nil {
		out[FieldMetadataError] = err.Error()
		return out
	}
	if len(ids) == 0 {
		return out
	}
	md, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (Fields, error) {
		return catalog.FetchMetadata(ctx, ids[0])
	})
	if err != nil {
		out[FieldMetadataError] = err.Error()
		return out
	}
	for k, v := range md {
		out[k] = v
	}
	out[FieldTokenID] = ids[0]
	return out
}

// ListBooks aggregates books into an exactly counted page.
func (s *service) ListBooks(ctx context.Context, req ListBooksRequest) (*Page, error) {
	var (
		addresses []string
		chains    []Chain
	)
	for i, a := range req.Addresses {
		if strings.TrimSpace(a) == "" {
			continue
		}
		c, err := ParseChain(chainFor(req.Chains, i))
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, strings.TrimSpace(a))
		chains = append(chains, c)
	}
	if len(addresses) == 0 {
		return nil, missing("addresses")
	}

	items := make([]Fields, len(addresses))
	s.each(ctx, len(addresses), func(ctx context.Context, i int) {
		book, err := s.GetBook(ctx, addresses[i], string(chains[i]))
		if err != nil {
			items[i] = s.degrade(ctx, "list_books", addresses[i], chains[i], err)
			return
		}
		items[i] = book
	})

	SortFeaturedByName(items)
	page := PaginateEnumerated(items, req.Page)
	return &page, nil
}

// FeaturedBooks returns the first page of the given books, each marked
// featured.
func (s *service) FeaturedBooks(ctx context.Context, req ListBooksRequest) (*Page, error) {
	req.Page.Offset = 0
	page, err := s.ListBooks(ctx, req)
	if err != nil {
		return nil, err
	}
	for i, item := range page.Items {
		out := item.Clone()
		out[FieldFeatured] = true
		page.Items[i] = out
	}
	return page, nil
}

// chainFor returns the chain paired with the i-th address.
func chainFor(chains []string, i int) string {
	if i < len(chains) && strings.TrimSpace(chains[i]) != "" {
		return chains[i]
	}
	if len(chains) > 0 && strings.TrimSpace(chains[0]) != "" {
		return chains[0]
	}
	return string(DefaultChain)
}
