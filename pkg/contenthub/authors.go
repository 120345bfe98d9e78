package contenthub

import (
	"context"
	"fmt"
)

// GetAuthor unions the author's records from every author directory.
// Directory order decides chain order and which non-empty scalar wins.
func (s *service) GetAuthor(ctx context.Context, address string) (*AuthorProfile, error) {
	if NormalizeAddress(address) == "" {
		return nil, missing("address")
	}
	dirs := s.authors

	records := make([]*AuthorRecord, len(dirs))
	s.each(ctx, len(dirs), func(ctx context.Context, i int) {
		rec, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*AuthorRecord, error) {
			return dirs[i].AuthorByAddress(ctx, address)
		})
		if err != nil {
			s.logger.DebugContext(ctx, "Author lookup failed", "address", address, "chain", dirs[i].Chain(), "error", err)
			return
		}
		if rec == nil {
			return
		}
		r := *rec
		if r.Chain == "" {
			r.Chain = dirs[i].Chain()
		}
		records[i] = &r
	})

	profile, ok := MergeAuthorRecords(address, records)
	if !ok {
		return nil, fmt.Errorf("author %s: %w", address, ErrNotFound)
	}
	return profile, nil
}

// MergeAuthorRecords folds per-chain records, in order, into one profile.
// Nil records are skipped; ok is false when none remain.
func MergeAuthorRecords(address string, records []*AuthorRecord) (*AuthorProfile, bool) {
	p := &AuthorProfile{Address: address, Chains: []Chain{}}
	found := false
	for _, rec := range records {
		if rec == nil {
			continue
		}
		found = true
		if !containsChain(p.Chains, rec.Chain) {
			p.Chains = append(p.Chains, rec.Chain)
		}
		p.Name = firstNonEmpty(p.Name, rec.Name)
		p.Bio = firstNonEmpty(p.Bio, rec.Bio)
		p.Avatar = firstNonEmpty(p.Avatar, rec.Avatar)
		p.Website = firstNonEmpty(p.Website, rec.Website)
		if len(p.Social) == 0 && len(rec.Social) > 0 {
			p.Social = rec.Social
		}
		p.TotalPublications += rec.PublicationCount
		if rec.LastPublishedAt.After(p.LastPublishedAt) {
			p.LastPublishedAt = rec.LastPublishedAt
		}
	}
	return p, found
}

func firstNonEmpty(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}

// ListAuthors aggregates author profiles, newest activity first.
func (s *service) ListAuthors(ctx context.Context, req ListAuthorsRequest) (*Page, error) {
	var addresses []string
	for _, a := range req.Addresses {
		if NormalizeAddress(a) != "" {
			addresses = append(addresses, a)
		}
	}
	if len(addresses) == 0 {
		return nil, missing("addresses")
	}

	items := make([]Fields, len(addresses))
	s.each(ctx, len(addresses), func(ctx context.Context, i int) {
		profile, err := s.GetAuthor(ctx, addresses[i])
		if err != nil {
			item := DegradedItem{Address: addresses[i], Err: err}
			s.hooks.executeOnDegraded(ctx, "list_authors", item)
			items[i] = item.Fields()
			return
		}
		items[i] = profile.Fields()
	})

	SortByPublishedDesc(items)
	page := PaginateEnumerated(items, req.Page)
	return &page, nil
}

// GetAuthorPublications gathers an author's publications from every
// directory, newest first.
func (s *service) GetAuthorPublications(ctx context.Context, address string, req PageRequest) (*PublicationsPage, error) {
	if NormalizeAddress(address) == "" {
		return nil, missing("address")
	}
	dirs := s.authors

	perDir := make([][]Fields, len(dirs))
	s.each(ctx, len(dirs), func(ctx context.Context, i int) {
		pubs, err := callWithTimeout(ctx, s.callTimeout, func(ctx context.Context) ([]Fields, error) {
			return dirs[i].ContentByAuthor(ctx, address)
		})
		if err != nil {
			s.logger.DebugContext(ctx, "Publication lookup failed", "address", address, "chain", dirs[i].Chain(), "error", err)
			return
		}
		perDir[i] = pubs
	})

	var all []Fields
	for _, pubs := range perDir {
		all = append(all, pubs...)
	}
	SortByPublishedDesc(all)

	return &PublicationsPage{
		Page:   PaginateEnumerated(all, req),
		Author: AuthorSummary{Address: address, PublicationCount: len(all)},
	}, nil
}
