package memory

import (
	"context"
	"sort"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Directory is the author and collection directory of one chain.
type Directory struct {
	factory *Factory
	chain   contenthub.Chain
}

// Directory returns the directory serving chain.
func (f *Factory) Directory(chain contenthub.Chain) *Directory {
	return &Directory{factory: f, chain: chain}
}

// Directories returns one directory per chain, in the given order.
func (f *Factory) Directories(chains ...contenthub.Chain) []*Directory {
	out := make([]*Directory, len(chains))
	for i, c := range chains {
		out[i] = f.Directory(c)
	}
	return out
}

func (d *Directory) Chain() contenthub.Chain { return d.chain }

// AuthorByAddress returns nil, nil for unknown authors.
func (d *Directory) AuthorByAddress(ctx context.Context, address string) (*contenthub.AuthorRecord, error) {
	d.factory.mu.RLock()
	defer d.factory.mu.RUnlock()

	a, ok := d.factory.authors[d.chain][contenthub.NormalizeAddress(address)]
	if !ok {
		return nil, nil
	}
	rec := a.record()
	rec.Chain = d.chain
	return rec, nil
}

func (d *Directory) ContentByAuthor(ctx context.Context, address string) ([]contenthub.Fields, error) {
	d.factory.mu.RLock()
	defer d.factory.mu.RUnlock()

	a, ok := d.factory.authors[d.chain][contenthub.NormalizeAddress(address)]
	if !ok {
		return []contenthub.Fields{}, nil
	}
	out := make([]contenthub.Fields, len(a.Publications))
	for i, p := range a.Publications {
		pub := contenthub.Fields(p).Clone()
		pub[contenthub.FieldChain] = string(d.chain)
		out[i] = pub
	}
	return out, nil
}

// CollectionByAddress returns the collection info of the first contract at
// address on this chain, taking content types in name order.
func (d *Directory) CollectionByAddress(ctx context.Context, address string) (contenthub.Fields, error) {
	c := d.contract(address)
	if c == nil {
		return nil, nil
	}
	info := contenthub.Fields(c.Info).Clone()
	info[contenthub.FieldAddress] = c.Address
	info[contenthub.FieldChain] = string(d.chain)
	info[contenthub.FieldType] = string(c.Type)
	return info, nil
}

func (d *Directory) CollectionItems(ctx context.Context, address string, limit, offset int) ([]contenthub.Fields, error) {
	c := d.contract(address)
	if c == nil {
		return []contenthub.Fields{}, nil
	}
	start := min(max(offset, 0), len(c.Tokens))
	end := min(start+limit, len(c.Tokens))
	out := make([]contenthub.Fields, 0, end-start)
	for _, tok := range c.Tokens[start:end] {
		item := contenthub.Fields(tok.Metadata).Clone()
		item[contenthub.FieldTokenID] = tok.ID
		out = append(out, item)
	}
	return out, nil
}

func (d *Directory) contract(address string) *Contract {
	d.factory.mu.RLock()
	defer d.factory.mu.RUnlock()

	var matches []*Contract
	for k, c := range d.factory.contracts {
		if k.chain == d.chain && k.address == contenthub.NormalizeAddress(address) && c.Err == "" {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Type < matches[j].Type })
	return matches[0]
}
