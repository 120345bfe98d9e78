package contenthub

import (
	"context"
	"fmt"
)

// Registry is the in-memory index over curated records. It is built once and
// read concurrently without locking.
type Registry struct {
	records   []ContentRecord
	byAddress map[string][]int
}

// NewRegistry indexes records in the given order. Records sharing an address
// and chain keep the first occurrence.
func NewRegistry(records []ContentRecord) *Registry {
	r := &Registry{
		records:   make([]ContentRecord, 0, len(records)),
		byAddress: make(map[string][]int, len(records)),
	}
	for _, rec := range records {
		key := NormalizeAddress(rec.Address)
		dup := false
		for _, i := range r.byAddress[key] {
			if r.records[i].Chain == rec.Chain {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		r.byAddress[key] = append(r.byAddress[key], len(r.records))
		r.records = append(r.records, rec)
	}
	return r
}

// LoadRegistry builds a Registry from every record the source offers.
func LoadRegistry(ctx context.Context, src RegistrySource) (*Registry, error) {
	records, err := src.GetContracts(ctx, ChainAll)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return NewRegistry(records), nil
}

// Len returns the number of indexed records.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Lookup returns the first record for address, in load order.
func (r *Registry) Lookup(address string) (ContentRecord, bool) {
	if r == nil {
		return ContentRecord{}, false
	}
	idx := r.byAddress[NormalizeAddress(address)]
	if len(idx) == 0 {
		return ContentRecord{}, false
	}
	return r.records[idx[0]], true
}

// LookupOnChain returns the record for address on chain.
func (r *Registry) LookupOnChain(address string, chain Chain) (ContentRecord, bool) {
	if r == nil {
		return ContentRecord{}, false
	}
	for _, i := range r.byAddress[NormalizeAddress(address)] {
		if r.records[i].Chain == chain {
			return r.records[i], true
		}
	}
	return ContentRecord{}, false
}

// Find prefers the record on chain and falls back to any record for address.
// An empty chain means any chain.
func (r *Registry) Find(address string, chain Chain) (ContentRecord, bool) {
	if chain != "" {
		if rec, ok := r.LookupOnChain(address, chain); ok {
			return rec, true
		}
	}
	return r.Lookup(address)
}

// ListByChain returns the records of one chain, or all records for "all" or
// an empty chain name.
func (r *Registry) ListByChain(chain string) []ContentRecord {
	if r == nil {
		return nil
	}
	if chain == "" || chain == ChainAll {
		out := make([]ContentRecord, len(r.records))
		copy(out, r.records)
		return out
	}
	var out []ContentRecord
	for _, rec := range r.records {
		if string(rec.Chain) == chain {
			out = append(out, rec)
		}
	}
	return out
}

// GetContracts lets a Registry act as a RegistrySource.
func (r *Registry) GetContracts(_ context.Context, chain string) ([]ContentRecord, error) {
	return r.ListByChain(chain), nil
}
