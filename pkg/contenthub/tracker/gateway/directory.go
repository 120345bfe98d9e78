package gateway

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Directory is the author and collection directory of one chain.
type Directory struct {
	client *Client
	chain  contenthub.Chain
}

// Directory returns the directory serving chain.
func (c *Client) Directory(chain contenthub.Chain) *Directory {
	return &Directory{client: c, chain: chain}
}

// Directories returns one directory per chain, in the given order.
func (c *Client) Directories(chains ...contenthub.Chain) []*Directory {
	out := make([]*Directory, len(chains))
	for i, chain := range chains {
		out[i] = c.Directory(chain)
	}
	return out
}

func (d *Directory) Chain() contenthub.Chain { return d.chain }

// AuthorByAddress returns nil, nil when the gateway answers 404.
func (d *Directory) AuthorByAddress(ctx context.Context, address string) (*contenthub.AuthorRecord, error) {
	var rec contenthub.AuthorRecord
	err := d.client.get(ctx, []string{string(d.chain), "authors", address}, nil, &rec, d.client.retryAttempts)
	if errors.Is(err, contenthub.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.Chain == "" {
		rec.Chain = d.chain
	}
	return &rec, nil
}

func (d *Directory) ContentByAuthor(ctx context.Context, address string) ([]contenthub.Fields, error) {
	pubs := []contenthub.Fields{}
	err := d.client.get(ctx, []string{string(d.chain), "authors", address, "content"}, nil, &pubs, d.client.retryAttempts)
	if errors.Is(err, contenthub.ErrNotFound) {
		return []contenthub.Fields{}, nil
	}
	return pubs, err
}

// CollectionByAddress returns nil, nil when the gateway answers 404.
func (d *Directory) CollectionByAddress(ctx context.Context, address string) (contenthub.Fields, error) {
	var info contenthub.Fields
	err := d.client.get(ctx, []string{string(d.chain), "collections", address}, nil, &info, d.client.retryAttempts)
	if errors.Is(err, contenthub.ErrNotFound) {
		return nil, nil
	}
	return info, err
}

func (d *Directory) CollectionItems(ctx context.Context, address string, limit, offset int) ([]contenthub.Fields, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	items := []contenthub.Fields{}
	err := d.client.get(ctx, []string{string(d.chain), "collections", address, "items"}, query, &items, d.client.retryAttempts)
	return items, err
}
