package gateway

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Tracker reads one contract through the gateway. It implements every
// capability interface.
type Tracker struct {
	client  *Client
	address string
	chain   contenthub.Chain
	kind    contenthub.ContentType
}

func (t *Tracker) Address() string                     { return t.address }
func (t *Tracker) Chain() contenthub.Chain             { return t.chain }
func (t *Tracker) ContentType() contenthub.ContentType { return t.kind }

func (t *Tracker) path(segments ...string) []string {
	return append([]string{string(t.chain), string(t.kind), t.address}, segments...)
}

// CollectionInfo is the validation read and is made exactly once.
func (t *Tracker) CollectionInfo(ctx context.Context) (contenthub.Fields, error) {
	var info contenthub.Fields
	if err := t.client.get(ctx, t.path(), nil, &info, 1); err != nil {
		return nil, err
	}
	return info, nil
}

func (t *Tracker) FetchMetadata(ctx context.Context, tokenID string) (contenthub.Fields, error) {
	var md contenthub.Fields
	err := t.client.get(ctx, t.path("tokens", tokenID), nil, &md, t.client.retryAttempts)
	return md, err
}

func (t *Tracker) AllTokens(ctx context.Context, opts contenthub.TokenListOptions) ([]string, error) {
	var query url.Values
	if opts.MaxTokens > 0 {
		query = url.Values{"max": {strconv.Itoa(opts.MaxTokens)}}
	}
	ids := []string{}
	err := t.client.get(ctx, t.path("tokens"), query, &ids, t.client.retryAttempts)
	return ids, err
}

func (t *Tracker) FetchOwnership(ctx context.Context, tokenID string) (contenthub.Fields, error) {
	var out contenthub.Fields
	err := t.client.get(ctx, t.path("tokens", tokenID, "ownership"), nil, &out, t.client.retryAttempts)
	return out, err
}

func (t *Tracker) FetchRights(ctx context.Context, tokenID string) (contenthub.Fields, error) {
	var out contenthub.Fields
	err := t.client.get(ctx, t.path("tokens", tokenID, "rights"), nil, &out, t.client.retryAttempts)
	return out, err
}

func (t *Tracker) TokensByOwner(ctx context.Context, owner string) ([]string, error) {
	ids := []string{}
	err := t.client.get(ctx, t.path("owners", owner, "tokens"), nil, &ids, t.client.retryAttempts)
	return ids, err
}
