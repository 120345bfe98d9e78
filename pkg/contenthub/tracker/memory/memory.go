package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pagedao/hub-api/pkg/contenthub"
	"gopkg.in/yaml.v3"
)

// ErrNoContract is returned by the validation read of a tracker built for a
// combination the factory holds no fixture for.
var ErrNoContract = errors.New("no contract at address")

// Token is one token of a fixture contract.
type Token struct {
	ID       string         `json:"id" yaml:"id"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
	Owner    string         `json:"owner,omitempty" yaml:"owner,omitempty"`
	Rights   map[string]any `json:"rights,omitempty" yaml:"rights,omitempty"`
	// Err makes every read of this token fail
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Contract is a fixture contract readable as Type on Chain.
type Contract struct {
	Address string                 `json:"address" yaml:"address"`
	Chain   contenthub.Chain       `json:"chain" yaml:"chain"`
	Type    contenthub.ContentType `json:"type" yaml:"type"`
	Info    map[string]any         `json:"info" yaml:"info"`
	Tokens  []Token                `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	// InfoOnly trackers expose collection info and nothing else
	InfoOnly bool `json:"infoOnly,omitempty" yaml:"infoOnly,omitempty"`
	// Err makes the validation read fail
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Author is a fixture author record with its publications.
type Author struct {
	Address          string           `json:"address" yaml:"address"`
	Chain            contenthub.Chain `json:"chain" yaml:"chain"`
	Name             string           `json:"name,omitempty" yaml:"name,omitempty"`
	Bio              string           `json:"bio,omitempty" yaml:"bio,omitempty"`
	Avatar           string           `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Website          string           `json:"website,omitempty" yaml:"website,omitempty"`
	Social           map[string]any   `json:"social,omitempty" yaml:"social,omitempty"`
	PublicationCount int              `json:"publicationCount" yaml:"publicationCount"`
	LastPublishedAt  time.Time        `json:"lastPublishedAt,omitempty" yaml:"lastPublishedAt,omitempty"`
	Publications     []map[string]any `json:"publications,omitempty" yaml:"publications,omitempty"`
}

func (a *Author) record() *contenthub.AuthorRecord {
	return &contenthub.AuthorRecord{
		Address:          a.Address,
		Chain:            a.Chain,
		Name:             a.Name,
		Bio:              a.Bio,
		Avatar:           a.Avatar,
		Website:          a.Website,
		Social:           contenthub.Fields(a.Social),
		PublicationCount: a.PublicationCount,
		LastPublishedAt:  a.LastPublishedAt,
	}
}

// Fixtures is the on-disk form of a Factory.
type Fixtures struct {
	Types     []contenthub.ContentType `json:"types" yaml:"types"`
	Contracts []Contract               `json:"contracts" yaml:"contracts"`
	Authors   []Author                 `json:"authors" yaml:"authors"`
}

type key struct {
	address string
	chain   contenthub.Chain
	kind    contenthub.ContentType
}

// Factory implements contenthub.TrackerFactory over in-memory fixtures.
type Factory struct {
	mu        sync.RWMutex
	types     []contenthub.ContentType
	contracts map[key]*Contract
	authors   map[contenthub.Chain]map[string]*Author
	probes    []contenthub.Candidate
}

// New creates an empty factory registering types in order.
func New(types ...contenthub.ContentType) *Factory {
	return &Factory{
		types:     types,
		contracts: make(map[key]*Contract),
		authors:   make(map[contenthub.Chain]map[string]*Author),
	}
}

// Load builds a factory from decoded fixtures.
func Load(fx Fixtures) *Factory {
	f := New(fx.Types...)
	for _, c := range fx.Contracts {
		f.AddContract(c)
	}
	for _, a := range fx.Authors {
		f.AddAuthor(a)
	}
	return f
}

// LoadFile reads fixtures from a JSON or YAML file.
func LoadFile(path string) (*Factory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures %s: %w", path, err)
	}
	return Load(fx), nil
}

// AddContract stores a fixture contract.
func (f *Factory) AddContract(c Contract) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contractCopy := c
	f.contracts[key{contenthub.NormalizeAddress(c.Address), c.Chain, c.Type}] = &contractCopy
}

// AddAuthor stores a fixture author on its chain.
func (f *Factory) AddAuthor(a Author) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.authors[a.Chain] == nil {
		f.authors[a.Chain] = make(map[string]*Author)
	}
	authorCopy := a
	f.authors[a.Chain][contenthub.NormalizeAddress(a.Address)] = &authorCopy
}

// Probes returns every candidate validated so far, in call order.
func (f *Factory) Probes() []contenthub.Candidate {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]contenthub.Candidate, len(f.probes))
	copy(out, f.probes)
	return out
}

// RegisteredTypes returns the registered content types in order.
func (f *Factory) RegisteredTypes() []contenthub.ContentType {
	out := make([]contenthub.ContentType, len(f.types))
	copy(out, f.types)
	return out
}

// NewTracker returns an unvalidated tracker. It fails only for an empty type.
func (f *Factory) NewTracker(address string, contentType contenthub.ContentType, chain contenthub.Chain) (contenthub.Tracker, error) {
	if contentType == "" {
		return nil, fmt.Errorf("content type is required")
	}
	f.mu.RLock()
	c := f.contracts[key{contenthub.NormalizeAddress(address), chain, contentType}]
	f.mu.RUnlock()

	base := &tracker{factory: f, address: address, chain: chain, kind: contentType, contract: c}
	if c != nil && c.InfoOnly {
		return &infoTracker{base}, nil
	}
	return base, nil
}

func (f *Factory) recordProbe(chain contenthub.Chain, kind contenthub.ContentType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, contenthub.Candidate{Chain: chain, Type: kind})
}

// infoTracker hides every capability beyond collection info.
type infoTracker struct {
	t *tracker
}

func (i *infoTracker) Address() string                     { return i.t.Address() }
func (i *infoTracker) Chain() contenthub.Chain             { return i.t.Chain() }
func (i *infoTracker) ContentType() contenthub.ContentType { return i.t.ContentType() }
func (i *infoTracker) CollectionInfo(ctx context.Context) (contenthub.Fields, error) {
	return i.t.CollectionInfo(ctx)
}

type tracker struct {
	factory  *Factory
	address  string
	chain    contenthub.Chain
	kind     contenthub.ContentType
	contract *Contract
}

func (t *tracker) Address() string                     { return t.address }
func (t *tracker) Chain() contenthub.Chain             { return t.chain }
func (t *tracker) ContentType() contenthub.ContentType { return t.kind }

func (t *tracker) CollectionInfo(ctx context.Context) (contenthub.Fields, error) {
	t.factory.recordProbe(t.chain, t.kind)
	c, err := t.live()
	if err != nil {
		return nil, err
	}
	return contenthub.Fields(c.Info).Clone(), nil
}

func (t *tracker) live() (*Contract, error) {
	if t.contract == nil {
		return nil, fmt.Errorf("%w: %s as %s on %s", ErrNoContract, t.address, t.kind, t.chain)
	}
	if t.contract.Err != "" {
		return nil, errors.New(t.contract.Err)
	}
	return t.contract, nil
}

func (t *tracker) token(id string) (*Token, error) {
	c, err := t.live()
	if err != nil {
		return nil, err
	}
	for i := range c.Tokens {
		if c.Tokens[i].ID == id {
			if c.Tokens[i].Err != "" {
				return nil, errors.New(c.Tokens[i].Err)
			}
			return &c.Tokens[i], nil
		}
	}
	return nil, fmt.Errorf("token %s: %w", id, contenthub.ErrNotFound)
}

func (t *tracker) FetchMetadata(ctx context.Context, tokenID string) (contenthub.Fields, error) {
	tok, err := t.token(tokenID)
	if err != nil {
		return nil, err
	}
	return contenthub.Fields(tok.Metadata).Clone(), nil
}

func (t *tracker) AllTokens(ctx context.Context, opts contenthub.TokenListOptions) ([]string, error) {
	c, err := t.live()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(c.Tokens))
	for _, tok := range c.Tokens {
		if opts.MaxTokens > 0 && len(ids) == opts.MaxTokens {
			break
		}
		ids = append(ids, tok.ID)
	}
	return ids, nil
}

func (t *tracker) FetchOwnership(ctx context.Context, tokenID string) (contenthub.Fields, error) {
	tok, err := t.token(tokenID)
	if err != nil {
		return nil, err
	}
	return contenthub.Fields{"tokenId": tok.ID, "owner": tok.Owner}, nil
}

func (t *tracker) FetchRights(ctx context.Context, tokenID string) (contenthub.Fields, error) {
	tok, err := t.token(tokenID)
	if err != nil {
		return nil, err
	}
	return contenthub.Fields(tok.Rights).Clone(), nil
}

func (t *tracker) TokensByOwner(ctx context.Context, owner string) ([]string, error) {
	c, err := t.live()
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, tok := range c.Tokens {
		if tok.Owner != "" && contenthub.NormalizeAddress(tok.Owner) == contenthub.NormalizeAddress(owner) {
			ids = append(ids, tok.ID)
		}
	}
	return ids, nil
}
