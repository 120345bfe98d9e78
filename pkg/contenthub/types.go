package contenthub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Chain names a supported blockchain.
type Chain string

// Supported chains.
const (
	ChainBase     Chain = "base"
	ChainEthereum Chain = "ethereum"
	ChainOptimism Chain = "optimism"
	ChainZora     Chain = "zora"
	ChainPolygon  Chain = "polygon"
)

// ChainAll selects every supported chain.
const ChainAll = "all"

// SupportedChains is the fixed probe priority used whenever a request does not
// name a chain.
var SupportedChains = []Chain{ChainBase, ChainEthereum, ChainOptimism, ChainZora, ChainPolygon}

// IsSupported reports whether c is one of SupportedChains.
func (c Chain) IsSupported() bool {
	for _, s := range SupportedChains {
		if s == c {
			return true
		}
	}
	return false
}

// ParseChain validates a caller supplied chain name. Empty input and "all"
// return ("", nil), meaning every supported chain.
func ParseChain(s string) (Chain, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == ChainAll {
		return "", nil
	}
	c := Chain(s)
	if !c.IsSupported() {
		return "", &ParamError{Param: "chain", Value: s, Err: ErrInvalidParam}
	}
	return c, nil
}

// ContentType names an on-chain content encoding understood by a tracker.
type ContentType string

// Content types referenced directly by the engine.
const (
	TypeBook           ContentType = "book"
	TypeAlexandriaBook ContentType = "alexandria_book"
	TypeNFT            ContentType = "nft"
	TypePublication    ContentType = "publication"
)

// Well-known keys of merged result objects.
const (
	FieldAddress              = "address"
	FieldChain                = "chain"
	FieldType                 = "type"
	FieldName                 = "name"
	FieldTitle                = "title"
	FieldFeatured             = "featured"
	FieldTokenID              = "tokenId"
	FieldPublishedAt          = "publishedAt"
	FieldError                = "error"
	FieldFetchFailed          = "_fetchFailed"
	FieldFromRegistry         = "_fromRegistry"
	FieldBlockchainFetchError = "_blockchainFetchError"
	FieldMetadataError        = "_metadataFetchError"
)

// Fields is an open JSON object as returned by trackers and stored in the
// registry.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the string value stored under key, or "".
func (f Fields) String(key string) string {
	if f == nil {
		return ""
	}
	switch v := f[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the boolean value stored under key.
func (f Fields) Bool(key string) bool {
	if f == nil {
		return false
	}
	b, _ := f[key].(bool)
	return b
}

// NormalizeAddress returns the comparison form of an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ContentRecord is a curated registry entry. Records are immutable once
// loaded.
type ContentRecord struct {
	Address  string
	Chain    Chain
	Type     ContentType
	Name     string
	Featured bool
	// Extra holds every other curated field.
	Extra Fields
}

// Fields flattens the record into a result object.
func (r ContentRecord) Fields() Fields {
	out := make(Fields, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[FieldAddress] = r.Address
	out[FieldChain] = string(r.Chain)
	out[FieldType] = string(r.Type)
	if r.Name != "" {
		out[FieldName] = r.Name
	}
	if r.Featured {
		out[FieldFeatured] = true
	}
	return out
}

// MarshalJSON encodes the record as a flat object.
func (r ContentRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

// UnmarshalJSON decodes a flat registry object.
func (r *ContentRecord) UnmarshalJSON(data []byte) error {
	var raw Fields
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec, err := RecordFromFields(raw, "")
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// RecordFromFields builds a record from a decoded registry object. The chain
// argument is used when the object carries none, which is the case for
// per-chain registry files.
func RecordFromFields(raw Fields, chain Chain) (ContentRecord, error) {
	rec := ContentRecord{Extra: Fields{}}
	for k, v := range raw {
		switch k {
		case FieldAddress:
			rec.Address, _ = v.(string)
		case FieldChain:
			s, _ := v.(string)
			rec.Chain = Chain(strings.ToLower(s))
		case FieldType:
			s, _ := v.(string)
			rec.Type = ContentType(s)
		case FieldName:
			rec.Name, _ = v.(string)
		case FieldFeatured:
			rec.Featured, _ = v.(bool)
		default:
			rec.Extra[k] = v
		}
	}
	if rec.Chain == "" {
		rec.Chain = chain
	}
	if strings.TrimSpace(rec.Address) == "" {
		return ContentRecord{}, fmt.Errorf("registry record without address: %w", ErrInvalidParam)
	}
	if rec.Type == "" {
		return ContentRecord{}, fmt.Errorf("registry record %s without type: %w", rec.Address, ErrInvalidParam)
	}
	return rec, nil
}

// DegradedItem stands in for an item whose fetch failed during aggregation.
type DegradedItem struct {
	Address string
	Chain   Chain
	Err     error
}

// Fields renders the placeholder as a result object.
func (d DegradedItem) Fields() Fields {
	msg := ""
	if d.Err != nil {
		msg = d.Err.Error()
	}
	return Fields{
		FieldAddress:     d.Address,
		FieldChain:       string(d.Chain),
		FieldError:       msg,
		FieldFetchFailed: true,
	}
}

// IsDegraded reports whether an aggregated item is a failure placeholder.
func IsDegraded(item Fields) bool {
	return item.Bool(FieldFetchFailed)
}

// AuthorRecord is one chain's view of an author.
type AuthorRecord struct {
	Address          string    `json:"address"`
	Chain            Chain     `json:"chain"`
	Name             string    `json:"name,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	Avatar           string    `json:"avatar,omitempty"`
	Website          string    `json:"website,omitempty"`
	Social           Fields    `json:"social,omitempty"`
	PublicationCount int       `json:"publicationCount"`
	LastPublishedAt  time.Time `json:"lastPublishedAt,omitempty"`
}

// AuthorProfile is the union of an author's records across chains.
type AuthorProfile struct {
	Address           string    `json:"address"`
	Chains            []Chain   `json:"chains"`
	Name              string    `json:"name,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	Avatar            string    `json:"avatar,omitempty"`
	Website           string    `json:"website,omitempty"`
	Social            Fields    `json:"social,omitempty"`
	TotalPublications int       `json:"totalPublications"`
	LastPublishedAt   time.Time `json:"-"`
}

// Fields renders the profile as a result object.
func (p AuthorProfile) Fields() Fields {
	chains := make([]string, len(p.Chains))
	for i, c := range p.Chains {
		chains[i] = string(c)
	}
	out := Fields{
		FieldAddress:        p.Address,
		"chains":            chains,
		"totalPublications": p.TotalPublications,
	}
	setIfNotEmpty(out, FieldName, p.Name)
	setIfNotEmpty(out, "bio", p.Bio)
	setIfNotEmpty(out, "avatar", p.Avatar)
	setIfNotEmpty(out, "website", p.Website)
	if len(p.Social) > 0 {
		out["social"] = p.Social
	}
	if !p.LastPublishedAt.IsZero() {
		out[FieldPublishedAt] = p.LastPublishedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func setIfNotEmpty(f Fields, key, value string) {
	if value != "" {
		f[key] = value
	}
}

// TokenListOptions bounds a token enumeration.
type TokenListOptions struct {
	MaxTokens int
}

// Pagination describes the window applied to an aggregated list.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Page is the paginated envelope returned by list operations.
type Page struct {
	Items      []Fields   `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// CollectionRef identifies the collection a page of items belongs to.
type CollectionRef struct {
	Address string `json:"address"`
	Chain   Chain  `json:"chain"`
}

// CollectionItemsPage is a page of tokens of one collection.
type CollectionItemsPage struct {
	Page
	Collection CollectionRef `json:"collection"`
}

// AuthorSummary accompanies a publications page.
type AuthorSummary struct {
	Address          string `json:"address"`
	PublicationCount int    `json:"publicationCount"`
}

// PublicationsPage is a page of an author's publications.
type PublicationsPage struct {
	Page
	Author AuthorSummary `json:"author"`
}
