package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Handler serves the content hub over HTTP using contenthub.Service
type Handler struct {
	service contenthub.Service
	logger  *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(service contenthub.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the content routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", h.ListCollections)
		r.Get("/{address}", h.GetCollection)
		r.Get("/{address}/items", h.GetCollectionItems)
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.ListBooks)
		r.Get("/featured", h.FeaturedBooks)
		r.Get("/{id}", h.GetBook)
	})

	r.Route("/authors", func(r chi.Router) {
		r.Get("/", h.ListAuthors)
		r.Get("/{id}", h.GetAuthor)
		r.Get("/{id}/publications", h.GetAuthorPublications)
	})

	r.Route("/blockchain/{chain}/{address}", func(r chi.Router) {
		r.Get("/", h.Blockchain)
		r.Get("/{method}", h.Blockchain)
		r.Get("/{method}/*", h.Blockchain)
	})

	r.Route("/nft", func(r chi.Router) {
		r.Get("/batch/{contract}", h.BatchMetadata)
		r.Get("/batch/{contract}/{chain}", h.BatchMetadata)
		r.Get("/{contract}", h.TokenMetadata)
		r.Get("/{contract}/{chain}", h.TokenMetadata)
		r.Get("/{contract}/{chain}/collection-info", h.CollectionSummary)
		r.Get("/{contract}/{chain}/owner/{owner}", h.TokensForOwner)
		r.Get("/{contract}/{chain}/check-ownership/{tokenId}", h.CheckOwnership)
		r.Get("/{contract}/{chain}/{tokenId}", h.TokenMetadata)
	})

	r.Get("/historical-data", h.History)
	r.HandleFunc("/frame-webhooks", h.FrameWebhook)

	return r
}

// page reads limit and offset, writing a 400 on bad values.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) (contenthub.PageRequest, bool) {
	q := r.URL.Query()
	p, err := contenthub.ParsePageRequest(q.Get("limit"), q.Get("offset"))
	if err != nil {
		h.respondErr(w, r, "page", err)
		return p, false
	}
	return p, true
}

// csv splits a comma separated query value, dropping blanks.
func csv(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func missingParam(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusBadRequest, CodeMissingParam, message)
}

// Collections

// ListCollections lists explicit addresses, or the registry's collections for ?chain=
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	chain := r.URL.Query().Get("chain")
	if chain == "" {
		chain = "all"
	}
	page, err := h.service.ListCollections(r.Context(), contenthub.ListCollectionsRequest{
		Chain:     chain,
		Addresses: csv(r.URL.Query().Get("addresses")),
		Page:      p,
	})
	if err != nil {
		h.respondErr(w, r, "listCollections", err)
		return
	}
	respond(w, r, page)
}

// GetCollection returns one collection
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.service.GetCollection(r.Context(), chi.URLParam(r, "address"), r.URL.Query().Get("chain"))
	if err != nil {
		h.respondErr(w, r, "getCollection", err)
		return
	}
	respond(w, r, collection)
}

// GetCollectionItems pages through a collection's tokens
func (h *Handler) GetCollectionItems(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	items, err := h.service.GetCollectionItems(r.Context(), contenthub.CollectionItemsRequest{
		Address: chi.URLParam(r, "address"),
		Chain:   r.URL.Query().Get("chain"),
		Page:    p,
	})
	if err != nil {
		h.respondErr(w, r, "getCollectionItems", err)
		return
	}
	respond(w, r, items)
}

// Books

// ListBooks requires ?addresses= and pairs them with ?chains= by position
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	addresses := csv(r.URL.Query().Get("addresses"))
	if len(addresses) == 0 {
		missingParam(w, r, "Book addresses are required")
		return
	}
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.service.ListBooks(r.Context(), contenthub.ListBooksRequest{
		Addresses: addresses,
		Chains:    csv(r.URL.Query().Get("chains")),
		Page:      p,
	})
	if err != nil {
		h.respondErr(w, r, "listBooks", err)
		return
	}
	respond(w, r, page)
}

// FeaturedBooks requires ?featuredAddresses=
func (h *Handler) FeaturedBooks(w http.ResponseWriter, r *http.Request) {
	addresses := csv(r.URL.Query().Get("featuredAddresses"))
	if len(addresses) == 0 {
		missingParam(w, r, "Featured book addresses are required")
		return
	}
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.service.FeaturedBooks(r.Context(), contenthub.ListBooksRequest{
		Addresses: addresses,
		Chains:    csv(r.URL.Query().Get("chains")),
		Page:      p,
	})
	if err != nil {
		h.respondErr(w, r, "featuredBooks", err)
		return
	}
	respond(w, r, page)
}

// GetBook accepts "chain:address" or an address with ?chain=
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chain, address, found := strings.Cut(id, ":")
	if !found {
		address = id
		chain = r.URL.Query().Get("chain")
		if chain == "" {
			missingParam(w, r, "Chain parameter is required")
			return
		}
	}
	book, err := h.service.GetBook(r.Context(), address, chain)
	if err != nil {
		h.respondErr(w, r, "getBook", err)
		return
	}
	respond(w, r, book)
}

// Authors

// ListAuthors lists the profiles of ?addresses=
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.service.ListAuthors(r.Context(), contenthub.ListAuthorsRequest{
		Addresses: csv(r.URL.Query().Get("addresses")),
		Page:      p,
	})
	if err != nil {
		h.respondErr(w, r, "listAuthors", err)
		return
	}
	respond(w, r, page)
}

// GetAuthor returns the merged cross-chain profile
func (h *Handler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "getAuthor", err)
		return
	}
	respond(w, r, profile.Fields())
}

// GetAuthorPublications pages through an author's publications
func (h *Handler) GetAuthorPublications(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.service.GetAuthorPublications(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.respondErr(w, r, "getAuthorPublications", err)
		return
	}
	respond(w, r, page)
}

// Raw tracker access

// Blockchain serves /blockchain/{chain}/{address}[/{method}[/params...]]
func (h *Handler) Blockchain(w http.ResponseWriter, r *http.Request) {
	var params []string
	if rest := chi.URLParam(r, "*"); rest != "" {
		params = strings.Split(strings.Trim(rest, "/"), "/")
	}
	data, err := h.service.Query(r.Context(), contenthub.BlockchainRequest{
		Chain:    chi.URLParam(r, "chain"),
		Address:  chi.URLParam(r, "address"),
		Method:   chi.URLParam(r, "method"),
		Params:   params,
		TypeHint: contenthub.ContentType(r.URL.Query().Get("type")),
	})
	if err != nil {
		h.respondErr(w, r, "blockchain", err)
		return
	}
	respond(w, r, data)
}

// NFT

// nftRequest reads the contract, chain and asset type shared by the NFT
// routes. Path values win over query values.
func nftRequest(r *http.Request) contenthub.NFTRequest {
	q := r.URL.Query()
	req := contenthub.NFTRequest{
		Contract:  chi.URLParam(r, "contract"),
		Chain:     chi.URLParam(r, "chain"),
		AssetType: contenthub.ContentType(q.Get("assetType")),
	}
	if req.Contract == "" {
		req.Contract = q.Get("contract")
	}
	if req.Chain == "" {
		req.Chain = q.Get("chain")
	}
	return req
}

func boolQuery(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

// BatchMetadata reads ?tokenIds= of one contract
func (h *Handler) BatchMetadata(w http.ResponseWriter, r *http.Request) {
	ids := csv(r.URL.Query().Get("tokenIds"))
	if len(ids) == 0 {
		missingParam(w, r, "No token IDs provided for batch request")
		return
	}
	result, err := h.service.BatchMetadata(r.Context(), contenthub.BatchRequest{
		NFTRequest:       nftRequest(r),
		TokenIDs:         ids,
		IncludeOwnership: boolQuery(r, "includeOwnership"),
	})
	if err != nil {
		h.respondErr(w, r, "batchMetadata", err)
		return
	}
	respond(w, r, result)
}

// TokenMetadata reads one token from the path or ?tokenId=
func (h *Handler) TokenMetadata(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenId")
	if tokenID == "" {
		tokenID = r.URL.Query().Get("tokenId")
	}
	if tokenID == "" {
		missingParam(w, r, "Token ID is required")
		return
	}
	md, err := h.service.TokenMetadata(r.Context(), contenthub.TokenRequest{
		NFTRequest:       nftRequest(r),
		TokenID:          tokenID,
		IncludeOwnership: boolQuery(r, "includeOwnership"),
	})
	if err != nil {
		h.respondErr(w, r, "tokenMetadata", err)
		return
	}
	respond(w, r, md)
}

// CollectionSummary describes a contract from its representative token
func (h *Handler) CollectionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.CollectionSummary(r.Context(), nftRequest(r))
	if err != nil {
		h.respondErr(w, r, "collectionSummary", err)
		return
	}
	respond(w, r, summary)
}

// TokensForOwner lists the tokens an owner holds
func (h *Handler) TokensForOwner(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.service.TokensForOwner(r.Context(), contenthub.OwnerRequest{
		NFTRequest: nftRequest(r),
		Owner:      chi.URLParam(r, "owner"),
	})
	if err != nil {
		h.respondErr(w, r, "tokensForOwner", err)
		return
	}
	if tokens == nil {
		tokens = []string{}
	}
	respond(w, r, map[string]any{"tokens": tokens})
}

// CheckOwnership answers whether ?address= holds the token
func (h *Handler) CheckOwnership(w http.ResponseWriter, r *http.Request) {
	owned, err := h.service.CheckOwnership(r.Context(), contenthub.OwnershipCheckRequest{
		NFTRequest: nftRequest(r),
		TokenID:    chi.URLParam(r, "tokenId"),
		Owner:      r.URL.Query().Get("address"),
	})
	if err != nil {
		h.respondErr(w, r, "checkOwnership", err)
		return
	}
	respond(w, r, map[string]any{"owned": owned})
}

// History serves ?chain= and ?period= price history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.History(r.Context(), contenthub.HistoryRequest{
		Chain:  r.URL.Query().Get("chain"),
		Period: r.URL.Query().Get("period"),
	})
	if err != nil {
		h.respondErr(w, r, "history", err)
		return
	}
	respond(w, r, series)
}
