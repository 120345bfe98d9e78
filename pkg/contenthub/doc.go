// Package contenthub resolves content (collections, books, authors) that lives
// on several independent chains behind a single lookup-by-address API.
//
// Callers usually know an address but not its chain or content encoding. The
// Resolver builds an explicit, ordered candidate plan of (chain, content type)
// pairs and probes them one by one through a TrackerFactory until one
// validates. A curated Registry short-circuits the search for known content
// and, through Merge, remains authoritative for identity fields.
//
// Identity Strategy
//
// The identity fields address, chain and type of a merged result always come
// from the registry record when one exists, and from the resolution otherwise.
// Every other field prefers the live on-chain value. When the on-chain read
// fails for registered content the record is still returned, tagged with
// _fromRegistry and _blockchainFetchError.
//
// Aggregation
//
// List operations never fail because one item failed. Failed items become
// DegradedItem placeholders, the full set is sorted, and only then is the
// offset/limit window applied.
//
// Chain adapters are external collaborators. Implementations backed by static
// fixtures and by an HTTP tracker gateway live in the tracker subpackages.
package contenthub
