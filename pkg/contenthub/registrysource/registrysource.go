// Package registrysource provides the curated registry backends and the
// shared decoding of per-chain registry documents.
//
// A registry document is a JSON or YAML array of flat objects, one document
// per chain. Every record of a document belongs to that document's chain,
// whatever its own "chain" field says. Addresses in YAML documents must be
// quoted so they are not read as hexadecimal integers.
package registrysource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/yaml.v3"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// ErrNoDocument is returned by a FetchFunc when a chain has no registry
// document. Such chains contribute no records.
var ErrNoDocument = errors.New("no registry document")

// FetchFunc returns the raw registry document of one chain.
type FetchFunc func(ctx context.Context, chain contenthub.Chain) ([]byte, error)

// Decode parses one chain's registry document.
func Decode(data []byte, chain contenthub.Chain) ([]contenthub.ContentRecord, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s registry: %w", chain, err)
	}

	records := make([]contenthub.ContentRecord, 0, len(raw))
	for i, obj := range raw {
		fields := contenthub.Fields(obj)
		if chain != "" {
			fields = fields.Clone()
			fields[contenthub.FieldChain] = string(chain)
		}
		rec, err := contenthub.RecordFromFields(fields, chain)
		if err != nil {
			return nil, fmt.Errorf("%s registry entry %d: %w", chain, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Collect implements RegistrySource.GetContracts on top of fetch: chain is
// a chain name or "all", documents are read in chain priority order.
func Collect(ctx context.Context, chain string, fetch FetchFunc) ([]contenthub.ContentRecord, error) {
	chains, err := contenthub.Scope(chain)
	if err != nil {
		return nil, err
	}

	var out []contenthub.ContentRecord
	for _, c := range chains {
		data, err := fetch(ctx, c)
		if errors.Is(err, ErrNoDocument) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s registry: %w", c, err)
		}
		records, err := Decode(data, c)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

// Load builds a Registry from src, retrying failed reads with exponential
// backoff for up to maxElapsed. Malformed documents fail immediately.
func Load(ctx context.Context, src contenthub.RegistrySource, maxElapsed time.Duration, logger *slog.Logger) (*contenthub.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = maxElapsed

	var reg *contenthub.Registry
	operation := func() error {
		r, err := contenthub.LoadRegistry(ctx, src)
		if err != nil {
			if errors.Is(err, contenthub.ErrInvalidParam) {
				return backoff.Permanent(err)
			}
			return err
		}
		reg = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "Registry load failed, retrying", "error", err, "retry_in", wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Registry loaded", "records", reg.Len())
	return reg, nil
}
