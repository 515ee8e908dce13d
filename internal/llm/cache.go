package llm

import (
	"context"
	"encoding/hex"

	"github.com/raine/contractor-pro/internal/photo"
	"github.com/raine/contractor-pro/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// CachedEstimator wraps an Estimator with an image-hash keyed cache.
type CachedEstimator struct {
	inner  Estimator
	store  storage.EstimateCache
	loader *photo.Loader
}

var _ Estimator = (*CachedEstimator)(nil)

// NewCachedEstimator creates a cached estimator.
func NewCachedEstimator(inner Estimator, store storage.EstimateCache, loader *photo.Loader) *CachedEstimator {
	if loader == nil {
		loader = photo.NewLoader(nil)
	}
	return &CachedEstimator{inner: inner, store: store, loader: loader}
}

// hashImage returns a hex BLAKE2b-256 digest of the image bytes.
func hashImage(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *CachedEstimator) Estimate(ctx context.Context, image photo.Handle) (*Estimate, error) {
	if c.store == nil {
		return c.inner.Estimate(ctx, image)
	}

	data, mimeType, err := c.loader.Bytes(ctx, image)
	if err != nil {
		// Let the inner estimator report the load failure
		return c.inner.Estimate(ctx, image)
	}
	hash := hashImage(data)

	cached, err := c.store.GetEstimate(hash)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check estimate cache")
	} else if cached != nil {
		log.Debug().Str("hash", hash[:16]).Msg("estimate cache hit")
		return fromCached(cached), nil
	}

	// Hand the loaded bytes on so the photo is not fetched twice
	if !image.HasData() {
		image = photo.Handle{URI: image.URI, MIMEType: mimeType, Data: data}
	}

	result, err := c.inner.Estimate(ctx, image)
	if err != nil || result == nil {
		return result, err
	}

	if err := c.store.SetEstimate(hash, toCached(result)); err != nil {
		log.Warn().Err(err).Msg("failed to cache estimate")
	} else {
		log.Debug().Str("hash", hash[:16]).Msg("cached estimate")
	}

	return result, nil
}

func toCached(e *Estimate) *storage.CachedEstimate {
	entry := &storage.CachedEstimate{
		TotalCents: int64(e.Total),
		Items:      make([]storage.CachedItem, 0, len(e.Breakdown)),
	}
	for _, item := range e.Breakdown {
		entry.Items = append(entry.Items, storage.CachedItem{Label: item.Label, CostCents: int64(item.Cost)})
	}
	return entry
}

func fromCached(entry *storage.CachedEstimate) *Estimate {
	e := &Estimate{Total: Money(entry.TotalCents)}
	for _, item := range entry.Items {
		e.Breakdown = append(e.Breakdown, BreakdownItem{Label: item.Label, Cost: Money(item.CostCents)})
	}
	return e
}
