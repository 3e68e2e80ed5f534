package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"dealcheck/internal/analysis"
	"dealcheck/internal/listing"
	"dealcheck/internal/storage"
)

// CachedIdentifier wraps a ProductIdentifier with SQLite caching so
// repeated analyses of the same listing text skip the LLM call.
type CachedIdentifier struct {
	inner analysis.ProductIdentifier
	store storage.Store
}

// NewCachedIdentifier creates a cached identifier.
func NewCachedIdentifier(inner analysis.ProductIdentifier, store storage.Store) *CachedIdentifier {
	return &CachedIdentifier{inner: inner, store: store}
}

// hashListing creates a SHA256 hash over the listing fields that feed the
// identification prompt. Length prefixes prevent boundary collisions.
func hashListing(l *listing.Listing) string {
	h := sha256.New()
	for _, field := range []string{l.Title, l.Description, l.Condition, l.Price} {
		binary.Write(h, binary.LittleEndian, int64(len(field)))
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Identify implements analysis.ProductIdentifier with caching.
func (c *CachedIdentifier) Identify(ctx context.Context, l *listing.Listing) (*listing.IdentifiedProduct, error) {
	hash := hashListing(l)

	if c.store != nil {
		cached, err := c.store.GetProductCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check product cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("product cache hit")
			return &listing.IdentifiedProduct{
				Name:           cached.Name,
				Brand:          cached.Brand,
				Model:          cached.Model,
				Category:       cached.Category,
				Specifications: cached.Specifications,
				SearchQuery:    cached.SearchQuery,
				Confidence:     listing.Confidence(cached.Confidence),
			}, nil
		}
	}

	product, err := c.inner.Identify(ctx, l)
	if err != nil {
		return nil, err
	}

	if c.store != nil && product != nil {
		entry := &storage.ProductCacheEntry{
			Name:           product.Name,
			Brand:          product.Brand,
			Model:          product.Model,
			Category:       product.Category,
			Specifications: product.Specifications,
			SearchQuery:    product.SearchQuery,
			Confidence:     string(product.Confidence),
		}
		if err := c.store.SetProductCache(hash, entry); err != nil {
			log.Warn().Err(err).Msg("failed to cache product identification")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached product identification")
		}
	}

	return product, nil
}
