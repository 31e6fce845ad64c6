package rag

import (
	"context"
	"encoding/json"

	"shakespeare-rag-api/internal/domain/corpus"
	"shakespeare-rag-api/pkg/logger"
)

const (
	catalogPlaysKey      = "catalog:plays"
	catalogCharactersKey = "catalog:characters"
)

// CatalogCache is the read-through cache used for catalog listings.
// Values are opaque serialized payloads. Implementations collapse
// concurrent misses for the same key into a single load.
type CatalogCache interface {
	GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
}

// Catalog serves the distinct plays and characters derived from the
// index metadata. cache may be nil; cache failures degrade to the
// index scan and never fail the request.
type Catalog struct {
	index VectorIndex
	cache CatalogCache
}

// NewCatalog creates a Catalog.
func NewCatalog(index VectorIndex, cache CatalogCache) *Catalog {
	return &Catalog{index: index, cache: cache}
}

// Plays lists the distinct plays present in the index with their
// categories.
func (c *Catalog) Plays(ctx context.Context) ([]corpus.PlayRef, error) {
	if c.cache == nil {
		return c.index.ListPlays(ctx)
	}
	data, err := c.load(ctx, catalogPlaysKey, func(ctx context.Context) (any, error) {
		return c.index.ListPlays(ctx)
	})
	if err != nil {
		return nil, err
	}
	var plays []corpus.PlayRef
	if err := json.Unmarshal(data, &plays); err != nil {
		logger.Warn(ctx, "cached play listing corrupt, reading index", "error", err.Error())
		return c.index.ListPlays(ctx)
	}
	return plays, nil
}

// Characters lists the distinct character names present in the index.
func (c *Catalog) Characters(ctx context.Context) ([]string, error) {
	if c.cache == nil {
		return c.index.ListCharacters(ctx)
	}
	data, err := c.load(ctx, catalogCharactersKey, func(ctx context.Context) (any, error) {
		return c.index.ListCharacters(ctx)
	})
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		logger.Warn(ctx, "cached character listing corrupt, reading index", "error", err.Error())
		return c.index.ListCharacters(ctx)
	}
	return names, nil
}

func (c *Catalog) load(ctx context.Context, key string, direct func(ctx context.Context) (any, error)) ([]byte, error) {
	// Cache implementations degrade internally on cache errors, so an
	// error here comes from the index scan itself.
	return c.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		values, err := direct(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(values)
	})
}

// Invalidate drops the cached listings. Called after ingestion changes
// the index contents.
func (c *Catalog) Invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, catalogPlaysKey, catalogCharactersKey); err != nil {
		logger.Warn(ctx, "failed to invalidate catalog cache", "error", err.Error())
	}
}
