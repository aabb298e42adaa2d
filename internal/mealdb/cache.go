package mealdb

import (
	"context"
	"time"

	"planneat/internal/recipe"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defaults.
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 10 * time.Minute
)

type lookupResult struct {
	recipe recipe.Recipe
	found  bool
}

// CachedSource memoizes successful Source answers in an expiring LRU.
// GetRandom always goes to the wrapped Source.
type CachedSource struct {
	next recipe.Source
	lru  *expirable.LRU[string, any]
}

var _ recipe.Source = (*CachedSource)(nil)

// NewCachedSource wraps next with a cache of the given size and TTL.
func NewCachedSource(next recipe.Source, size int, ttl time.Duration) *CachedSource {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{
		next: next,
		lru:  expirable.NewLRU[string, any](size, nil, ttl),
	}
}

// Len reports the number of live cache entries.
func (c *CachedSource) Len() int { return c.lru.Len() }

// Purge drops every cached entry.
func (c *CachedSource) Purge() { c.lru.Purge() }

func (c *CachedSource) SearchByName(ctx context.Context, query string) ([]recipe.Recipe, error) {
	return cachedList(c, "search:"+query, func() ([]recipe.Recipe, error) {
		return c.next.SearchByName(ctx, query)
	})
}

func (c *CachedSource) SearchByIngredient(ctx context.Context, ingredient string) ([]recipe.Recipe, error) {
	return cachedList(c, "ingredient:"+ingredient, func() ([]recipe.Recipe, error) {
		return c.next.SearchByIngredient(ctx, ingredient)
	})
}

func (c *CachedSource) FilterByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	return cachedList(c, "category:"+category, func() ([]recipe.Recipe, error) {
		return c.next.FilterByCategory(ctx, category)
	})
}

func (c *CachedSource) FilterByArea(ctx context.Context, area string) ([]recipe.Recipe, error) {
	return cachedList(c, "area:"+area, func() ([]recipe.Recipe, error) {
		return c.next.FilterByArea(ctx, area)
	})
}

func (c *CachedSource) GetByID(ctx context.Context, id string) (recipe.Recipe, bool, error) {
	key := "lookup:" + id
	if v, ok := c.lru.Get(key); ok {
		res := v.(lookupResult)
		return res.recipe, res.found, nil
	}
	r, found, err := c.next.GetByID(ctx, id)
	if err != nil {
		return recipe.Recipe{}, false, err
	}
	c.lru.Add(key, lookupResult{recipe: r, found: found})
	return r, found, nil
}

func (c *CachedSource) GetRandom(ctx context.Context) (recipe.Recipe, bool, error) {
	return c.next.GetRandom(ctx)
}

func (c *CachedSource) ListCategories(ctx context.Context) ([]string, error) {
	return cachedList(c, "list:categories", func() ([]string, error) {
		return c.next.ListCategories(ctx)
	})
}

func (c *CachedSource) ListAreas(ctx context.Context) ([]string, error) {
	return cachedList(c, "list:areas", func() ([]string, error) {
		return c.next.ListAreas(ctx)
	})
}

func (c *CachedSource) ListIngredients(ctx context.Context) ([]string, error) {
	return cachedList(c, "list:ingredients", func() ([]string, error) {
		return c.next.ListIngredients(ctx)
	})
}

// cachedList returns a copy so callers cannot mutate the cached slice.
func cachedList[T any](c *CachedSource, key string, fetch func() ([]T, error)) ([]T, error) {
	if v, ok := c.lru.Get(key); ok {
		return append([]T{}, v.([]T)...), nil
	}
	items, err := fetch()
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, append([]T{}, items...))
	return items, nil
}
