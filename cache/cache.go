// Package cache keeps the public product pages in redis between admin
// mutations.
//
// Entries are keyed by a generation counter. A mutation bumps the counter
// instead of deleting keys, so a listing read before the mutation and written
// after it lands under a generation nobody reads any more.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solarcatalog/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	generationKey = "products:generation"
	listKey       = "products:list:active"
	productPrefix = "product:"
)

// Generation identifies the cache contents a read was made against. The zero
// value is never written.
type Generation struct {
	n     int64
	valid bool
}

type ProductCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{Redis: client, TTL: ttl}
}

// ActiveProducts returns the cached public listing. Any failure is a miss.
// The returned Generation must be passed to SetActiveProducts.
func (c *ProductCache) ActiveProducts(ctx context.Context) ([]models.Product, Generation, bool) {
	gen := c.generation(ctx)
	if !gen.valid {
		return nil, gen, false
	}

	var products []models.Product
	if !c.get(ctx, listKeyFor(gen), &products) {
		return nil, gen, false
	}
	return products, gen, true
}

func (c *ProductCache) SetActiveProducts(ctx context.Context, gen Generation, products []models.Product) {
	if !gen.valid {
		return
	}
	c.set(ctx, listKeyFor(gen), products)
}

func (c *ProductCache) Product(ctx context.Context, id string) (models.Product, Generation, bool) {
	gen := c.generation(ctx)
	if !gen.valid {
		return models.Product{}, gen, false
	}

	var product models.Product
	if !c.get(ctx, productKeyFor(gen, id), &product) {
		return models.Product{}, gen, false
	}
	return product, gen, true
}

func (c *ProductCache) SetProduct(ctx context.Context, gen Generation, product models.Product) {
	if !gen.valid {
		return
	}
	c.set(ctx, productKeyFor(gen, product.Id), product)
}

// Invalidate retires every cached page by moving to the next generation.
// Entries of older generations expire with their TTL.
func (c *ProductCache) Invalidate(ctx context.Context) error {
	return c.Redis.Incr(ctx, generationKey).Err()
}

func (c *ProductCache) generation(ctx context.Context) Generation {
	n, err := c.Redis.Get(ctx, generationKey).Int64()
	switch {
	case err == redis.Nil:
		return Generation{valid: true}
	case err != nil:
		zap.L().Warn("cache: read generation failed", zap.Error(err))
		return Generation{}
	}
	return Generation{n: n, valid: true}
}

func listKeyFor(gen Generation) string {
	return fmt.Sprintf("%s:%d", listKey, gen.n)
}

func productKeyFor(gen Generation, id string) string {
	return fmt.Sprintf("%s%d:%s", productPrefix, gen.n, id)
}

func (c *ProductCache) get(ctx context.Context, key string, target interface{}) bool {
	raw, err := c.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("cache: get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, target); err != nil {
		zap.L().Warn("cache: corrupt entry", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

func (c *ProductCache) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		zap.L().Warn("cache: encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.Redis.Set(ctx, key, data, c.TTL).Err(); err != nil {
		zap.L().Warn("cache: set failed", zap.String("key", key), zap.Error(err))
	}
}
