package util

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// LocalCache is an in-process LRU with a per-entry TTL. It holds small,
// rarely-changing lookups (boards) that every write path reads.
type LocalCache[K comparable, V any] struct {
	lru *lru.LRU[K, V]
}

func NewLocalCache[K comparable, V any](size int, ttl time.Duration) *LocalCache[K, V] {
	return &LocalCache[K, V]{lru: lru.NewLRU[K, V](size, nil, ttl)}
}

func (c *LocalCache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *LocalCache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

func (c *LocalCache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

func (c *LocalCache[K, V]) Purge() {
	c.lru.Purge()
}
