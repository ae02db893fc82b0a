package cache

import (
	"context"
	"crypto/sha1" //nolint:gosec // G505: sha1 for cache keys, not security
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"nexus/internal/core"
)

// LRUCache is a thread-safe LRU cache with per-entry expiration
type LRUCache struct {
	capacity int
	items    map[string]*entry
	mu       sync.Mutex
	head     *entry
	tail     *entry
	cancel   context.CancelFunc
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// NewCache creates an LRU cache with the default capacity
func NewCache() *LRUCache {
	return NewCacheWithCapacity(core.CacheDefaultCapacity)
}

// NewCacheWithCapacity creates an LRU cache holding at most capacity entries
func NewCacheWithCapacity(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = core.CacheDefaultCapacity
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &LRUCache{
		capacity: capacity,
		items:    make(map[string]*entry),
		head:     &entry{},
		tail:     &entry{},
		cancel:   cancel,
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	go c.cleanupLoop(ctx)
	return c
}

func (c *LRUCache) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(core.CacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the cleanup goroutine.
func (c *LRUCache) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Set stores a value with the given TTL. A non-positive TTL stores an
// entry that is already expired.
func (c *LRUCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.unlink(e)
		c.pushFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.pushFront(e)
	c.items[key] = e

	if len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Get returns the value for key unless it is missing or expired.
func (c *LRUCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !time.Now().Before(e.expiresAt) {
		c.unlink(e)
		delete(c.items, key)
		return nil, false
	}

	c.unlink(e)
	c.pushFront(e)
	return e.value, true
}

// Delete removes key if present.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.unlink(e)
		delete(c.items, key)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every entry
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[string]*entry)
}

func (c *LRUCache) pushFront(e *entry) {
	e.next = c.head.next
	e.prev = c.head
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRUCache) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *LRUCache) evictOldest() {
	if c.tail.prev == c.head {
		return
	}
	e := c.tail.prev
	c.unlink(e)
	delete(c.items, e.key)
}

func (c *LRUCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.items {
		if !now.Before(e.expiresAt) {
			c.unlink(e)
			delete(c.items, key)
		}
	}
}

// CacheService groups the caches used by the server: rendered export
// documents keyed by report id, and local model discovery results.
type CacheService struct {
	documents core.Cache
	discovery core.Cache
}

// NewCacheService creates both caches
func NewCacheService() *CacheService {
	return &CacheService{
		documents: NewCache(),
		discovery: NewCacheWithCapacity(16),
	}
}

// GetDocument returns a cached export document. The slice is a copy.
func (cs *CacheService) GetDocument(reportID string) ([]byte, bool) {
	cached, ok := cs.documents.Get(DocumentCacheKey(reportID))
	if !ok {
		return nil, false
	}
	doc, ok := cached.([]byte)
	if !ok {
		return nil, false
	}
	return slices.Clone(doc), true
}

// SetDocument caches an export document. Reports are immutable, so only
// deletion invalidates an entry.
func (cs *CacheService) SetDocument(reportID string, doc []byte) {
	cs.documents.Set(DocumentCacheKey(reportID), slices.Clone(doc), core.ExportCacheTTL)
}

// DeleteDocument evicts the document of a deleted report
func (cs *CacheService) DeleteDocument(reportID string) {
	cs.documents.Delete(DocumentCacheKey(reportID))
}

// GetOllamaModels returns a cached model listing for the given Ollama base URL.
func (cs *CacheService) GetOllamaModels(baseURL string) ([]core.OllamaModel, bool) {
	cached, ok := cs.discovery.Get(DiscoveryCacheKey(baseURL))
	if !ok {
		return nil, false
	}
	models, ok := cached.([]core.OllamaModel)
	if !ok {
		return nil, false
	}
	return slices.Clone(models), true
}

// SetOllamaModels caches a model listing
func (cs *CacheService) SetOllamaModels(baseURL string, models []core.OllamaModel) {
	cs.discovery.Set(DiscoveryCacheKey(baseURL), slices.Clone(models), core.OllamaListCacheTTL)
}

// Stop terminates both cleanup workers.
func (cs *CacheService) Stop() {
	cs.documents.Stop()
	cs.discovery.Stop()
}

// Close stops the cache service and releases resources.
func (cs *CacheService) Close() error {
	cs.Stop()
	return nil
}

// DocumentCacheKey builds the export cache key for a report id
func DocumentCacheKey(reportID string) string {
	return fmt.Sprintf("export:%s:%s", core.CacheKeyVersion, reportID)
}

// DiscoveryCacheKey builds the discovery cache key for a base URL
func DiscoveryCacheKey(baseURL string) string {
	h := sha1.New() //nolint:gosec // G401: sha1 for cache keys, not security
	h.Write([]byte(strings.TrimRight(strings.TrimSpace(baseURL), "/")))
	return fmt.Sprintf("ollama:%s:%s", core.CacheKeyVersion, hex.EncodeToString(h.Sum(nil)))
}
