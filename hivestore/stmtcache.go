package hivestore

import (
	"container/list"
	"database/sql"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// stmtShardCount shards the prepared-statement cache to keep lock
// contention down under concurrent transactions sharing one pooled
// handle's statement set.
const stmtShardCount = 64

// stmtCache is a sharded, reference-counted LRU cache of prepared
// statements keyed by SQL text, adapted from the teacher's connection
// statement cache, one per pooled *sql.DB. Entries are prepared through
// the transaction that first needs them (see Txn.stmt), so they belong
// to that transaction and are closed when it ends; a later transaction
// that binds a cached entry with tx.StmtContext gets the query prepared
// again on its connection. The cache therefore does not avoid
// re-preparing a query across transactions.
type stmtCache struct {
	shards [stmtShardCount]*stmtCacheShard
	closed atomic.Bool
}

type stmtCacheShard struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*stmtCacheEntry
	lru      *list.List
}

type stmtCacheEntry struct {
	stmt     *sql.Stmt
	element  *list.Element
	refCount int32
	evicted  bool
	query    string
}

// newStmtCache creates a cache with capacity entries spread across
// shards. A non-positive capacity defaults to 256, generous for the
// bounded set of dispatch-matrix templates a catalogue produces.
func newStmtCache(capacity int) *stmtCache {
	if capacity <= 0 {
		capacity = 256
	}
	perShard := capacity / stmtShardCount
	if perShard < 1 {
		perShard = 1
	}

	c := &stmtCache{}
	for i := range c.shards {
		c.shards[i] = &stmtCacheShard{
			capacity: perShard,
			items:    make(map[string]*stmtCacheEntry),
			lru:      list.New(),
		}
	}
	return c
}

func (c *stmtCache) shardFor(query string) *stmtCacheShard {
	h := fnv.New32a()
	h.Write([]byte(query))
	return c.shards[h.Sum32()%stmtShardCount]
}

// get returns a cached statement and its release func, or nil if absent.
func (c *stmtCache) get(query string) (*sql.Stmt, func()) {
	shard := c.shardFor(query)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.items[query]
	if !ok {
		return nil, nil
	}
	shard.lru.MoveToFront(entry.element)
	atomic.AddInt32(&entry.refCount, 1)
	return entry.stmt, func() { c.release(shard, entry) }
}

// putAndGet stores stmt under query (evicting the LRU entry if the shard
// is full) and returns it already reference-counted, atomically so no
// other goroutine can evict it between the store and the first use.
func (c *stmtCache) putAndGet(query string, stmt *sql.Stmt) (*sql.Stmt, func()) {
	shard := c.shardFor(query)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if old, ok := shard.items[query]; ok {
		c.evictLocked(shard, old)
	}
	if len(shard.items) >= shard.capacity {
		if back := shard.lru.Back(); back != nil {
			c.evictLocked(shard, back.Value.(*stmtCacheEntry))
		}
	}

	entry := &stmtCacheEntry{stmt: stmt, query: query}
	entry.element = shard.lru.PushFront(entry)
	shard.items[query] = entry
	atomic.AddInt32(&entry.refCount, 1)
	return entry.stmt, func() { c.release(shard, entry) }
}

func (c *stmtCache) evictLocked(shard *stmtCacheShard, entry *stmtCacheEntry) {
	shard.lru.Remove(entry.element)
	delete(shard.items, entry.query)
	entry.evicted = true
	if atomic.LoadInt32(&entry.refCount) == 0 && entry.stmt != nil {
		_ = entry.stmt.Close()
	}
}

func (c *stmtCache) release(shard *stmtCacheShard, entry *stmtCacheEntry) {
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if n := atomic.AddInt32(&entry.refCount, -1); n == 0 && (entry.evicted || c.closed.Load()) && entry.stmt != nil {
		_ = entry.stmt.Close()
		entry.stmt = nil
	}
}

// close closes every statement not currently in flight; statements still
// referenced are closed by release once their last user is done.
func (c *stmtCache) close() {
	c.closed.Store(true)
	for _, shard := range c.shards {
		shard.mu.Lock()
		for _, entry := range shard.items {
			entry.evicted = true
			if atomic.LoadInt32(&entry.refCount) == 0 && entry.stmt != nil {
				_ = entry.stmt.Close()
			}
		}
		shard.items = make(map[string]*stmtCacheEntry)
		shard.lru.Init()
		shard.mu.Unlock()
	}
}
