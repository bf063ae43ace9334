// Package cache implements a generic in-memory store bounded by entry
// count, estimated memory, and per-entry TTL. Recency is tracked with a
// hashmap over an intrusive doubly-linked list so lookups, promotions, and
// evictions are O(1). A background sweeper with an explicit start/stop
// lifecycle removes expired entries between accesses.
package cache
