// Package cache provides a bounded, time-expiring store for DOM query results.
//
// Entries are addressed by a fingerprint of the page identity and the query
// shape (selector, search text, offset, limit). Expiry is lazy: a stale entry
// is removed by the read that finds it, by a capacity eviction, or by an
// explicit InvalidateOlderThan sweep. Size therefore counts stale entries that
// nothing has touched yet.
//
// At capacity, inserting a new key evicts exactly the entry with the oldest
// creation time, whether or not it has expired.
package cache
