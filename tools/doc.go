// Package tools exposes the query engine and cache management as named
// tools taking and returning JSON.
//
// Three tools are registered:
//
//   - query_dom runs a selector or search query against the current document.
//   - clear_cache removes cached results for one URL, results older than a
//     given age, or everything.
//   - cache_status reports cache occupancy and counters.
//
// A Dispatcher routes calls by name. Every call gets an ID, a span, metrics
// and a log line, and runs under the configured rate limit, bulkhead and
// timeout. Errors from the engine reach the caller unchanged.
package tools
