// Package query runs element queries against a dom.Document with a result
// cache in front.
//
// Two strategies are supported. A selector query returns every match in
// document order. A search query scans every element except script and
// style, matches the search text case-insensitively against each element's
// direct text and attribute values, and ranks matches by relevance:
//
//	exact direct text        +100
//	direct text prefix        +50
//	whole-word match          +30
//	substring match           +10
//	non-empty box              +5
//	h1-h6, button, a, label   +10
//
// Only one of the four text tiers applies; an element matching only through
// an attribute value scores its bonuses alone. Ties keep document order.
//
// Both strategies paginate with offset and limit after ordering. Results are
// cached per page identity and query shape; a cached result is served with
// FromCache set and CacheTimestamp stamped at the time of the read. Failed
// evaluations are never cached.
package query
