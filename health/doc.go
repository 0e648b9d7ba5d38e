// Package health reports whether a domquery process can serve queries.
//
// A Checker reports the state of one component as Healthy, Degraded or
// Unhealthy. An Aggregator runs its checkers concurrently under one deadline
// and folds their results into an overall status.
//
// Two domain checkers are provided. CacheChecker reports result cache
// occupancy and counters and degrades while the cache is full. DocumentChecker
// resolves the current document and asks it for its URL, which fails once the
// page is detached.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
//	// /healthz  liveness, always 200
//	// /readyz   200 unless a check is unhealthy
//	// /health   JSON with every check's result
package health
