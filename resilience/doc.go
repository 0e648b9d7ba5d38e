// Package resilience bounds tool execution.
//
// Three guards are provided, each usable alone or composed by an Executor:
//
//   - Rate limiter: rejects calls above a sustained rate, with an optional
//     bounded wait for a token.
//   - Bulkhead: caps concurrent calls so a slow page cannot pile up work.
//   - Timeout: bounds one call and reports ErrTimeout when the deadline hits.
//
// Nothing here retries. A failed query surfaces to the caller once and is
// re-issued by the caller if wanted.
//
// # Usage
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 50, Burst: 10})),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    res, err = engine.Query(ctx, doc, params)
//	    return err
//	})
package resilience
