package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/domquery/cache"
	"github.com/jonwraymond/domquery/health"
)

func ExampleAggregator() {
	agg := health.NewAggregator(health.AggregatorConfig{})
	agg.Register(health.NewCacheChecker(cache.NewMemoryCache(cache.DefaultPolicy())))
	agg.Register(health.NewCheckerFunc("browser", func(context.Context) health.Result {
		return health.Degraded("tab reloading")
	}))

	results := agg.CheckAll(context.Background())
	for _, name := range agg.CheckerNames() {
		fmt.Printf("%s: %s\n", name, results[name].Status)
	}
	fmt.Println("overall:", health.OverallStatus(results))
	// Output:
	// cache: healthy
	// browser: degraded
	// overall: degraded
}
