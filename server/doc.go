// Package server assembles a domquery process from a config.Config: the
// observer, the result cache, the query engine, the tool dispatcher and the
// health aggregator, served over one HTTP mux.
//
// Routes:
//
//	GET  /tools            list tools
//	POST /tools/{name}     call a tool
//	GET  /healthz          liveness
//	GET  /readyz           readiness
//	GET  /health           detailed health
//	GET  /health/{name}    single check
//	GET  /metrics          Prometheus scrape, when that exporter is configured
package server
