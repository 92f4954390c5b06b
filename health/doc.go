// Package health reports whether the cache backends behind a Registry are
// usable.
//
// Each bin gets a Checker. Stores that can be pinged (redis, memcached) are
// unhealthy when the ping fails; bounded in-process stores are degraded when
// they run close to capacity, since every further write evicts a live entry.
//
// # Basic Usage
//
//	agg := health.NewAggregator()
//	health.RegisterBins(agg, registry)
//
//	results := agg.CheckAll(ctx)
//	if agg.OverallStatus(results) == health.StatusUnhealthy {
//	    // reads and writes on a bin will return backend errors
//	}
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (process liveness), /readyz (plain text) and /health
// (JSON with per-bin detail).
package health
