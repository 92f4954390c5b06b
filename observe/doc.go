// Package observe provides observability primitives for cache operations.
//
// It is a pure instrumentation library: a JSON structured logger, and
// OpenTelemetry tracing and metrics for cache reads and writes. Consumers
// pass a Middleware to the cacheable factory.
package observe
