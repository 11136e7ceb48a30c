// Package metric provides Prometheus metrics for the instrumentation core:
// registration and deregistration counts, a live-element gauge, per-container
// dynamic element churn, event-stream volume, and validation violations.
//
// The Metrics helpers are nil-safe so sessions without metrics skip
// recording without call-site guards. Registry owns an isolated Prometheus
// registry; Server exposes it over HTTP for scraping.
package metric
