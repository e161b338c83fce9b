// Package api hosts the HTTP server, middleware, and REST handlers for operator
// access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/sync for triggering one dealer sync on demand.
//   - GET /v1/dealers/{dealer_id}/sync for the dealer's last sync status via
//     the DealerStore interface.
package api
