// Package api hosts the HTTP server, middleware, and REST handlers. Notable
// routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /api/events and /api/events/{id} for reading scraped events.
//   - POST /api/subscribe to record ticket interest.
//   - POST /api/scrape to request an immediate scrape run.
package api
