// Package main hosts the city events scraper entrypoint.
//
// Architecture overview:
//   - Scrape pipeline: a scheduler triggers the orchestrator at startup and on a fixed interval (SCRAPE_INTERVAL,
//     milliseconds). Each source in config is fetched with the Colly fetcher (one page, or numbered pages when
//     uses_pagination is set), run through the extractor registered for its strategy, normalized with the defaults
//     table, and upserted by (source, source_id). One failing source never stops the others.
//   - Persistence: Postgres via pgx when a DSN is configured (DATABASE_URL or EVENTS_DB_DSN), otherwise an in-memory
//     store. Raw listing pages can be archived to memory, local disk, or GCS.
//   - HTTP API: internal/api.Server exposes health, metrics, event listing, subscriptions, and a manual scrape trigger.
//   - Fanout: per-source run summaries and subscription confirmation requests go to Pub/Sub when a project is
//     configured.
//
// Quick checklist:
//   - Run the service: go run ./cmd/eventscraper serve --config config.yaml
//   - One-shot scrape: go run ./cmd/eventscraper scrape
//   - Configure env vars: PORT, DATABASE_URL, SCRAPE_INTERVAL, or any EVENTS_* key (EVENTS_STORAGE_BACKEND,
//     EVENTS_PUBSUB_PROJECT_ID, EVENTS_AUTH_API_KEY, ...).
package main
