// Package history persists routing events (bans, early recoveries,
// reconfigurations, exhaustions) in a local SQLite database so an operator
// can reconstruct why traffic moved between endpoints after the fact.
//
// The store is append-only from the proxy's perspective; a cron-scheduled
// pruner enforces the retention window.
package history
