// Package resultcache provides the tiered lookup cache: a capacity-bounded
// in-memory tier with FIFO eviction, mirrored to a JSON file so warm entries
// survive restarts. Successful payloads and degraded placeholders carry
// different lifetimes so a degraded result is retried soon while a good one
// is served for a day.
package resultcache
