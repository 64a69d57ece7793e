// Package store persists user progress and lookup history in SQLite.
//
// The Store manages the database connection, schema initialization, user
// stats upserts, the monotonic client-snapshot merge, and the history item
// table the history package builds on. Schema changes bump the version in
// schema.go; users delete the database to adopt the new schema.
package store
