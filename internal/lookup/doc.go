// Package lookup orchestrates word lookups: it normalizes input, consults
// the result cache, rotates provider credentials on quota exhaustion, and
// degrades gracefully when the provider cannot answer. Degraded artifacts
// are tagged, never masked, and cached with a short lifetime so the next
// visitor retries soon.
package lookup
