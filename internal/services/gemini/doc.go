// Package gemini wraps the generative language REST API behind typed
// calls for structured word entries, summaries, speech, and images.
//
// The client owns per-call retry policy: transient overload (503, 5xx,
// timeouts) retries with exponential backoff inside a hard wall-clock
// budget, while quota exhaustion (429) returns immediately so the caller
// can rotate to a different credential. Safety blocks and malformed
// requests are terminal. The client performs no caching and no
// persistence.
package gemini
