// Package server exposes the HTTP API consumed by the Mini App frontend:
// word lookups, generated media, gamification state, history, and the
// leaderboard. Handlers translate classified service errors to status
// codes; degraded lookup artifacts are still HTTP 200 because the payload
// itself carries the degradation flag.
package server
