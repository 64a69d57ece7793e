// Package gamification maintains per-user progress: experience points,
// levels, daily visit streaks, and badges. A keyed mutex serializes the
// load-mutate-persist cycle per user so concurrent actions for the same
// user never lose updates, while different users proceed in parallel.
package gamification
