// Command etymon is the companion CLI for the etymond server: it manages
// configuration, runs one-shot word lookups against the provider, and
// inspects stored progress, history, and the leaderboard.
package main
