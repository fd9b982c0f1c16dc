// Package state keeps per-user conversation state for multi-step flows.
// Sessions expire after an idle window; every mutation refreshes it.
package state
