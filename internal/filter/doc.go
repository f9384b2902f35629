// Package filter owns the event-level kinematic decision engine.
//
// Responsibilities: one accumulation pass over an event's jets building the
// sums the configured mode needs (MHT vector, HT, selected-jet list), the
// AlphaT evaluator (exact bipartition search and the fast approximation), and
// the per-mode threshold dispatch that produces the accept decision and the
// published jet list.
// Key types: Filter, Params, Mode, Result.
//
// A Filter holds only validated, immutable parameters. All per-event
// accumulation lives in a runningState created inside Evaluate, so one Filter
// may evaluate many events concurrently.
//
// No I/O is allowed in this package apart from diagnostic logging through
// internal/monitoring.
package filter
