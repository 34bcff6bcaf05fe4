// Package reconciler implements the periodic billing pass over all
// memberships: unconditional invoice generation followed by a day-granular
// reminder decision per membership.
//
// # Pass semantics
//
// The pass is triggered by an external scheduler (cron in the binaries, or
// an HTTP call) and is directly invocable with an explicit "today" for
// deterministic testing. Within a pass each membership is an independent,
// ordered unit: invoice first, then at most one reminder. Units run with
// bounded parallelism and the pass returns only after every unit finished,
// so completion is always observable.
//
// Overlapping triggers are rejected via a PassLock: a LocalLock for a
// single process, or a RedisLock shared across replicas. A rejected
// trigger returns ErrPassInProgress and performs no work.
package reconciler
