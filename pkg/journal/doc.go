// Package journal records rate limiting admission decisions for audit.
//
// Every check performed through the limits manager can be captured as a
// Record: who asked, how much, which algorithm decided, whether the
// request was admitted, and the retry hint handed back on rejection.
// Records describe decisions only — limiter state itself is never
// persisted, and restarting a process always starts its limiters fresh.
//
// The Recorder writes asynchronously through a buffered channel so the
// admission path never blocks on storage. Backends live in the storage
// subpackage (in-memory for tests, SQLite for durable journals); the
// retention subpackage prunes old records on a cron schedule.
package journal
