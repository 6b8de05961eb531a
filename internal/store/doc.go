// Package store records playback sessions to SQLite.
//
// A session is one engine Start..(finish|stop) run of a track group. Its
// events are the engine's observer events in emission order:
//   - sessions: group identity, asset hash, owner, how the session ended
//   - events: one row per event, keyed by (session_id, idx)
//
// # Ordering
//
// All ordering uses logical columns, never timestamps. Sessions sort by
// created_seq (the seq of their play event) then id; events sort by idx, the
// per-session ordinal. Update samples share seq 0, so seq alone is not a key.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
