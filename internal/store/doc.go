// Package store provides SQLite-backed durable storage for the journal.
//
// The browser build kept three values in local storage: the serialized User
// aggregate, the serialized draft, and the dark-mode flag. Here each of
// those is a row in the documents table, keyed by KeyUser, KeyDraft and
// KeyDarkMode.
//
// # Envelope
//
// Every body is stored as {"schema_version": N, "data": ...}. Bodies written
// before the envelope existed (schema version 0, for example a raw browser
// dump) are upgraded when read and on the next open.
//
// # Revisions
//
// Each write that changes a document also appends a row to revisions, so a
// bad write can be inspected and an earlier body restored. Writes whose
// canonical content hash matches the stored one are skipped entirely.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All failures are reported as domain PERSISTENCE errors.
package store
