// Package workflow assembles sessions across several steps before handing
// complete records to the state store.
//
// Intake builds a new session and keeps the draft in sync on every change.
// Landing completes an active session with one update. Retrospective
// records an already-finished session in one pass. Editor covers the
// single-field edits made from the session detail view.
//
// Workflows hold no state the store does not also hold, apart from values
// typed into a wizard that has not been committed yet.
package workflow
