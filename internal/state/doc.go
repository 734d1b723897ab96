// Package state owns the journal's in-memory User aggregate and draft.
//
// A Store is created once at startup over a durable Backend and passed to
// every consumer; there is no package-level state. Each public method is
// its own atomic unit:
//
//	clone current aggregate -> apply change -> validate -> persist -> swap
//
// so a validation or persistence failure leaves both memory and storage
// exactly as they were. Readers receive deep copies and can never alias the
// aggregate.
//
// Profile-scoped operations (AddSession, UpdateSession, AddBaseline,
// AddQuestionnaireResult) act on the active profile only and fail with a
// NO_ACTIVE_PROFILE error when none resolves.
package state
