// Package domain defines the flight journal data model.
//
// The User aggregate is the root: it owns research-subject Profiles, and each
// Profile owns its FlightSessions, Baselines and QuestionnaireData. A
// DraftSession lives outside the aggregate and holds an uncommitted intake.
//
// This package has no internal dependencies. Other packages import it for the
// shared types, the error taxonomy and the range checks that guard every write.
//
// Serialization uses the browser-era JSON field names (camelCase) so that
// exported files and imported browser dumps share one shape.
package domain
