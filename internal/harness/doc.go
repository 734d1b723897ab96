// Package harness runs journal scenarios described in YAML.
//
// A scenario drives the real state store, workflows and exporters against a
// fresh in-memory database with a deterministic clock, sequential ids and a
// scripted insight service, then checks assertions on the final state.
//
// # Scenario Format
//
//	name: landing_commit
//	description: "Landing marks the session completed"
//	clock_start: 2026-01-01T09:00:00Z
//	insight:
//	  text: "Stay hydrated."
//	steps:
//	  - op: login
//	    args: { email: "a@b.com" }
//	  - op: add_session
//	    args: { id: s1, substance: LSD, dosage: 100 }
//	  - op: land
//	    args: { session: s1, debrief: Calm, well_being: 8, tags: [INTEGRATION] }
//	  - op: add_profile
//	    args: { name: "" }
//	    expect_error: VALIDATION
//	assertions:
//	  - type: session_field
//	    session: s1
//	    field: phaseC.oneDay.wellBeing
//	    equals: 8
//
// # Operations
//
// login, add_profile, use_profile, update_profile, complete_tutorial,
// toggle_theme, add_session, update_tags, land, retro, record_outcome,
// append_log, save_notes, quick_tag, duplicate, intake, discard_draft,
// add_baseline, take_questionnaire, forecast, insights.
//
// Sessions and profiles are referenced by the id given in the scenario or,
// for profiles, by name.
//
// # Assertions
//
// profile_count, active_profile_name, session_field, draft_absent,
// baseline_count, csv_lines, insight_text, tutorial_completed,
// forecast_well_being.
//
// # Golden Files
//
// RunWithGolden snapshots the final user as canonical JSON under
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
