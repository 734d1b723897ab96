// Package route encodes and decodes the hash addresses used to link to a
// view or a single session ("#history", "#session/<id>").
package route

import (
	"net/url"
	"strings"
)

// View names a top-level screen.
type View string

const (
	Dashboard      View = "dashboard"
	Profiles       View = "profiles"
	ProfileRecord  View = "profile-record"
	History        View = "history"
	FlightLogs     View = "flight-logs"
	LogFlight      View = "log-flight"
	Baselines      View = "baselines"
	NewSession     View = "new-session"
	PostFlight     View = "post-flight"
	Questionnaires View = "questionnaires"
	HarmReduction  View = "harm-reduction"
	Session        View = "session"
)

var views = map[View]bool{
	Dashboard: true, Profiles: true, ProfileRecord: true, History: true,
	FlightLogs: true, LogFlight: true, Baselines: true, NewSession: true,
	PostFlight: true, Questionnaires: true, HarmReduction: true,
}

const sessionPrefix = string(Session) + "/"

// Route is a decoded address.
type Route struct {
	View      View
	SessionID string
}

// Fragment renders the route with its leading '#'.
func (r Route) Fragment() string {
	if r.View == Session {
		return SessionFragment(r.SessionID)
	}
	return "#" + string(r.View)
}

// Parse decodes a fragment with or without its leading '#'. Empty and
// unknown fragments resolve to the dashboard, as does a session address
// whose id does not decode.
func Parse(fragment string) Route {
	f := strings.TrimPrefix(fragment, "#")
	if rest, ok := strings.CutPrefix(f, sessionPrefix); ok {
		id, err := url.PathUnescape(rest)
		if err != nil || id == "" {
			return Route{View: Dashboard}
		}
		return Route{View: Session, SessionID: id}
	}
	if views[View(f)] {
		return Route{View: View(f)}
	}
	return Route{View: Dashboard}
}

// SessionFragment addresses a session. The id is path-escaped, so ids
// containing '/' or '#' survive a Parse round trip unchanged.
func SessionFragment(id string) string {
	return "#" + sessionPrefix + url.PathEscape(id)
}
