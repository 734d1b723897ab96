// Package export writes sessions as CSV or a single session as JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

// Header is the first CSV row.
var Header = []string{"ID", "Timestamp", "Substance", "Dosage", "Set_Mood", "Setting_Social", "Outcome_1h_Mood", "Tags"}

// TagSeparator joins a session's tags inside the Tags column.
const TagSeparator = ";"

// TimestampFormat is ISO-8601 in UTC with milliseconds.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// CSV writes one header row and one row per session, in the order given.
func CSV(w io.Writer, sessions []domain.FlightSession) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range sessions {
		if err := cw.Write(Row(s)); err != nil {
			return fmt.Errorf("write csv row %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Row renders the CSV columns of one session. Outcome_1h_Mood is empty
// until the one-hour snapshot exists.
func Row(s domain.FlightSession) []string {
	oneHour := ""
	if s.PhaseC.OneHour != nil {
		oneHour = strconv.Itoa(s.PhaseC.OneHour.Mood)
	}
	return []string{
		s.ID,
		s.PhaseA.Timestamp.UTC().Format(TimestampFormat),
		string(s.PhaseA.Substance),
		strconv.FormatFloat(s.PhaseA.Dosage, 'f', -1, 64),
		strconv.Itoa(s.PhaseA.Mood),
		string(s.PhaseA.Social),
		oneHour,
		strings.Join(s.Tags, TagSeparator),
	}
}

// CSVFilename is blackbox_export_<YYYY-MM-DD>.csv for the UTC date of now.
func CSVFilename(now time.Time) string {
	return "blackbox_export_" + now.UTC().Format("2006-01-02") + ".csv"
}

// JSON writes the full session pretty-printed with two-space indentation.
func JSON(w io.Writer, s domain.FlightSession) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return nil
}

// JSONFilename is flight_session_<first 8 characters of id>.json.
func JSONFilename(s domain.FlightSession) string {
	id := []rune(s.ID)
	if len(id) > 8 {
		id = id[:8]
	}
	return "flight_session_" + string(id) + ".json"
}
