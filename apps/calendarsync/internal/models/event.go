package models

import (
	"fmt"
	"strings"
	"time"

	"schedulesync.xdoubleu.com/internal/fingerprint"
)

const (
	DateFormat      = "02.01.2006"
	ClockFormat     = "15:04"
	DefaultLocation = "Online"
	TimeRangeLength = len("09:00-10:20")
)

// SourceEvent is one scheduled session as delivered by the schedule feed.
type SourceEvent struct {
	Discipline   string
	Date         string
	TimeRange    string
	Room         string
	Instructor   string
	StudentGroup string
	Note         string
}

// Fields returns the semantic fields used for identity.
func (e SourceEvent) Fields() map[string]string {
	return map[string]string{
		"discipline":    e.Discipline,
		"date":          e.Date,
		"time_range":    e.TimeRange,
		"room":          e.Room,
		"instructor":    e.Instructor,
		"student_group": e.StudentGroup,
		"note":          e.Note,
	}
}

func (e SourceEvent) Fingerprint() fingerprint.Fingerprint {
	return fingerprint.Of(e.Fields())
}

// IsScheduled reports whether the record describes an actual class.
// Slots without a discipline name are placeholders.
func (e SourceEvent) IsScheduled() bool {
	return strings.TrimSpace(e.Discipline) != ""
}

// Interval parses Date and the fixed-width "HH:MM-HH:MM" TimeRange in loc.
func (e SourceEvent) Interval(loc *time.Location) (time.Time, time.Time, error) {
	if len(e.TimeRange) != TimeRangeLength || e.TimeRange[5] != '-' {
		return time.Time{}, time.Time{}, &ParseError{
			Field: "time_range",
			Value: e.TimeRange,
			Err:   fmt.Errorf("expected HH:MM-HH:MM"),
		}
	}

	start, err := time.ParseInLocation(
		DateFormat+" "+ClockFormat,
		e.Date+" "+e.TimeRange[:5],
		loc,
	)
	if err != nil {
		return time.Time{}, time.Time{}, &ParseError{
			Field: "time_range",
			Value: e.Date + " " + e.TimeRange,
			Err:   err,
		}
	}

	end, err := time.ParseInLocation(
		DateFormat+" "+ClockFormat,
		e.Date+" "+e.TimeRange[6:],
		loc,
	)
	if err != nil {
		return time.Time{}, time.Time{}, &ParseError{
			Field: "time_range",
			Value: e.Date + " " + e.TimeRange,
			Err:   err,
		}
	}

	return start, end, nil
}
