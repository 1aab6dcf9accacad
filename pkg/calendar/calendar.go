// Package calendar defines the raw event shape the analyzer consumes and
// the closed meeting-type enumeration.
package calendar

import (
	"strings"
	"time"

	"github.com/codeGROOVE-dev/bandwidth/pkg/tzclock"
	"github.com/codeGROOVE-dev/bandwidth/pkg/workday"
)

// MeetingType classifies an event. The set is closed: anything outside it
// normalizes to TypeOther.
type MeetingType string

// Meeting types, in canonical order. The order matters: preference
// inference breaks minute ties by this declaration order.
const (
	TypeInvestors  MeetingType = "investors"
	TypeCandidates MeetingType = "candidates"
	TypeCustomers  MeetingType = "customers"
	TypeOther      MeetingType = "other"
)

// Types lists all meeting types in canonical order.
var Types = []MeetingType{TypeInvestors, TypeCandidates, TypeCustomers, TypeOther}

// legacy singular aliases kept for old clients
var typeAliases = map[string]MeetingType{
	"investor":  TypeInvestors,
	"candidate": TypeCandidates,
	"customer":  TypeCustomers,
	"internal":  TypeOther,
}

// NormalizeType maps an arbitrary input string onto the closed enum. The
// mapping is total: unknown and empty inputs become TypeOther.
func NormalizeType(raw string) MeetingType {
	value := strings.ToLower(strings.TrimSpace(raw))

	for _, t := range Types {
		if value == string(t) {
			return t
		}
	}
	if alias, ok := typeAliases[value]; ok {
		return alias
	}

	return TypeOther
}

// EventTime is one endpoint of a raw event: either a timed RFC 3339
// timestamp or an all-day date.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// RawEvent is the calendar-like input shape. Only the fields the engine
// reads are modeled; unknown fields are ignored by the JSON decoder.
type RawEvent struct {
	Status             string              `json:"status,omitempty"`
	Start              *EventTime          `json:"start,omitempty"`
	End                *EventTime          `json:"end,omitempty"`
	MeetingType        string              `json:"meetingType,omitempty"`
	Type               string              `json:"type,omitempty"`
	ExtendedProperties *ExtendedProperties `json:"extendedProperties,omitempty"`
}

// ExtendedProperties carries the private property bag some providers
// attach to events.
type ExtendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
}

// ResolveTime resolves an event endpoint to an absolute instant. A timed
// field takes precedence and parses as an absolute timestamp; an all-day
// date resolves to local midnight in zone. Unresolvable endpoints return
// ok=false and the event is skipped by the normalizer.
func (e *EventTime) ResolveTime(zone string) (time.Time, bool) {
	if e == nil {
		return time.Time{}, false
	}

	if e.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, e.DateTime); err == nil {
			return t.UTC(), true
		}
		return time.Time{}, false
	}

	if e.Date != "" {
		date, ok := workday.ParseDate(e.Date)
		if !ok {
			return time.Time{}, false
		}
		return tzclock.ToInstant(date.Year, date.Month, date.Day, 0, 0, zone), true
	}

	return time.Time{}, false
}

// MeetingTypeOf extracts and normalizes the event's meeting type. Priority:
// the private extended property, then the top-level meetingType field, then
// the generic type field.
func (e *RawEvent) MeetingTypeOf() MeetingType {
	if e.ExtendedProperties != nil {
		if raw, ok := e.ExtendedProperties.Private["meetingType"]; ok && raw != "" {
			return NormalizeType(raw)
		}
	}
	if e.MeetingType != "" {
		return NormalizeType(e.MeetingType)
	}
	if e.Type != "" {
		return NormalizeType(e.Type)
	}

	return TypeOther
}
