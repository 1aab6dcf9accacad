package bandwidth

import (
	"encoding/json"
	"strings"

	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
	"github.com/codeGROOVE-dev/bandwidth/pkg/interval"
	"github.com/codeGROOVE-dev/bandwidth/pkg/persona"
)

// Level is the discrete bandwidth bucket of a slot.
type Level string

// Bandwidth levels. Thresholds: score >= 0.7 is high, >= 0.4 is medium.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// LevelFor buckets a score into its bandwidth level.
func LevelFor(score float64) Level {
	switch {
	case score >= 0.7:
		return LevelHigh
	case score >= 0.4:
		return LevelMedium
	default:
		return LevelLow
	}
}

// PenaltyBreakdown records every intermediate scoring term for a slot.
// All values are rounded to 3 decimals for reporting.
type PenaltyBreakdown struct {
	UninterruptedScore    float64 `json:"uninterruptedScore"`
	AdjacencyPenalty      float64 `json:"adjacencyPenalty"`
	DensityPenalty        float64 `json:"densityPenalty"`
	AversionLoadPenalty   float64 `json:"aversionLoadPenalty"`
	AversionTypePenalty   float64 `json:"aversionTypePenalty"`
	DislikedTypePenalty   float64 `json:"dislikedTypePenalty"`
	RawBandwidthScore     float64 `json:"rawBandwidthScore"`
	MinimumShortSlotScore float64 `json:"minimumShortSlotScore"`
	FinalBandwidthScore   float64 `json:"finalBandwidthScore"`
}

// ScoredSlot is a free interval enriched with its bandwidth estimate.
// Start and End are ISO-8601 strings carrying the analysis zone's UTC
// offset. Slots are created once per analysis and never mutated.
type ScoredSlot struct {
	Start            string           `json:"start"`
	End              string           `json:"end"`
	DurationMinutes  int              `json:"durationMinutes"`
	BandwidthScore   float64          `json:"bandwidthScore"`
	BandwidthLevel   Level            `json:"bandwidthLevel"`
	PenaltyBreakdown PenaltyBreakdown `json:"penaltyBreakdown"`
}

// DayAnalysis aggregates one day's scored slots and fit metrics. Reported
// scores are rounded to 3 decimals; computation happens in full precision
// before the rounding.
type DayAnalysis struct {
	Date                          string                           `json:"date"`
	AvailableSlots                []ScoredSlot                     `json:"availableSlots"`
	DailyLoadScore                float64                          `json:"dailyLoadScore"`
	MeetingPreferenceScore        float64                          `json:"meetingPreferenceScore"`
	MeetingTypeAffinityScore      float64                          `json:"meetingTypeAffinityScore"`
	InferredPreferredMeetingTypes []calendar.MeetingType           `json:"inferredPreferredMeetingTypes"`
	PreferenceConfidenceScore     float64                          `json:"preferenceConfidenceScore"`
	MeetingAversionScore          float64                          `json:"meetingAversionScore"`
	LoadFitScore                  float64                          `json:"loadFitScore"`
	PersonaFitScore               float64                          `json:"personaFitScore"`
	MeetingTypeMinutes            map[calendar.MeetingType]float64 `json:"meetingTypeMinutes"`
	TotalMeetings                 int                              `json:"totalMeetings"`
	TotalBusyMinutes              int                              `json:"totalBusyMinutes"`

	// Profile is the persona the analysis ran under, after fallback
	// resolution. Boundary code reads the id and label from here.
	Profile persona.Profile `json:"-"`
}

// MultiDayAnalysis aggregates independent per-day analyses.
type MultiDayAnalysis struct {
	Days                          []DayAnalysis                    `json:"days"`
	AverageDailyLoadScore         float64                          `json:"averageDailyLoadScore"`
	AveragePersonaFitScore        float64                          `json:"averagePersonaFitScore"`
	AggregateMeetingTypeMinutes   map[calendar.MeetingType]float64 `json:"aggregateMeetingTypeMinutes"`
	InferredPreferredMeetingTypes []calendar.MeetingType           `json:"inferredPreferredMeetingTypes"`
	MeetingTypeAffinityScore      float64                          `json:"meetingTypeAffinityScore"`
	PreferenceConfidenceScore     float64                          `json:"preferenceConfidenceScore"`

	Profile persona.Profile `json:"-"`
}

// Schedule is one day's worth of events in a multi-day request.
type Schedule struct {
	Date   string              `json:"date"`
	Events []calendar.RawEvent `json:"events"`
}

// AdvancedFlag selects the detailed response view. In JSON it accepts a
// boolean or one of the truthy strings "1", "true", "yes", "on"
// (case-insensitive); anything else, numbers included, is false.
type AdvancedFlag bool

// UnmarshalJSON implements lenient boolean decoding.
func (f *AdvancedFlag) UnmarshalJSON(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*f = AdvancedFlag(truthy(value))
	return nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		}
	default:
	}
	return false
}

// busyBlock is a clipped busy interval with its resolved meeting type.
// The type weight is resolved once from the active persona and immutable
// thereafter.
type busyBlock struct {
	span        interval.Span
	meetingType calendar.MeetingType
	typeWeight  float64
}
