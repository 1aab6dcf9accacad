package bandwidth

import (
	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
)

// SlotView is the reported shape of a scored slot. The penalty breakdown
// only appears in advanced responses.
type SlotView struct {
	Start            string            `json:"start"`
	End              string            `json:"end"`
	DurationMinutes  int               `json:"durationMinutes"`
	BandwidthScore   float64           `json:"bandwidthScore"`
	BandwidthLevel   Level             `json:"bandwidthLevel"`
	PenaltyBreakdown *PenaltyBreakdown `json:"penaltyBreakdown,omitempty"`
}

// DayView is the reported shape of a day analysis. The basic view carries
// the slots and headline scores; the advanced view adds the preference,
// aversion, and accounting fields.
type DayView struct {
	Date                          string                           `json:"date"`
	AvailableSlots                []SlotView                       `json:"availableSlots"`
	DailyLoadScore                float64                          `json:"dailyLoadScore"`
	PersonaFitScore               float64                          `json:"personaFitScore"`
	InferredPreferredMeetingTypes []calendar.MeetingType           `json:"inferredPreferredMeetingTypes"`
	MeetingPreferenceScore        *float64                         `json:"meetingPreferenceScore,omitempty"`
	MeetingTypeAffinityScore      *float64                         `json:"meetingTypeAffinityScore,omitempty"`
	PreferenceConfidenceScore     *float64                         `json:"preferenceConfidenceScore,omitempty"`
	MeetingAversionScore          *float64                         `json:"meetingAversionScore,omitempty"`
	LoadFitScore                  *float64                         `json:"loadFitScore,omitempty"`
	MeetingTypeMinutes            map[calendar.MeetingType]float64 `json:"meetingTypeMinutes,omitempty"`
	TotalMeetings                 *int                             `json:"totalMeetings,omitempty"`
	TotalBusyMinutes              *int                             `json:"totalBusyMinutes,omitempty"`
}

// DayResponse is the full single-day API payload.
type DayResponse struct {
	TimeZone         string `json:"timeZone"`
	Persona          string `json:"persona"`
	PersonaLabel     string `json:"personaLabel"`
	AdvancedResponse bool   `json:"advancedResponse"`
	DayView
}

// MultiDayResponse is the full multi-day API payload.
type MultiDayResponse struct {
	TimeZone                      string                           `json:"timeZone"`
	Persona                       string                           `json:"persona"`
	PersonaLabel                  string                           `json:"personaLabel"`
	AdvancedResponse              bool                             `json:"advancedResponse"`
	Days                          []DayView                        `json:"days"`
	AverageDailyLoadScore         float64                          `json:"averageDailyLoadScore"`
	AveragePersonaFitScore        float64                          `json:"averagePersonaFitScore"`
	InferredPreferredMeetingTypes []calendar.MeetingType           `json:"inferredPreferredMeetingTypes"`
	AggregateMeetingTypeMinutes   map[calendar.MeetingType]float64 `json:"aggregateMeetingTypeMinutes,omitempty"`
	MeetingTypeAffinityScore      *float64                         `json:"meetingTypeAffinityScore,omitempty"`
	PreferenceConfidenceScore     *float64                         `json:"preferenceConfidenceScore,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// View renders the analysis as a reportable payload.
func (d *DayAnalysis) View(advanced bool) DayView {
	slots := make([]SlotView, len(d.AvailableSlots))
	for i, slot := range d.AvailableSlots {
		slots[i] = SlotView{
			Start:           slot.Start,
			End:             slot.End,
			DurationMinutes: slot.DurationMinutes,
			BandwidthScore:  slot.BandwidthScore,
			BandwidthLevel:  slot.BandwidthLevel,
		}
		if advanced {
			breakdown := slot.PenaltyBreakdown
			slots[i].PenaltyBreakdown = &breakdown
		}
	}

	view := DayView{
		Date:                          d.Date,
		AvailableSlots:                slots,
		DailyLoadScore:                d.DailyLoadScore,
		PersonaFitScore:               d.PersonaFitScore,
		InferredPreferredMeetingTypes: d.InferredPreferredMeetingTypes,
	}

	if advanced {
		view.MeetingPreferenceScore = ptr(d.MeetingPreferenceScore)
		view.MeetingTypeAffinityScore = ptr(d.MeetingTypeAffinityScore)
		view.PreferenceConfidenceScore = ptr(d.PreferenceConfidenceScore)
		view.MeetingAversionScore = ptr(d.MeetingAversionScore)
		view.LoadFitScore = ptr(d.LoadFitScore)
		view.MeetingTypeMinutes = d.MeetingTypeMinutes
		view.TotalMeetings = ptr(d.TotalMeetings)
		view.TotalBusyMinutes = ptr(d.TotalBusyMinutes)
	}

	return view
}

// Response assembles the single-day payload for a given zone and view.
func (d *DayAnalysis) Response(timeZone string, advanced bool) DayResponse {
	return DayResponse{
		TimeZone:         timeZone,
		Persona:          d.Profile.ID,
		PersonaLabel:     d.Profile.Label,
		AdvancedResponse: advanced,
		DayView:          d.View(advanced),
	}
}

// Response assembles the multi-day payload for a given zone and view.
func (m *MultiDayAnalysis) Response(timeZone string, advanced bool) MultiDayResponse {
	days := make([]DayView, len(m.Days))
	for i := range m.Days {
		days[i] = m.Days[i].View(advanced)
	}

	response := MultiDayResponse{
		TimeZone:                      timeZone,
		Persona:                       m.Profile.ID,
		PersonaLabel:                  m.Profile.Label,
		AdvancedResponse:              advanced,
		Days:                          days,
		AverageDailyLoadScore:         m.AverageDailyLoadScore,
		AveragePersonaFitScore:        m.AveragePersonaFitScore,
		InferredPreferredMeetingTypes: m.InferredPreferredMeetingTypes,
	}

	if advanced {
		response.AggregateMeetingTypeMinutes = m.AggregateMeetingTypeMinutes
		response.MeetingTypeAffinityScore = ptr(m.MeetingTypeAffinityScore)
		response.PreferenceConfidenceScore = ptr(m.PreferenceConfidenceScore)
	}

	return response
}
