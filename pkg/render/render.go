// Package render provides terminal visualization of bandwidth analyses.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/bandwidth/pkg/bandwidth"
	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
)

// One bar segment per 15 minutes keeps a full workday under 40 columns.
const minutesPerSegment = 15

func levelColor(level bandwidth.Level) *color.Color {
	switch level {
	case bandwidth.LevelHigh:
		return color.New(color.FgGreen)
	case bandwidth.LevelMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// clockOf extracts HH:MM from an engine-produced ISO-8601 slot timestamp,
// which always carries full date and time fields. Anything shorter is
// returned unchanged.
func clockOf(iso string) string {
	if len(iso) < 16 {
		return iso
	}
	return iso[11:16]
}

func typeNames(types []calendar.MeetingType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

// DayReport renders a single-day analysis for terminal display.
func DayReport(analysis *bandwidth.DayAnalysis, timeZone string) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("\n📅 %s (%s, %s persona)\n", analysis.Date, timeZone, analysis.Profile.ID))
	output.WriteString(strings.Repeat("─", 50) + "\n")

	fitColor := levelColor(bandwidth.LevelFor(analysis.PersonaFitScore))
	output.WriteString(fmt.Sprintf("⚡ Persona fit:   %s (load fit %.3f, preference %.3f)\n",
		fitColor.Sprintf("%.3f", analysis.PersonaFitScore),
		analysis.LoadFitScore, analysis.MeetingPreferenceScore))
	output.WriteString(fmt.Sprintf("📈 Daily load:    %.3f (%d busy min, %d meetings)\n",
		analysis.DailyLoadScore, analysis.TotalBusyMinutes, analysis.TotalMeetings))

	if analysis.PreferenceConfidenceScore > 0 && len(analysis.InferredPreferredMeetingTypes) > 0 {
		output.WriteString(fmt.Sprintf("🔍 Leans toward:  %s (%.0f%% confidence)\n",
			strings.Join(typeNames(analysis.InferredPreferredMeetingTypes), ", "),
			analysis.PreferenceConfidenceScore*100))
	}

	if len(analysis.AvailableSlots) == 0 {
		grey := color.New(color.FgHiBlack)
		output.WriteString(grey.Sprint("   No open slots in the workday window.") + "\n")
		return output.String()
	}

	output.WriteString("\n")
	for i := range analysis.AvailableSlots {
		slot := &analysis.AvailableSlots[i]
		segments := slot.DurationMinutes / minutesPerSegment
		if segments < 1 {
			segments = 1
		}
		bar := levelColor(slot.BandwidthLevel).Sprint(strings.Repeat("█", segments))
		output.WriteString(fmt.Sprintf("%s → %s %s %.3f %s (%d min)\n",
			clockOf(slot.Start), clockOf(slot.End), bar,
			slot.BandwidthScore, slot.BandwidthLevel, slot.DurationMinutes))
	}

	return output.String()
}

// MultiDayReport renders a multi-day analysis, one day section per schedule
// plus an aggregate footer.
func MultiDayReport(analysis *bandwidth.MultiDayAnalysis, timeZone string) string {
	var output strings.Builder

	for i := range analysis.Days {
		output.WriteString(DayReport(&analysis.Days[i], timeZone))
	}

	output.WriteString(fmt.Sprintf("\n📊 Across %d days\n", len(analysis.Days)))
	output.WriteString(strings.Repeat("─", 50) + "\n")
	avgColor := levelColor(bandwidth.LevelFor(analysis.AveragePersonaFitScore))
	output.WriteString(fmt.Sprintf("⚡ Average fit:   %s (average load %.3f)\n",
		avgColor.Sprintf("%.3f", analysis.AveragePersonaFitScore),
		analysis.AverageDailyLoadScore))
	if analysis.PreferenceConfidenceScore > 0 && len(analysis.InferredPreferredMeetingTypes) > 0 {
		output.WriteString(fmt.Sprintf("🔍 Leans toward:  %s (%.0f%% confidence)\n",
			strings.Join(typeNames(analysis.InferredPreferredMeetingTypes), ", "),
			analysis.PreferenceConfidenceScore*100))
	}

	return output.String()
}
