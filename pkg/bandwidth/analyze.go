package bandwidth

import (
	"math"
	"sort"

	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
	"github.com/codeGROOVE-dev/bandwidth/pkg/interval"
	"github.com/codeGROOVE-dev/bandwidth/pkg/persona"
	"github.com/codeGROOVE-dev/bandwidth/pkg/workday"
)

// clamp bounds v to [0, 1].
func clamp(v float64) float64 {
	return clampTo(v, 0, 1)
}

func clampTo(v, low, high float64) float64 {
	return math.Min(high, math.Max(low, v))
}

// round3 rounds for external reporting. Internal computation stays full
// precision.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func emptyTypeMinutes() map[calendar.MeetingType]float64 {
	minutes := make(map[calendar.MeetingType]float64, len(calendar.Types))
	for _, t := range calendar.Types {
		minutes[t] = 0
	}
	return minutes
}

// AnalyzeDay scores one workday. dateString is YYYY-MM-DD or empty for
// "today in timeZone"; malformed dates are a caller-side validation
// concern and fall back to today here. Unknown persona ids resolve to the
// default profile. The call never fails: malformed events are skipped,
// malformed zones degrade to UTC offsets.
func (a *Analyzer) AnalyzeDay(events []calendar.RawEvent, timeZone, dateString, personaID string) *DayAnalysis {
	profile := a.personas.Lookup(personaID)
	window := workday.Resolve(timeZone, dateString, a.now())

	// clamp(1 - loadTarget): how averse this persona is to meetings at all.
	personaAversion := clamp(1 - profile.LoadTarget)

	typed, typeMinutes, meetingCount := a.normalizeEvents(events, timeZone, window, profile)

	bare := make([]interval.Span, len(typed))
	for i, block := range typed {
		bare[i] = block.span
	}
	mergedBusy := interval.Merge(bare)
	freeSlots := interval.Invert(mergedBusy, window.Start, window.End)

	totalBusyMinutes := int(math.Round(interval.TotalMinutes(mergedBusy)))
	workdayMinutes := window.Minutes()

	dailyLoad := 0.0
	if workdayMinutes > 0 {
		dailyLoad = clamp(float64(totalBusyMinutes) / workdayMinutes)
	}

	meetingPreference := preferenceScore(typeMinutes, profile)
	inferred := inferPreferences(typeMinutes, profile)

	loadFit := clamp(1 - math.Abs(dailyLoad-profile.LoadTarget)/profile.LoadTolerance)
	personaFit := clamp(meetingPreference*0.6 + loadFit*0.4)

	day := dayContext{
		zone:              timeZone,
		profile:           profile,
		dailyLoad:         dailyLoad,
		meetingPreference: meetingPreference,
		personaAversion:   personaAversion,
		totalMeetings:     meetingCount,
		workdayMinutes:    workdayMinutes,
	}

	slots := make([]ScoredSlot, 0, len(freeSlots))
	for _, slot := range freeSlots {
		if !slot.End.After(slot.Start) {
			continue
		}
		slots = append(slots, scoreSlot(slot, mergedBusy, typed, day))
	}

	a.logger.Debug("day analyzed",
		"date", window.Date.String(),
		"zone", timeZone,
		"persona", profile.ID,
		"meetings", meetingCount,
		"busy_minutes", totalBusyMinutes,
		"free_slots", len(slots))

	return &DayAnalysis{
		Date:                          window.Date.String(),
		AvailableSlots:                slots,
		DailyLoadScore:                round3(dailyLoad),
		MeetingPreferenceScore:        round3(meetingPreference),
		MeetingTypeAffinityScore:      inferred.affinity,
		InferredPreferredMeetingTypes: inferred.preferredTypes,
		PreferenceConfidenceScore:     inferred.confidence,
		MeetingAversionScore:          round3(personaAversion),
		LoadFitScore:                  round3(loadFit),
		PersonaFitScore:               round3(personaFit),
		MeetingTypeMinutes:            typeMinutes,
		TotalMeetings:                 meetingCount,
		TotalBusyMinutes:              totalBusyMinutes,
		Profile:                       profile,
	}
}

// normalizeEvents maps raw events onto clipped typed busy blocks, sorted
// by start. Cancelled, unresolvable, degenerate, and fully-clipped-away
// events are silent no-ops, not errors. Every surviving event counts
// toward the day's meeting total even if its interval later merges with a
// neighbor.
func (a *Analyzer) normalizeEvents(events []calendar.RawEvent, zone string, window workday.Window, profile persona.Profile) (blocks []busyBlock, typeMinutes map[calendar.MeetingType]float64, meetingCount int) {
	typeMinutes = emptyTypeMinutes()

	for i := range events {
		event := &events[i]
		if event.Status == "cancelled" {
			continue
		}

		start, okStart := event.Start.ResolveTime(zone)
		end, okEnd := event.End.ResolveTime(zone)
		if !okStart || !okEnd || !end.After(start) {
			a.logger.Debug("skipping unresolvable event", "index", i)
			continue
		}

		if start.Before(window.Start) {
			start = window.Start
		}
		if end.After(window.End) {
			end = window.End
		}
		if !end.After(start) {
			continue
		}

		meetingType := event.MeetingTypeOf()
		span := interval.Span{Start: start, End: end}

		meetingCount++
		typeMinutes[meetingType] += span.Minutes()
		blocks = append(blocks, busyBlock{
			span:        span,
			meetingType: meetingType,
			typeWeight:  profile.TypeWeight(meetingType),
		})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].span.Start.Before(blocks[j].span.Start)
	})

	return blocks, typeMinutes, meetingCount
}

// preferenceScore is the minute-weighted average of persona type weights
// across the day's typed minutes, falling back to the "other" weight when
// nothing was booked.
func preferenceScore(typeMinutes map[calendar.MeetingType]float64, profile persona.Profile) float64 {
	total := 0.0
	weighted := 0.0
	for _, t := range calendar.Types {
		minutes := typeMinutes[t]
		total += minutes
		weighted += minutes * profile.TypeWeight(t)
	}

	if total > 0 {
		return clamp(weighted / total)
	}
	return clamp(profile.TypeWeight(calendar.TypeOther))
}

type inferredPreference struct {
	preferredTypes []calendar.MeetingType
	affinity       float64
	confidence     float64
}

// inferPreferences derives the persona-weighted affinity and a
// concentration signal from the distribution of minutes per meeting type.
// Types are ranked by minutes descending; the stable sort means equal
// minute counts keep the canonical enum order. Confidence is the share of
// total minutes held by the largest type, not a statistical interval.
func inferPreferences(typeMinutes map[calendar.MeetingType]float64, profile persona.Profile) inferredPreference {
	type ranked struct {
		meetingType calendar.MeetingType
		minutes     float64
	}

	ordered := make([]ranked, 0, len(calendar.Types))
	total := 0.0
	weighted := 0.0
	for _, t := range calendar.Types {
		minutes := typeMinutes[t]
		ordered = append(ordered, ranked{meetingType: t, minutes: minutes})
		total += minutes
		weighted += minutes * profile.TypeWeight(t)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].minutes > ordered[j].minutes
	})

	preferred := make([]calendar.MeetingType, 0, 2)
	for _, item := range ordered {
		if item.minutes > 0 && len(preferred) < 2 {
			preferred = append(preferred, item.meetingType)
		}
	}

	affinity := clamp(profile.TypeWeight(calendar.TypeOther))
	confidence := 0.0
	if total > 0 {
		affinity = clamp(weighted / total)
		confidence = round3(clamp(ordered[0].minutes / total))
	}

	return inferredPreference{
		preferredTypes: preferred,
		affinity:       round3(affinity),
		confidence:     confidence,
	}
}

// AnalyzeMultiDay runs an ordered sequence of independent day analyses and
// averages the day-level fit metrics. Schedule dates are assumed valid;
// callers reject malformed or empty schedule lists before invoking the
// engine.
func (a *Analyzer) AnalyzeMultiDay(schedules []Schedule, timeZone, personaID string) *MultiDayAnalysis {
	profile := a.personas.Lookup(personaID)

	days := make([]DayAnalysis, 0, len(schedules))
	aggregateMinutes := emptyTypeMinutes()
	loadSum := 0.0
	fitSum := 0.0

	for _, schedule := range schedules {
		day := a.AnalyzeDay(schedule.Events, timeZone, schedule.Date, personaID)
		days = append(days, *day)
		loadSum += day.DailyLoadScore
		fitSum += day.PersonaFitScore
		for t, minutes := range day.MeetingTypeMinutes {
			aggregateMinutes[t] += minutes
		}
	}

	averageLoad := 0.0
	averageFit := 0.0
	if len(days) > 0 {
		averageLoad = round3(loadSum / float64(len(days)))
		averageFit = round3(fitSum / float64(len(days)))
	}

	inferred := inferPreferences(aggregateMinutes, profile)

	return &MultiDayAnalysis{
		Days:                          days,
		AverageDailyLoadScore:         averageLoad,
		AveragePersonaFitScore:        averageFit,
		AggregateMeetingTypeMinutes:   aggregateMinutes,
		InferredPreferredMeetingTypes: inferred.preferredTypes,
		MeetingTypeAffinityScore:      inferred.affinity,
		PreferenceConfidenceScore:     inferred.confidence,
		Profile:                       profile,
	}
}
