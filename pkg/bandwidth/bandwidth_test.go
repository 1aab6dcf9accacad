package bandwidth

import (
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
)

func testAnalyzer(opts ...Option) *Analyzer {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithLogger(logger, opts...)
}

func timedEvent(start, end, meetingType string) calendar.RawEvent {
	return calendar.RawEvent{
		Start:       &calendar.EventTime{DateTime: start},
		End:         &calendar.EventTime{DateTime: end},
		MeetingType: meetingType,
	}
}

func TestEmptyDay(t *testing.T) {
	// Scenario: no events on 2024-06-03 in UTC yields one free slot
	// spanning the whole workday.
	day := testAnalyzer().AnalyzeDay(nil, "UTC", "2024-06-03", "balanced")

	if day.Date != "2024-06-03" {
		t.Errorf("Date = %q, want 2024-06-03", day.Date)
	}
	if len(day.AvailableSlots) != 1 {
		t.Fatalf("got %d slots, want 1", len(day.AvailableSlots))
	}

	slot := day.AvailableSlots[0]
	if slot.Start != "2024-06-03T09:00:00+00:00" || slot.End != "2024-06-03T17:00:00+00:00" {
		t.Errorf("slot = [%s, %s], want 09:00-17:00", slot.Start, slot.End)
	}
	if slot.DurationMinutes != 480 {
		t.Errorf("DurationMinutes = %d, want 480", slot.DurationMinutes)
	}
	if day.DailyLoadScore != 0 {
		t.Errorf("DailyLoadScore = %v, want 0", day.DailyLoadScore)
	}
	if day.TotalMeetings != 0 || day.TotalBusyMinutes != 0 {
		t.Errorf("totals = %d meetings / %d minutes, want 0 / 0", day.TotalMeetings, day.TotalBusyMinutes)
	}
	// No typed minutes: preference falls back to the "other" weight and
	// confidence is zero with nothing inferred.
	if day.MeetingPreferenceScore != 0.6 {
		t.Errorf("MeetingPreferenceScore = %v, want 0.6", day.MeetingPreferenceScore)
	}
	if day.PreferenceConfidenceScore != 0 || len(day.InferredPreferredMeetingTypes) != 0 {
		t.Errorf("inference = %v conf %v, want empty / 0", day.InferredPreferredMeetingTypes, day.PreferenceConfidenceScore)
	}
	if slot.BandwidthLevel != LevelHigh {
		t.Errorf("level = %s, want high", slot.BandwidthLevel)
	}
}

func TestSingleMorningMeeting(t *testing.T) {
	// Scenario: one 09:00-10:00 customers meeting under balanced leaves a
	// single 420-minute slot with an eighth of the day booked.
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T09:00:00Z", "2024-06-03T10:00:00Z", "customers"),
	}
	day := testAnalyzer().AnalyzeDay(events, "UTC", "2024-06-03", "balanced")

	if len(day.AvailableSlots) != 1 {
		t.Fatalf("got %d slots, want 1", len(day.AvailableSlots))
	}
	slot := day.AvailableSlots[0]
	if slot.Start != "2024-06-03T10:00:00+00:00" || slot.End != "2024-06-03T17:00:00+00:00" {
		t.Errorf("slot = [%s, %s], want 10:00-17:00", slot.Start, slot.End)
	}
	if slot.DurationMinutes != 420 {
		t.Errorf("DurationMinutes = %d, want 420", slot.DurationMinutes)
	}
	if day.DailyLoadScore != 0.125 {
		t.Errorf("DailyLoadScore = %v, want 0.125", day.DailyLoadScore)
	}
	if day.MeetingPreferenceScore != 0.95 {
		t.Errorf("MeetingPreferenceScore = %v, want 0.95", day.MeetingPreferenceScore)
	}
	if got := day.InferredPreferredMeetingTypes; len(got) != 1 || got[0] != calendar.TypeCustomers {
		t.Errorf("InferredPreferredMeetingTypes = %v, want [customers]", got)
	}
	if day.PreferenceConfidenceScore != 1 {
		t.Errorf("PreferenceConfidenceScore = %v, want 1", day.PreferenceConfidenceScore)
	}
	// The meeting touches the slot's left edge: gap 0, one side, so
	// (15/15) * 0.18 * 0.45.
	if slot.PenaltyBreakdown.AdjacencyPenalty != 0.081 {
		t.Errorf("AdjacencyPenalty = %v, want 0.081", slot.PenaltyBreakdown.AdjacencyPenalty)
	}
	if slot.BandwidthLevel != LevelHigh {
		t.Errorf("level = %s, want high", slot.BandwidthLevel)
	}
}

func TestFifteenMinuteGapSlot(t *testing.T) {
	// Scenario: meetings 09:00-09:30 and 09:45-10:00 leave a 15-minute
	// sliver touched by a meeting on both sides, so the adjacency
	// multiplier maxes out twice: 2 * (15/15) * 0.18 * 0.45.
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T09:00:00Z", "2024-06-03T09:30:00Z", ""),
		timedEvent("2024-06-03T09:45:00Z", "2024-06-03T10:00:00Z", ""),
	}
	day := testAnalyzer().AnalyzeDay(events, "UTC", "2024-06-03", "balanced")

	if len(day.AvailableSlots) != 2 {
		t.Fatalf("got %d slots, want 2", len(day.AvailableSlots))
	}

	sliver := day.AvailableSlots[0]
	if sliver.Start != "2024-06-03T09:30:00+00:00" || sliver.End != "2024-06-03T09:45:00+00:00" {
		t.Errorf("sliver = [%s, %s], want 09:30-09:45", sliver.Start, sliver.End)
	}
	if sliver.DurationMinutes != 15 {
		t.Errorf("DurationMinutes = %d, want 15", sliver.DurationMinutes)
	}
	if sliver.PenaltyBreakdown.AdjacencyPenalty != 0.162 {
		t.Errorf("AdjacencyPenalty = %v, want 0.162", sliver.PenaltyBreakdown.AdjacencyPenalty)
	}
	if sliver.BandwidthLevel != LevelLow {
		t.Errorf("level = %s, want low", sliver.BandwidthLevel)
	}
}

func TestScoreBoundsAndLevels(t *testing.T) {
	// A dense, adversarial day: every slot must stay inside [0, 1] and
	// its level must match the documented thresholds exactly.
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T09:00:00Z", "2024-06-03T09:50:00Z", "candidates"),
		timedEvent("2024-06-03T10:00:00Z", "2024-06-03T10:30:00Z", "investors"),
		timedEvent("2024-06-03T10:40:00Z", "2024-06-03T12:00:00Z", "customers"),
		timedEvent("2024-06-03T12:05:00Z", "2024-06-03T13:00:00Z", ""),
		timedEvent("2024-06-03T14:00:00Z", "2024-06-03T15:30:00Z", "internal"),
		timedEvent("2024-06-03T16:00:00Z", "2024-06-03T16:45:00Z", "customers"),
	}

	for _, personaID := range []string{"meeting-heavy", "balanced", "maker"} {
		t.Run(personaID, func(t *testing.T) {
			day := testAnalyzer().AnalyzeDay(events, "UTC", "2024-06-03", personaID)
			for _, slot := range day.AvailableSlots {
				if slot.BandwidthScore < 0 || slot.BandwidthScore > 1 {
					t.Errorf("slot %s score %v out of [0,1]", slot.Start, slot.BandwidthScore)
				}
				var want Level
				switch {
				case slot.BandwidthScore >= 0.7:
					want = LevelHigh
				case slot.BandwidthScore >= 0.4:
					want = LevelMedium
				default:
					want = LevelLow
				}
				if slot.BandwidthLevel != want {
					t.Errorf("slot %s score %v level %s, want %s", slot.Start, slot.BandwidthScore, slot.BandwidthLevel, want)
				}
			}
		})
	}
}

func TestShortSlotFloor(t *testing.T) {
	// A 45-minute buffer squeezed between meetings on a packed maker day:
	// the floor must hold even with penalties at their worst.
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T09:00:00Z", "2024-06-03T11:00:00Z", "internal"),
		timedEvent("2024-06-03T11:45:00Z", "2024-06-03T13:30:00Z", "internal"),
		timedEvent("2024-06-03T13:30:00Z", "2024-06-03T15:00:00Z", "candidates"),
		timedEvent("2024-06-03T15:00:00Z", "2024-06-03T17:00:00Z", "internal"),
	}
	day := testAnalyzer().AnalyzeDay(events, "UTC", "2024-06-03", "maker")

	if len(day.AvailableSlots) != 1 {
		t.Fatalf("got %d slots, want 1", len(day.AvailableSlots))
	}
	slot := day.AvailableSlots[0]
	if slot.DurationMinutes != 45 {
		t.Fatalf("DurationMinutes = %d, want 45", slot.DurationMinutes)
	}

	floor := slot.PenaltyBreakdown.MinimumShortSlotScore
	if floor < 0.06 || floor > 0.16 {
		t.Errorf("floor %v outside [0.06, 0.16]", floor)
	}
	if slot.BandwidthScore < floor {
		t.Errorf("score %v below the short-slot floor %v", slot.BandwidthScore, floor)
	}
	// Without the floor this slot would be buried in penalties.
	if slot.PenaltyBreakdown.RawBandwidthScore >= slot.BandwidthScore {
		t.Errorf("expected the floor to lift the raw score %v", slot.PenaltyBreakdown.RawBandwidthScore)
	}
}

func TestIdempotence(t *testing.T) {
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T09:30:00Z", "2024-06-03T10:15:00Z", "investors"),
		timedEvent("2024-06-03T13:00:00Z", "2024-06-03T14:00:00Z", "customers"),
	}

	a := testAnalyzer()
	first := a.AnalyzeDay(events, "America/New_York", "2024-06-03", "maker")
	second := a.AnalyzeDay(events, "America/New_York", "2024-06-03", "maker")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different output:\n%+v\n%+v", first, second)
	}
}

func TestUnknownPersonaFallsBackToBalanced(t *testing.T) {
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T11:00:00Z", "2024-06-03T12:00:00Z", "candidates"),
	}

	a := testAnalyzer()
	fallback := a.AnalyzeDay(events, "UTC", "2024-06-03", "nonexistent-persona")
	balanced := a.AnalyzeDay(events, "UTC", "2024-06-03", "balanced")

	if !reflect.DeepEqual(fallback, balanced) {
		t.Errorf("unknown persona did not behave as balanced:\n%+v\n%+v", fallback, balanced)
	}
}

func TestSilentSkips(t *testing.T) {
	events := []calendar.RawEvent{
		{Status: "cancelled", Start: &calendar.EventTime{DateTime: "2024-06-03T09:00:00Z"}, End: &calendar.EventTime{DateTime: "2024-06-03T10:00:00Z"}},
		{Start: &calendar.EventTime{DateTime: "not a time"}, End: &calendar.EventTime{DateTime: "2024-06-03T10:00:00Z"}},
		{Start: &calendar.EventTime{DateTime: "2024-06-03T10:00:00Z"}},
		// end before start
		timedEvent("2024-06-03T11:00:00Z", "2024-06-03T10:00:00Z", "customers"),
		// zero duration
		timedEvent("2024-06-03T11:00:00Z", "2024-06-03T11:00:00Z", "customers"),
		// entirely outside the workday window
		timedEvent("2024-06-03T18:00:00Z", "2024-06-03T19:00:00Z", "investors"),
	}

	day := testAnalyzer().AnalyzeDay(events, "UTC", "2024-06-03", "balanced")
	if day.TotalMeetings != 0 || day.TotalBusyMinutes != 0 {
		t.Errorf("skipped events leaked into totals: %d meetings, %d minutes", day.TotalMeetings, day.TotalBusyMinutes)
	}
	if len(day.AvailableSlots) != 1 || day.AvailableSlots[0].DurationMinutes != 480 {
		t.Errorf("skipped events altered the free set: %+v", day.AvailableSlots)
	}
}

func TestEventClipping(t *testing.T) {
	// An early meeting spilling into the workday only counts its clipped
	// portion, and overlapping meetings still each bump the counter.
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T08:00:00Z", "2024-06-03T09:30:00Z", "investors"),
		timedEvent("2024-06-03T09:00:00Z", "2024-06-03T09:45:00Z", "investors"),
		timedEvent("2024-06-03T16:30:00Z", "2024-06-03T18:00:00Z", "customers"),
	}
	day := testAnalyzer().AnalyzeDay(events, "UTC", "2024-06-03", "balanced")

	if day.TotalMeetings != 3 {
		t.Errorf("TotalMeetings = %d, want 3 (merging must not reduce the count)", day.TotalMeetings)
	}
	// Busy blocks after merge: 09:00-09:45 and 16:30-17:00.
	if day.TotalBusyMinutes != 75 {
		t.Errorf("TotalBusyMinutes = %d, want 75", day.TotalBusyMinutes)
	}
	if day.MeetingTypeMinutes[calendar.TypeInvestors] != 75 {
		t.Errorf("investors minutes = %v, want 75 (30 clipped + 45)", day.MeetingTypeMinutes[calendar.TypeInvestors])
	}
	if day.MeetingTypeMinutes[calendar.TypeCustomers] != 30 {
		t.Errorf("customers minutes = %v, want 30 (clipped at 17:00)", day.MeetingTypeMinutes[calendar.TypeCustomers])
	}
}

func TestAllDayEventCoversWorkday(t *testing.T) {
	events := []calendar.RawEvent{
		{
			Start: &calendar.EventTime{Date: "2024-06-03"},
			End:   &calendar.EventTime{Date: "2024-06-04"},
			Type:  "internal",
		},
	}
	day := testAnalyzer().AnalyzeDay(events, "America/New_York", "2024-06-03", "balanced")

	if len(day.AvailableSlots) != 0 {
		t.Errorf("all-day event should leave no free slots, got %+v", day.AvailableSlots)
	}
	if day.DailyLoadScore != 1 {
		t.Errorf("DailyLoadScore = %v, want 1", day.DailyLoadScore)
	}
	if day.MeetingTypeMinutes[calendar.TypeOther] != 480 {
		t.Errorf("other minutes = %v, want 480", day.MeetingTypeMinutes[calendar.TypeOther])
	}
}

func TestTodayInZoneDefault(t *testing.T) {
	// 03:00 UTC on June 4 is still June 3 in New York; an absent date must
	// use the zone's calendar, not the process clock's UTC date.
	now := time.Date(2024, 6, 4, 3, 0, 0, 0, time.UTC)
	a := testAnalyzer(WithNow(func() time.Time { return now }))

	if day := a.AnalyzeDay(nil, "America/New_York", "", "balanced"); day.Date != "2024-06-03" {
		t.Errorf("Date = %q, want 2024-06-03", day.Date)
	}
	if day := a.AnalyzeDay(nil, "UTC", "", "balanced"); day.Date != "2024-06-04" {
		t.Errorf("Date = %q, want 2024-06-04", day.Date)
	}
}

func TestTimezoneCorrectness(t *testing.T) {
	// A 13:00-14:00 UTC meeting is 09:00-10:00 in New York (EDT): it sits
	// at the start of the local workday, not mid-morning.
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T13:00:00Z", "2024-06-03T14:00:00Z", "customers"),
	}
	day := testAnalyzer().AnalyzeDay(events, "America/New_York", "2024-06-03", "balanced")

	if len(day.AvailableSlots) != 1 {
		t.Fatalf("got %d slots, want 1", len(day.AvailableSlots))
	}
	slot := day.AvailableSlots[0]
	if slot.Start != "2024-06-03T10:00:00-04:00" || slot.End != "2024-06-03T17:00:00-04:00" {
		t.Errorf("slot = [%s, %s], want local 10:00-17:00 with -04:00 offset", slot.Start, slot.End)
	}
	if day.DailyLoadScore != 0.125 {
		t.Errorf("DailyLoadScore = %v, want 0.125", day.DailyLoadScore)
	}
}

func TestMultiDayAveragesIdenticalDays(t *testing.T) {
	// Scenario: three days each carrying the same 09:00-10:00 customers
	// meeting on their own date average to exactly the single day's load
	// score. Events must be timestamped within their schedule's workday
	// window or they clip away entirely.
	dayEvents := func(date string) []calendar.RawEvent {
		return []calendar.RawEvent{
			timedEvent(date+"T09:00:00Z", date+"T10:00:00Z", "customers"),
		}
	}
	schedules := []Schedule{
		{Date: "2024-06-03", Events: dayEvents("2024-06-03")},
		{Date: "2024-06-04", Events: dayEvents("2024-06-04")},
		{Date: "2024-06-05", Events: dayEvents("2024-06-05")},
	}

	a := testAnalyzer()
	multi := a.AnalyzeMultiDay(schedules, "UTC", "balanced")
	single := a.AnalyzeDay(dayEvents("2024-06-03"), "UTC", "2024-06-03", "balanced")

	if len(multi.Days) != 3 {
		t.Fatalf("got %d days, want 3", len(multi.Days))
	}
	for i, day := range multi.Days {
		if day.DailyLoadScore != single.DailyLoadScore {
			t.Errorf("day %d DailyLoadScore = %v, want %v", i, day.DailyLoadScore, single.DailyLoadScore)
		}
	}
	if multi.AverageDailyLoadScore != single.DailyLoadScore {
		t.Errorf("AverageDailyLoadScore = %v, want %v", multi.AverageDailyLoadScore, single.DailyLoadScore)
	}
	if multi.AveragePersonaFitScore != single.PersonaFitScore {
		t.Errorf("AveragePersonaFitScore = %v, want %v", multi.AveragePersonaFitScore, single.PersonaFitScore)
	}
	if multi.AggregateMeetingTypeMinutes[calendar.TypeCustomers] != 180 {
		t.Errorf("aggregate customers minutes = %v, want 180", multi.AggregateMeetingTypeMinutes[calendar.TypeCustomers])
	}
	if got := multi.InferredPreferredMeetingTypes; len(got) != 1 || got[0] != calendar.TypeCustomers {
		t.Errorf("InferredPreferredMeetingTypes = %v, want [customers]", got)
	}
}

func TestInferPreferencesTieBreaksByCanonicalOrder(t *testing.T) {
	// Equal minutes: the stable sort keeps enum declaration order, so
	// investors ranks before customers.
	events := []calendar.RawEvent{
		timedEvent("2024-06-03T09:00:00Z", "2024-06-03T10:00:00Z", "customers"),
		timedEvent("2024-06-03T11:00:00Z", "2024-06-03T12:00:00Z", "investors"),
	}
	day := testAnalyzer().AnalyzeDay(events, "UTC", "2024-06-03", "balanced")

	want := []calendar.MeetingType{calendar.TypeInvestors, calendar.TypeCustomers}
	if !reflect.DeepEqual(day.InferredPreferredMeetingTypes, want) {
		t.Errorf("InferredPreferredMeetingTypes = %v, want %v", day.InferredPreferredMeetingTypes, want)
	}
	if day.PreferenceConfidenceScore != 0.5 {
		t.Errorf("PreferenceConfidenceScore = %v, want 0.5", day.PreferenceConfidenceScore)
	}
}
