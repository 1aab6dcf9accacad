package bandwidth

import (
	"math"

	"github.com/codeGROOVE-dev/bandwidth/pkg/interval"
	"github.com/codeGROOVE-dev/bandwidth/pkg/persona"
	"github.com/codeGROOVE-dev/bandwidth/pkg/tzclock"
)

// Scoring constants. 90 minutes is the reference uninterrupted block;
// adjacency pressure applies inside 15 minutes of a neighboring meeting,
// disliked-type pressure inside 45.
const (
	idealBlockMinutes      = 90.0
	adjacencyWindowMinutes = 15.0
	dislikeWindowMinutes   = 45.0
)

// dayContext carries the day-level inputs every slot score depends on.
type dayContext struct {
	zone              string
	profile           persona.Profile
	dailyLoad         float64
	meetingPreference float64
	personaAversion   float64
	totalMeetings     int
	workdayMinutes    float64
}

// neighbors finds the busy blocks immediately before and after the slot.
// blocks must be sorted by start; slots never overlap blocks, so the scan
// can stop at the first block past the slot.
func neighbors(slot interval.Span, blocks []interval.Span) (before, after *interval.Span) {
	for i := range blocks {
		block := &blocks[i]
		if !block.End.After(slot.Start) {
			before = block
			continue
		}
		if !block.Start.Before(slot.End) {
			after = block
			break
		}
	}
	return before, after
}

func typedNeighbors(slot interval.Span, blocks []busyBlock) (before, after *busyBlock) {
	for i := range blocks {
		block := &blocks[i]
		if !block.span.End.After(slot.Start) {
			before = block
			continue
		}
		if !block.span.Start.Before(slot.End) {
			after = block
			break
		}
	}
	return before, after
}

func gapMinutes(from, to interval.Span) float64 {
	return math.Max(0, to.Start.Sub(from.End).Minutes())
}

// scoreSlot combines duration utility, adjacency pressure, meeting
// density, and persona aversions into a bounded bandwidth score.
func scoreSlot(slot interval.Span, mergedBusy []interval.Span, typedBusy []busyBlock, day dayContext) ScoredSlot {
	durationMinutes := int(math.Round(slot.Minutes()))

	// Duration utility saturates at the ideal uninterrupted block.
	uninterrupted := clamp(float64(durationMinutes) / idealBlockMinutes)

	// Adjacency penalty against the type-agnostic merged busy set. A gap
	// of zero at the workday boundary never triggers this: boundaries
	// have no neighbor.
	adjacency := 0.0
	before, after := neighbors(slot, mergedBusy)
	if before != nil {
		if gap := gapMinutes(*before, slot); gap < adjacencyWindowMinutes {
			adjacency += ((adjacencyWindowMinutes - gap) / adjacencyWindowMinutes) * day.profile.AdjacencyPenaltyWeight * 0.45
		}
	}
	if after != nil {
		if gap := gapMinutes(slot, *after); gap < adjacencyWindowMinutes {
			adjacency += ((adjacencyWindowMinutes - gap) / adjacencyWindowMinutes) * day.profile.AdjacencyPenaltyWeight * 0.45
		}
	}

	// Disliked-type penalty against the typed, pre-merge blocks: being
	// near a meeting type the persona weights low costs bandwidth, scaled
	// by the persona's overall meeting aversion.
	dislikedType := 0.0
	beforeTyped, afterTyped := typedNeighbors(slot, typedBusy)
	if beforeTyped != nil {
		gap := gapMinutes(beforeTyped.span, slot)
		proximity := clamp((dislikeWindowMinutes - gap) / dislikeWindowMinutes)
		dislike := clamp(1 - beforeTyped.typeWeight)
		dislikedType += proximity * dislike * 0.12 * day.personaAversion
	}
	if afterTyped != nil {
		gap := gapMinutes(slot, afterTyped.span)
		proximity := clamp((dislikeWindowMinutes - gap) / dislikeWindowMinutes)
		dislike := clamp(1 - afterTyped.typeWeight)
		dislikedType += proximity * dislike * 0.12 * day.personaAversion
	}

	// Density penalty, partially relieved when the day's meeting mix
	// already matches the persona's preferred types.
	meetingsPerHour := 0.0
	if day.workdayMinutes > 0 {
		meetingsPerHour = float64(day.totalMeetings) / (day.workdayMinutes / 60)
	}
	rawDensity := clampTo((day.dailyLoad*day.profile.DensityPenaltyWeight+math.Min(0.3, meetingsPerHour*0.06))*0.75, 0, 0.45)
	density := clampTo(rawDensity*(1-day.meetingPreference*day.profile.PreferenceRelief), 0, 0.45)

	aversionLoad := day.dailyLoad * day.personaAversion * 0.1
	aversionType := (1 - day.meetingPreference) * day.personaAversion * 0.12

	rawScore := uninterrupted - adjacency - density - aversionLoad - aversionType - dislikedType
	score := clamp(rawScore)

	// Short buffers (30-60 minutes) are never completely dead time.
	shortSlotFloor := 0.0
	if durationMinutes >= 30 && durationMinutes < 60 {
		shortSlotFloor = clampTo(0.08+day.meetingPreference*0.08-day.personaAversion*0.04, 0.06, 0.16)
		score = math.Max(score, shortSlotFloor)
	}

	return ScoredSlot{
		Start:           tzclock.FormatISO(slot.Start, day.zone),
		End:             tzclock.FormatISO(slot.End, day.zone),
		DurationMinutes: durationMinutes,
		BandwidthScore:  round3(score),
		BandwidthLevel:  LevelFor(score),
		PenaltyBreakdown: PenaltyBreakdown{
			UninterruptedScore:    round3(uninterrupted),
			AdjacencyPenalty:      round3(adjacency),
			DensityPenalty:        round3(density),
			AversionLoadPenalty:   round3(aversionLoad),
			AversionTypePenalty:   round3(aversionType),
			DislikedTypePenalty:   round3(dislikedType),
			RawBandwidthScore:     round3(rawScore),
			MinimumShortSlotScore: round3(shortSlotFloor),
			FinalBandwidthScore:   round3(score),
		},
	}
}
