package window

import "polywatch/internal/domain"

// NormalizeDiff computes the signed minute distance from now to a window
// start, picking whichever day-wrapped occurrence is nearer. For any inputs
// in [0, 1440) the result is in [-720, 720].
func NormalizeDiff(startMinute, nowMinute int) int {
	diff := startMinute - nowMinute
	switch {
	case diff < -domain.MinutesPerDay/2:
		diff += domain.MinutesPerDay
	case diff > domain.MinutesPerDay/2:
		diff -= domain.MinutesPerDay
	}
	return diff
}

// Score attaches the wraparound-normalized distance from now to the
// candidate's window start.
func Score(c domain.MarketCandidate, w domain.TimeWindow, nowMinute int) domain.ScoredCandidate {
	diff := NormalizeDiff(w.StartMinute, nowMinute)
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	return domain.ScoredCandidate{
		Candidate:   c,
		Window:      w,
		DiffMinutes: diff,
		AbsDiff:     abs,
	}
}
