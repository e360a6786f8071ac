package window

import "polywatch/internal/domain"

// ScoreCandidates filters candidates to those accepting orders with a
// parseable 15-minute window and scores each against nowMinute. Input order
// is preserved so selection ties stay deterministic.
func ScoreCandidates(cands []domain.MarketCandidate, nowMinute int) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		if !c.AcceptingOrders {
			continue
		}
		w := ParseWindow(c.Question)
		if !w.Valid {
			continue
		}
		scored = append(scored, Score(c, w, nowMinute))
	}
	return scored
}

// Select applies the three-tier selection policy over scored candidates:
//
//  1. running: window started at most 15 minutes ago and not in the future
//     (DiffMinutes in (-15, 0]); pick the smallest AbsDiff.
//  2. upcoming: DiffMinutes > 0; pick the soonest start.
//  3. nearest: smallest AbsDiff in either direction.
//
// Ties are broken by the first candidate encountered. The boolean is false
// only when cands is empty.
func Select(cands []domain.ScoredCandidate) (domain.TrackedMarket, bool) {
	if len(cands) == 0 {
		return domain.TrackedMarket{}, false
	}

	best, ok := pick(cands, func(c domain.ScoredCandidate) bool {
		return c.DiffMinutes > -domain.WindowMinutes && c.DiffMinutes <= 0
	})
	if !ok {
		best, ok = pick(cands, func(c domain.ScoredCandidate) bool {
			return c.DiffMinutes > 0
		})
	}
	if !ok {
		best, _ = pick(cands, func(domain.ScoredCandidate) bool { return true })
	}

	return domain.TrackedMarket{
		ID:          best.Candidate.ID,
		Question:    best.Candidate.Question,
		YesToken:    best.Candidate.YesToken,
		NoToken:     best.Candidate.NoToken,
		DiffMinutes: best.DiffMinutes,
	}, true
}

// pick returns the matching candidate with the smallest AbsDiff. A strict
// less-than keeps the first of equally distant candidates.
func pick(cands []domain.ScoredCandidate, match func(domain.ScoredCandidate) bool) (domain.ScoredCandidate, bool) {
	var best domain.ScoredCandidate
	found := false
	for _, c := range cands {
		if !match(c) {
			continue
		}
		if !found || c.AbsDiff < best.AbsDiff {
			best = c
			found = true
		}
	}
	return best, found
}
