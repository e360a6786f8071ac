package window

import (
	"testing"

	"polywatch/internal/domain"
)

func cand(id, title string, accepting bool) domain.MarketCandidate {
	return domain.MarketCandidate{
		ID:              id,
		Question:        title,
		AcceptingOrders: accepting,
		YesToken:        "yes-" + id,
		NoToken:         "no-" + id,
	}
}

func TestScoreCandidatesFilters(t *testing.T) {
	cands := []domain.MarketCandidate{
		cand("ok", "1:00PM-1:15PM ET", true),
		cand("closed", "1:15PM-1:30PM ET", false),
		cand("garbled", "no window here", true),
		cand("wrong-span", "1:00PM-1:30PM ET", true),
	}

	scored := ScoreCandidates(cands, 780)
	if len(scored) != 1 {
		t.Fatalf("len(scored) = %d, want 1", len(scored))
	}
	if scored[0].Candidate.ID != "ok" {
		t.Errorf("scored candidate = %q, want ok", scored[0].Candidate.ID)
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		now    int
		titles map[string]string // id -> title
		wantID string
	}{
		{
			// now=13:20. 780 started 20 min ago (outside (-15,0], not
			// running); 795 started 5 min ago (running); 810 is upcoming.
			name: "running beats upcoming",
			now:  800,
			titles: map[string]string{
				"expired":  "1:00PM-1:15PM ET",
				"running":  "1:15PM-1:30PM ET",
				"upcoming": "1:30PM-1:45PM ET",
			},
			wantID: "running",
		},
		{
			// No running candidate: soonest upcoming start wins.
			name: "soonest upcoming",
			now:  800,
			titles: map[string]string{
				"later":  "3:00PM-3:15PM ET",
				"sooner": "2:10PM-2:25PM ET",
			},
			wantID: "sooner",
		},
		{
			// Only stale candidates: nearest in absolute distance wins.
			name: "nearest fallback",
			now:  800,
			titles: map[string]string{
				"far":  "11:00AM-11:15AM ET",
				"near": "1:00PM-1:15PM ET",
			},
			wantID: "near",
		},
		{
			// A window that started exactly now (diff 0) counts as running.
			name: "boundary diff zero is running",
			now:  795,
			titles: map[string]string{
				"starting": "1:15PM-1:30PM ET",
				"upcoming": "1:30PM-1:45PM ET",
			},
			wantID: "starting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cands []domain.MarketCandidate
			// Deterministic order: sorted by id would hide tie behavior, so
			// append in a fixed sequence per case.
			for _, id := range []string{"expired", "running", "upcoming", "later", "sooner", "far", "near", "starting"} {
				if title, ok := tt.titles[id]; ok {
					cands = append(cands, cand(id, title, true))
				}
			}

			selected, ok := Select(ScoreCandidates(cands, tt.now))
			if !ok {
				t.Fatal("Select returned no selection")
			}
			if selected.ID != tt.wantID {
				t.Errorf("selected %q, want %q", selected.ID, tt.wantID)
			}
		})
	}
}

func TestSelectTieKeepsFirst(t *testing.T) {
	// Two upcoming candidates with identical windows: the first encountered
	// must win on every call.
	cands := []domain.MarketCandidate{
		cand("first", "2:00PM-2:15PM ET", true),
		cand("second", "2:00PM-2:15PM ET", true),
	}
	for i := 0; i < 5; i++ {
		selected, ok := Select(ScoreCandidates(cands, 800))
		if !ok {
			t.Fatal("Select returned no selection")
		}
		if selected.ID != "first" {
			t.Fatalf("run %d selected %q, want first", i, selected.ID)
		}
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, ok := Select(nil); ok {
		t.Error("Select(nil) returned a selection")
	}
	if _, ok := Select(ScoreCandidates([]domain.MarketCandidate{
		cand("closed", "1:00PM-1:15PM ET", false),
	}, 780)); ok {
		t.Error("Select over fully filtered input returned a selection")
	}
}

func TestSelectCarriesTokens(t *testing.T) {
	selected, ok := Select(ScoreCandidates([]domain.MarketCandidate{
		cand("m1", "1:15PM-1:30PM ET", true),
	}, 800))
	if !ok {
		t.Fatal("Select returned no selection")
	}
	if selected.YesToken != "yes-m1" || selected.NoToken != "no-m1" {
		t.Errorf("tokens = %q/%q, want yes-m1/no-m1", selected.YesToken, selected.NoToken)
	}
	if selected.DiffMinutes != -5 {
		t.Errorf("DiffMinutes = %d, want -5", selected.DiffMinutes)
	}
}
