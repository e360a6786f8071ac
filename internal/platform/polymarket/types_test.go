package polymarket

import (
	"encoding/json"
	"testing"
)

func TestFlexBool(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"TRUE"`, true},
		{`"false"`, false},
		{`"1"`, true},
		{`"no"`, false},
	}
	for _, tt := range tests {
		var f flexBool
		if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if bool(f) != tt.want {
			t.Errorf("flexBool(%s) = %v, want %v", tt.raw, bool(f), tt.want)
		}
	}
}

func TestBookToSnapshot(t *testing.T) {
	msg := &BookMessage{
		AssetID:   "111",
		Timestamp: "1717606800000",
		Bids: []WSPriceLevel{
			{Price: "0.50", Size: "100"},
			{Price: "0.52", Size: "10"},
			{Price: "bogus", Size: "5"},
		},
		Asks: []WSPriceLevel{
			{Price: "0.55", Size: "40"},
			{Price: "0.54", Size: "20"},
		},
	}

	snap := BookToSnapshot(msg)
	if snap.AssetID != "111" {
		t.Errorf("AssetID = %q", snap.AssetID)
	}
	if snap.BestBid != 0.52 {
		t.Errorf("BestBid = %v, want 0.52", snap.BestBid)
	}
	if snap.BestAsk != 0.54 {
		t.Errorf("BestAsk = %v, want 0.54", snap.BestAsk)
	}
	if snap.MidPrice != 0.53 {
		t.Errorf("MidPrice = %v, want 0.53", snap.MidPrice)
	}
	if len(snap.Bids) != 2 {
		t.Errorf("len(Bids) = %d, want 2 (bogus level dropped)", len(snap.Bids))
	}
	if snap.Timestamp.IsZero() {
		t.Error("Timestamp not parsed")
	}
}

func TestBookToSnapshotEmptySide(t *testing.T) {
	snap := BookToSnapshot(&BookMessage{AssetID: "111"})
	if snap.MidPrice != 0 {
		t.Errorf("MidPrice = %v, want 0 for empty book", snap.MidPrice)
	}
}
