package domain

// MinutesPerDay is the number of minutes in a civil day.
const MinutesPerDay = 24 * 60

// WindowMinutes is the fixed duration of a recurring market window.
const WindowMinutes = 15

// TimeWindow is a recurring daily interval extracted from a market title.
// Start and End are minutes of day in [0, 1440). A window whose End is
// numerically smaller than its Start crosses midnight.
type TimeWindow struct {
	StartMinute int
	EndMinute   int
	Valid       bool
}

// Duration returns the forward duration of the window in minutes, wrapping
// past midnight when End < Start. Meaningful only when Valid.
func (w TimeWindow) Duration() int {
	d := w.EndMinute - w.StartMinute
	if d < 0 {
		d += MinutesPerDay
	}
	return d
}
