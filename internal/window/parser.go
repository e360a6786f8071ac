// Package window implements the core market-window logic: extracting a
// 15-minute time window from a free-text market title, scoring a window's
// temporal distance from now with day wraparound, and selecting the market
// instance to track.
package window

import (
	"regexp"
	"strconv"
	"strings"

	"polywatch/internal/domain"
)

// windowPattern matches the human-readable time range embedded in market
// titles, e.g. "Bitcoin Up or Down - June 5, 1:00PM-1:15PM ET".
var windowPattern = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})(AM|PM)-(\d{1,2}):(\d{2})(AM|PM) ET\b`)

// ParseWindow extracts a time window from a market title. It returns an
// invalid window when the title has no recognizable range, either time
// component is out of range, or the span is not exactly 15 minutes measured
// forward (wrapping past midnight, so "11:45PM-12:00AM ET" is valid).
// ParseWindow never fails; all rejection is the zero-value invalid window.
func ParseWindow(title string) domain.TimeWindow {
	m := windowPattern.FindStringSubmatch(title)
	if m == nil {
		return domain.TimeWindow{}
	}

	start, ok := minuteOfDay(m[1], m[2], m[3])
	if !ok {
		return domain.TimeWindow{}
	}
	end, ok := minuteOfDay(m[4], m[5], m[6])
	if !ok {
		return domain.TimeWindow{}
	}

	w := domain.TimeWindow{StartMinute: start, EndMinute: end}
	if w.Duration() != domain.WindowMinutes {
		return domain.TimeWindow{}
	}
	w.Valid = true
	return w
}

// minuteOfDay converts a 12-hour clock time to minutes since midnight.
func minuteOfDay(hourStr, minStr, meridiem string) (int, bool) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	min, err := strconv.Atoi(minStr)
	if err != nil || min < 0 || min > 59 {
		return 0, false
	}

	hour %= 12
	if strings.EqualFold(meridiem, "PM") {
		hour += 12
	}
	return hour*60 + min, true
}
