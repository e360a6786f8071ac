package domain

import (
	"fmt"
	"time"
)

// ReferenceZone is the IANA name of the time zone market windows are quoted
// in. Window titles carry an "ET" suffix; resolving the zone via the tz
// database keeps comparisons correct across daylight-saving transitions.
const ReferenceZone = "America/New_York"

// Clock supplies the current time and the market's reference time zone. The
// scorer and the tracking loop receive a Clock instead of calling time.Now
// directly so tests can pin "now."
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// MinuteOfDay returns the minute of day [0, 1440) of t in the clock's
// reference zone.
func MinuteOfDay(c Clock, t time.Time) int {
	local := t.In(c.Location())
	return local.Hour()*60 + local.Minute()
}

// ReferenceDate formats t as the reference-zone calendar date used to scope
// search queries to today's market instances, e.g. "June 5".
func ReferenceDate(c Clock, t time.Time) string {
	return t.In(c.Location()).Format("January 2")
}

// WallClock is the production Clock backed by time.Now and the reference
// time zone.
type WallClock struct {
	loc *time.Location
}

// NewWallClock loads the reference zone and returns a WallClock. It fails
// only when the host has no tz database entry for the zone, which is a setup
// error and fatal before the loop starts.
func NewWallClock() (*WallClock, error) {
	loc, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		return nil, fmt.Errorf("clock: load %s: %w", ReferenceZone, err)
	}
	return &WallClock{loc: loc}, nil
}

func (c *WallClock) Now() time.Time           { return time.Now() }
func (c *WallClock) Location() *time.Location { return c.loc }
