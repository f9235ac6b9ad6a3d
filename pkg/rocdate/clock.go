package rocdate

import "time"

// DefaultTimezone is the market's timezone. "Today" is always evaluated here,
// regardless of where the server runs.
const DefaultTimezone = "Asia/Taipei"

// Clock is the single source of "now" for everything that compares against today.
type Clock interface {
	Now() time.Time
	Today() Date
	Location() *time.Location
}

// SystemClock reads the wall clock in a fixed market timezone.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock for the named timezone. When the zone database
// is unavailable it falls back to a fixed UTC+8 zone.
func NewSystemClock(tz string) *SystemClock {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return &SystemClock{loc: loc}
}

func (c *SystemClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c *SystemClock) Today() Date              { return FromTime(c.Now()) }
func (c *SystemClock) Location() *time.Location { return c.loc }

// FixedClock always reports the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time           { return c.T }
func (c FixedClock) Today() Date              { return FromTime(c.T) }
func (c FixedClock) Location() *time.Location { return c.T.Location() }
