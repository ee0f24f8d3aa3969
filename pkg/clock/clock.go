package clock

import "time"

// Clock supplies the current calendar day so services do not read the system
// clock directly. The school operates in a single timezone; Today is the
// date in that zone with the time-of-day discarded.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

type zoneClock struct {
	loc *time.Location
}

// New builds a Clock pinned to the named IANA timezone. An unknown name
// falls back to UTC.
func New(timezone string) Clock {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &zoneClock{loc: loc}
}

func (c *zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *zoneClock) Today() time.Time {
	return Day(time.Now().In(c.loc))
}

// Day truncates a timestamp to its calendar day in UTC. Attendance cells are
// keyed by day, never by time-of-day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Fixed returns a Clock frozen at the given instant, for tests.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

func (c fixedClock) Today() time.Time {
	return Day(c.t)
}
