package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidWindow    = errors.New("invalid session window")
)

// TimeOfDay is a wall clock time expressed in minutes after midnight
type TimeOfDay int

// ParseTimeOfDay parses an HH:MM string
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Of returns the time of day of t in its own location
func Of(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Date is a local calendar date
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether the date was never set
func (d Date) IsZero() bool {
	return d == Date{}
}

// Clock converts bar timestamps into the session timezone and classifies
// them against the opening range and trading window
type Clock struct {
	location        *time.Location
	start           TimeOfDay
	openingRangeEnd TimeOfDay
	end             TimeOfDay
}

// NewClock builds a clock for the given IANA timezone and HH:MM boundaries.
// start must precede openingRangeEnd, which must not be after end.
func NewClock(timezone, start, openingRangeEnd, end string) (*Clock, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidWindow, timezone, err)
	}

	bounds := make([]TimeOfDay, 0, 3)
	for _, value := range []string{start, openingRangeEnd, end} {
		tod, err := ParseTimeOfDay(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWindow, err)
		}
		bounds = append(bounds, tod)
	}

	if bounds[0] >= bounds[1] || bounds[1] > bounds[2] {
		return nil, fmt.Errorf("%w: %s-%s-%s", ErrInvalidWindow, start, openingRangeEnd, end)
	}

	return &Clock{
		location:        location,
		start:           bounds[0],
		openingRangeEnd: bounds[1],
		end:             bounds[2],
	}, nil
}

// Location returns the session timezone
func (c *Clock) Location() *time.Location { return c.location }

// Local converts t into the session timezone
func (c *Clock) Local(t time.Time) time.Time {
	return t.In(c.location)
}

// Date returns the local calendar date of t
func (c *Clock) Date(t time.Time) Date {
	y, m, d := c.Local(t).Date()
	return Date{Year: y, Month: m, Day: d}
}

// InOpeningRange reports whether t falls in [start, openingRangeEnd)
func (c *Clock) InOpeningRange(t time.Time) bool {
	tod := Of(c.Local(t))
	return tod >= c.start && tod < c.openingRangeEnd
}

// PastOpeningRange reports whether t is at or after openingRangeEnd
func (c *Clock) PastOpeningRange(t time.Time) bool {
	return Of(c.Local(t)) >= c.openingRangeEnd
}

// InTradingWindow reports whether t falls in [openingRangeEnd, end)
func (c *Clock) InTradingWindow(t time.Time) bool {
	tod := Of(c.Local(t))
	return tod >= c.openingRangeEnd && tod < c.end
}

// InHours reports whether the local hour of t falls in [fromHour, toHour)
func (c *Clock) InHours(t time.Time, fromHour, toHour int) bool {
	hour := c.Local(t).Hour()
	return hour >= fromHour && hour < toHour
}
