package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used at every boundary.
const DateLayout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDate  = errors.New("daterange: date must use YYYY-MM-DD")
)

// Day returns the calendar date of t as observed in loc, represented as
// midnight UTC. Days built this way are 24h apart regardless of DST in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Civil returns the calendar date of t as written in t's own location,
// represented as midnight UTC.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate converts a YYYY-MM-DD string into a day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// MustParseDate is ParseDate that panics; meant for fixtures and tests.
func MustParseDate(value string) time.Time {
	t, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return t
}

// Format renders a day as YYYY-MM-DD.
func Format(day time.Time) string {
	return day.Format(DateLayout)
}

// NextDay returns the day after d.
func NextDay(d time.Time) time.Time {
	return d.AddDate(0, 0, 1)
}

// DateRange represents a half-open interval [checkIn, checkOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Civil(checkIn), CheckOut: Civil(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a validated range from two YYYY-MM-DD strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	if !dr.CheckOut.After(dr.CheckIn) {
		return 0
	}
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Days lists every day in [CheckIn, CheckOut) in order.
func (dr DateRange) Days() []time.Time {
	n := dr.Nights()
	days := make([]time.Time, 0, n)
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = NextDay(d) {
		days = append(days, d)
	}
	return days
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return (dr.CheckIn.Before(other.CheckIn) || dr.CheckIn.Equal(other.CheckIn)) &&
		(dr.CheckOut.After(other.CheckOut) || dr.CheckOut.Equal(other.CheckOut))
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Civil(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.CheckIn
	if other.CheckIn.Before(start) {
		start = other.CheckIn
	}
	end := dr.CheckOut
	if other.CheckOut.After(end) {
		end = other.CheckOut
	}
	return DateRange{CheckIn: start, CheckOut: end}, true
}

func (dr DateRange) String() string {
	return "[" + Format(dr.CheckIn) + ", " + Format(dr.CheckOut) + ")"
}
