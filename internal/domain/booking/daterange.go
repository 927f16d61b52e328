package booking

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidStayRange = errors.New("check-out must be after check-in")

const MaxStayNights = 365

// StayRange is a half-open date interval [checkIn, checkOut).
// Both bounds are normalized to UTC midnight so that overlap and
// night arithmetic are independent of the caller's time of day.
type StayRange struct {
	checkIn  time.Time
	checkOut time.Time
}

func NewStayRange(checkIn, checkOut time.Time) (StayRange, error) {
	in := Midnight(checkIn)
	out := Midnight(checkOut)
	if !out.After(in) {
		return StayRange{}, ErrInvalidStayRange
	}
	return StayRange{checkIn: in, checkOut: out}, nil
}

func (r StayRange) CheckIn() time.Time  { return r.checkIn }
func (r StayRange) CheckOut() time.Time { return r.checkOut }

// Nights is ceil((checkOut-checkIn)/24h); on normalized dates the
// division is exact and the result is always >= 1.
func (r StayRange) Nights() int {
	span := r.checkOut.Sub(r.checkIn)
	nights := int((span + 24*time.Hour - 1) / (24 * time.Hour))
	return nights
}

// Overlaps reports whether two half-open intervals intersect.
// A stay checking out the day another checks in does not overlap,
// so back-to-back stays never conflict.
func (r StayRange) Overlaps(other StayRange) bool {
	return r.checkIn.Before(other.checkOut) && other.checkIn.Before(r.checkOut)
}

// ContainsDate reports whether checkIn <= d < checkOut.
func (r StayRange) ContainsDate(d time.Time) bool {
	day := Midnight(d)
	return !day.Before(r.checkIn) && day.Before(r.checkOut)
}

// Dates lists every night of the stay (check-out day excluded).
func (r StayRange) Dates() []time.Time {
	dates := make([]time.Time, 0, r.Nights())
	for d := r.checkIn; d.Before(r.checkOut); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (r StayRange) String() string {
	return fmt.Sprintf("[%s,%s)", r.checkIn.Format(time.DateOnly), r.checkOut.Format(time.DateOnly))
}

// Midnight truncates t to its UTC calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
