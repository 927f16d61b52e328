package booking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"time"
)

// Money is an amount in integer cents. External decimal amounts are
// converted once at the DTO boundary; all engine arithmetic is exact.
type Money struct {
	cents int64
}

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, errors.New("money cannot be negative")
	}
	return Money{cents: cents}, nil
}

// MoneyFromDecimal converts a decimal currency amount (e.g. 199.50)
// to cents, rounding half away from zero.
func MoneyFromDecimal(amount float64) (Money, error) {
	if amount < 0 {
		return Money{}, errors.New("money cannot be negative")
	}
	return Money{cents: int64(math.Round(amount * 100))}, nil
}

func (m Money) Cents() int64 { return m.cents }

func (m Money) Decimal() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) MulNights(nights int) Money {
	return Money{cents: m.cents * int64(nights)}
}

// WithinTolerance reports whether the two amounts differ by at most
// one cent, the rounding tolerance for caller-quoted totals.
func (m Money) WithinTolerance(other Money) bool {
	diff := m.cents - other.cents
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// GuestCount carries the party composition of a booking request.
type GuestCount struct {
	Adults   int
	Children int
	Pets     int
}

func (g GuestCount) Occupants() int {
	return g.Adults + g.Children
}

const (
	orderCodePrefix  = "RSV"
	orderCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	orderCodeRandLen = 6
)

// NewOrderCode builds a human-readable booking reference such as
// RSV-20250310-7KQ2MX. Uniqueness is ultimately enforced by the
// order_code unique index; the random suffix makes collisions rare
// enough that inserts are simply retried.
func NewOrderCode(now time.Time) string {
	buf := make([]byte, orderCodeRandLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back
		// to the timestamp so the insert can still proceed.
		return fmt.Sprintf("%s-%s-%d", orderCodePrefix, now.UTC().Format("20060102"), now.UnixNano()%1000000)
	}
	for i, b := range buf {
		buf[i] = orderCodeCharset[int(b)%len(orderCodeCharset)]
	}
	return fmt.Sprintf("%s-%s-%s", orderCodePrefix, now.UTC().Format("20060102"), string(buf))
}
