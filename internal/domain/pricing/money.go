package pricing

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNegativeMoney   = errors.New("money cannot be negative")
	ErrInvalidDiscount = errors.New("discount percentage must be between 0 and 100")
)

// Money is an amount in cents. All arithmetic stays in integers.
type Money struct {
	cents int64
}

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeMoney
	}
	return Money{cents: cents}, nil
}

func MustMoney(cents int64) Money {
	m, err := NewMoney(cents)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64 { return m.cents }

func (m Money) IsZero() bool { return m.cents == 0 }

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Sub floors at zero.
func (m Money) Sub(other Money) Money {
	return Money{cents: max(m.cents-other.cents, 0)}
}

func (m Money) Times(n int) Money {
	return Money{cents: m.cents * int64(n)}
}

// Float is for display and legacy integrations only.
func (m Money) Float() float64 {
	return float64(m.cents) / 100
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.cents/100, m.cents%100)
}

// Discount is a percentage with two decimals, held in basis points (15.5% = 1550).
type Discount struct {
	bp int64
}

const fullBP = 10000

func NewDiscountBP(bp int64) (Discount, error) {
	if bp < 0 || bp > fullBP {
		return Discount{}, ErrInvalidDiscount
	}
	return Discount{bp: bp}, nil
}

func NewDiscountPercent(pct float64) (Discount, error) {
	if math.IsNaN(pct) {
		return Discount{}, ErrInvalidDiscount
	}
	return NewDiscountBP(int64(math.Round(pct * 100)))
}

func NoDiscount() Discount { return Discount{} }

func (d Discount) BasisPoints() int64 { return d.bp }

func (d Discount) Percent() float64 { return float64(d.bp) / 100 }

func (d Discount) IsZero() bool { return d.bp == 0 }

func (d Discount) String() string {
	return fmt.Sprintf("%d.%02d%%", d.bp/100, d.bp%100)
}

// Apply computes m * (1 - d/100) rounded half-up to the cent.
func (d Discount) Apply(m Money) Money {
	if d.bp == 0 {
		return m
	}
	scaled := m.cents * (fullBP - d.bp)
	return Money{cents: (scaled + fullBP/2) / fullBP}
}
