package pricing

// Quote is the price breakdown for a stay.
type Quote struct {
	Nights          int
	Nightly         Money
	BaseNightly     Money
	Discount        Discount
	BaseTotal       Money
	DiscountedTotal Money
	Savings         Money
}

// NewQuote multiplies the already-rounded nightly price, so totals never drift from nightly * nights.
func NewQuote(baseNightly Money, discount Discount, nights int) Quote {
	nightly := discount.Apply(baseNightly)
	baseTotal := baseNightly.Times(nights)
	discounted := nightly.Times(nights)
	return Quote{
		Nights:          nights,
		Nightly:         nightly,
		BaseNightly:     baseNightly,
		Discount:        discount,
		BaseTotal:       baseTotal,
		DiscountedTotal: discounted,
		Savings:         baseTotal.Sub(discounted),
	}
}
