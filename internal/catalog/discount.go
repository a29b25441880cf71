package catalog

// Discount percentages for registration pricing. Discounts stack but the
// combined rate is capped. Pricing never feeds back into session ranking.
const (
	SiblingDiscountPct         = 10
	EarlyBirdDiscountPct       = 5
	ReturningFamilyDiscountPct = 5
	MaxCombinedDiscountPct     = 15
)

// DiscountEligibility captures which discounts a family qualifies for.
type DiscountEligibility struct {
	Sibling         bool
	EarlyBird       bool
	ReturningFamily bool
}

// CombinedDiscountPct returns the stacked discount percentage, capped.
func CombinedDiscountPct(e DiscountEligibility) int {
	pct := 0
	if e.Sibling {
		pct += SiblingDiscountPct
	}
	if e.EarlyBird {
		pct += EarlyBirdDiscountPct
	}
	if e.ReturningFamily {
		pct += ReturningFamilyDiscountPct
	}
	if pct > MaxCombinedDiscountPct {
		pct = MaxCombinedDiscountPct
	}
	return pct
}

// DiscountedPriceCents applies the capped combined discount to a price,
// rounding down to whole cents.
func DiscountedPriceCents(priceCents int, e DiscountEligibility) int {
	pct := CombinedDiscountPct(e)
	return priceCents - priceCents*pct/100
}
