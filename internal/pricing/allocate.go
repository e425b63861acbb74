package pricing

// ListingPrice is the price assigned to one apartment for one date.
type ListingPrice struct {
	Apartment int64
	Price     float64
}

// Allocate spreads the quote across the currently available apartments,
// which must already be in priority order. The first apartment gets the base
// price and each subsequent one steps up toward the ceiling, so the best
// units are offered cheapest and sell first. A quote without a ceiling
// (long horizon) assigns the identical flat price to every apartment.
func Allocate(q *Quote, available []int64) []ListingPrice {
	if q == nil || len(available) == 0 {
		return nil
	}

	out := make([]ListingPrice, len(available))

	if q.MaxPrice == nil {
		for i, apt := range available {
			out[i] = ListingPrice{Apartment: apt, Price: q.Price}
		}
		return out
	}

	ceiling := *q.MaxPrice
	step := (ceiling - q.Price) / float64(len(available))
	for i, apt := range available {
		p := q.Price + float64(i)*step
		if p > ceiling {
			p = ceiling
		}
		out[i] = ListingPrice{Apartment: apt, Price: round1(p)}
	}
	return out
}
