package reviews

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Stats aggregates ratings over the whole collection.
type Stats struct {
	Count int
	// Average is the exact mean rating. Valid only when HasAverage is true.
	Average    decimal.Decimal
	HasAverage bool
	// Histogram[r] counts reviews rated r; index 0 is unused.
	Histogram [MaxRating + 1]int
}

// Percent returns the share of reviews rated r, in percent.
func (s Stats) Percent(r int) decimal.Decimal {
	if s.Count == 0 || !ValidRating(r) {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Histogram[r])).Mul(hundred).Div(decimal.NewFromInt(int64(s.Count)))
}

// Equal reports whether two snapshots carry the same figures.
func (s Stats) Equal(o Stats) bool {
	return s.Count == o.Count && s.HasAverage == o.HasAverage &&
		s.Average.Equal(o.Average) && s.Histogram == o.Histogram
}

func computeStats(items []Review) Stats {
	st := Stats{Count: len(items)}
	if st.Count == 0 {
		return st
	}
	var sum int64
	for _, r := range items {
		sum += int64(r.Rating)
		if ValidRating(r.Rating) {
			st.Histogram[r.Rating]++
		}
	}
	st.Average = decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(st.Count)))
	st.HasAverage = true
	return st
}
