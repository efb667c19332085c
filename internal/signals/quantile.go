package signals

import (
	"math"
	"sort"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// Quantile returns the q-th quantile of values using linear interpolation
// between the two nearest ranks. It returns 0 for an empty slice.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// SalesTierCutoffs are the batch-relative boundaries of the sales-rank tiers.
type SalesTierCutoffs struct {
	Slow float64 // 33rd percentile of total sales
	Fast float64 // 67th percentile of total sales
}

// NewSalesTierCutoffs computes the tier boundaries over the whole batch.
func NewSalesTierCutoffs(totals []float64) SalesTierCutoffs {
	return SalesTierCutoffs{
		Slow: Quantile(totals, 0.33),
		Fast: Quantile(totals, 0.67),
	}
}

// Tier labels a product's total sales. The fast check runs first, so a value
// sitting on both boundaries is fast_selling.
func (c SalesTierCutoffs) Tier(total float64) domain.SalesTier {
	if total >= c.Fast {
		return domain.SalesFast
	}
	if total <= c.Slow {
		return domain.SalesSlow
	}
	return domain.SalesMedium
}

// TrendCutoffs are the batch-relative boundaries of the trend categories.
type TrendCutoffs struct {
	Stable   float64 // 25th percentile
	Trending float64 // 50th percentile
	Viral    float64 // 75th percentile
}

// NewTrendCutoffs computes the category boundaries over every trend score of the run.
func NewTrendCutoffs(scores []float64) TrendCutoffs {
	return TrendCutoffs{
		Stable:   Quantile(scores, 0.25),
		Trending: Quantile(scores, 0.50),
		Viral:    Quantile(scores, 0.75),
	}
}

// Category labels a trend score; boundaries are inclusive.
func (c TrendCutoffs) Category(score float64) domain.TrendCategory {
	switch {
	case score >= c.Viral:
		return domain.TrendViral
	case score >= c.Trending:
		return domain.TrendTrending
	case score >= c.Stable:
		return domain.TrendStable
	default:
		return domain.TrendDeclining
	}
}

// SeasonCutoffs are the batch-relative boundaries of the demand seasons.
type SeasonCutoffs struct {
	Winter   float64 // 25th percentile
	Summer   float64 // 50th percentile
	Festival float64 // 75th percentile
}

// NewSeasonCutoffs computes the season boundaries over the total sales of the run.
func NewSeasonCutoffs(totals []float64) SeasonCutoffs {
	return SeasonCutoffs{
		Winter:   Quantile(totals, 0.25),
		Summer:   Quantile(totals, 0.50),
		Festival: Quantile(totals, 0.75),
	}
}

// Season labels total sales. Unlike trend categories the boundaries are
// exclusive: a value equal to a cutoff falls into the lower season.
func (c SeasonCutoffs) Season(total float64) domain.Season {
	switch {
	case total > c.Festival:
		return domain.SeasonFestival
	case total > c.Summer:
		return domain.SeasonSummer
	case total > c.Winter:
		return domain.SeasonWinter
	default:
		return domain.SeasonOff
	}
}
