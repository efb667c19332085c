package signals

import (
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// HistoricalAnalysis summarizes the daily sales history of every sold product.
// Peak and lowest days resolve ties to the earliest date.
func HistoricalAnalysis(m *Metrics) []domain.HistoricalSummary {
	ids := m.SoldProducts()
	out := make([]domain.HistoricalSummary, 0, len(ids))

	for _, id := range ids {
		days := m.Daily[id]
		if len(days) == 0 {
			continue
		}

		peak, low := days[0], days[0]
		var total float64
		for _, d := range days {
			total += d.Quantity
			if d.Quantity > peak.Quantity {
				peak = d
			}
			if d.Quantity < low.Quantity {
				low = d
			}
		}

		out = append(out, domain.HistoricalSummary{
			ProductID:          id,
			TotalSales:         total,
			AverageDailySales:  roundFloat(total/float64(len(days)), 2),
			PeakSalesDay:       peak.Date,
			PeakSalesQty:       peak.Quantity,
			LowestSalesDay:     low.Date,
			LowestSalesQty:     low.Quantity,
			TotalStoreCoverage: m.StoreCoverage[id],
		})
	}

	return out
}

// SeasonalDiscounts places each product in a demand season using the batch's
// total sales quartiles and attaches the season's discount.
func SeasonalDiscounts(history []domain.HistoricalSummary) []domain.SeasonalDiscount {
	totals := make([]float64, len(history))
	for i, h := range history {
		totals[i] = h.TotalSales
	}
	cutoffs := NewSeasonCutoffs(totals)

	out := make([]domain.SeasonalDiscount, 0, len(history))
	for _, h := range history {
		season := cutoffs.Season(h.TotalSales)
		out = append(out, domain.SeasonalDiscount{
			ProductID:                  h.ProductID,
			TotalSales:                 h.TotalSales,
			Season:                     season,
			RecommendedDiscountPercent: season.DiscountPercent(),
			DiscountReason:             season.DiscountReason(),
		})
	}
	return out
}
