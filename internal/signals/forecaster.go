package signals

import (
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// Forecaster projects near-term demand from the trailing daily sales of each product.
type Forecaster struct {
	cfg Config
}

func NewForecaster(cfg Config) *Forecaster {
	return &Forecaster{cfg: cfg.withDefaults()}
}

// TrailingMean averages the most recent TrailingWindowDays daily totals. Shorter
// histories are averaged whole, and an empty history forecasts 0.
func (f *Forecaster) TrailingMean(daily []domain.DailyTotal) float64 {
	if len(daily) == 0 {
		return 0
	}

	window := daily
	if len(window) > f.cfg.TrailingWindowDays {
		window = window[len(window)-f.cfg.TrailingWindowDays:]
	}

	var sum float64
	for _, d := range window {
		sum += d.Quantity
	}
	return sum / float64(len(window))
}

// Forecast returns one summary row per product seen in sales or stock, and the
// per-day forecast rows for the dates following the last observed sale.
func (f *Forecaster) Forecast(m *Metrics) ([]domain.ForecastResult, []domain.DailyForecast) {
	products := m.AllProducts()
	summary := make([]domain.ForecastResult, 0, len(products))

	var daily []domain.DailyForecast
	if !m.LastSaleDate.IsZero() {
		daily = make([]domain.DailyForecast, 0, len(products)*f.cfg.ForecastHorizonDays)
	}

	for _, id := range products {
		mean := f.TrailingMean(m.Daily[id])
		projected := roundFloat(mean*float64(f.cfg.ForecastHorizonDays), 2)
		stock := m.ProductStock[id]

		summary = append(summary, domain.ForecastResult{
			ProductID:                id,
			ForecastWindowDays:       f.cfg.ForecastHorizonDays,
			DailyMean:                mean,
			ProjectedTotal:           projected,
			CurrentStock:             stock,
			SuggestedAdditionalStock: ceilNonNegative(projected - stock),
		})

		if m.LastSaleDate.IsZero() {
			continue
		}
		perDay := roundFloat(mean, 2)
		for i := 1; i <= f.cfg.ForecastHorizonDays; i++ {
			daily = append(daily, domain.DailyForecast{
				ProductID:   id,
				Date:        m.LastSaleDate.AddDate(0, 0, i),
				ForecastQty: perDay,
			})
		}
	}

	return summary, daily
}
