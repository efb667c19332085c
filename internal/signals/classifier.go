package signals

import (
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// Classifier applies the fixed-threshold stock and movement rules.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.withDefaults()}
}

// StockStatus buckets a stock level. Zero is always out_of_stock; the reorder
// bound is exclusive and the overstock bound is exclusive.
func (c *Classifier) StockStatus(level float64) domain.StockStatus {
	switch {
	case level == 0:
		return domain.StockOutOfStock
	case level > 0 && level < c.cfg.ReorderLevel:
		return domain.StockLow
	case level > c.cfg.OverstockThreshold:
		return domain.StockOverstock
	default:
		return domain.StockOK
	}
}

// Movement labels sales velocity from the average daily sale.
func (c *Classifier) Movement(avg *float64) domain.Movement {
	switch {
	case avg == nil:
		return domain.MovementUnknown
	case *avg >= c.cfg.FastMovingMin:
		return domain.MovementFast
	case *avg <= c.cfg.SlowMovingMax:
		return domain.MovementSlow
	default:
		return domain.MovementNormal
	}
}

// ReorderTarget is the stock level a reorder tops up to.
func (c *Classifier) ReorderTarget() int {
	return ceilNonNegative(2 * c.cfg.ReorderLevel)
}

// ReorderSuggestion is the quantity needed to reach ReorderTarget, only for
// low and empty stock.
func (c *Classifier) ReorderSuggestion(status domain.StockStatus, level float64) int {
	if !status.NeedsReorder() {
		return 0
	}
	return ceilNonNegative(2*c.cfg.ReorderLevel - level)
}

// ExpiryStatus labels the days left before a batch expires; nil means no expiry date.
func (c *Classifier) ExpiryStatus(daysLeft *int) domain.ExpiryStatus {
	switch {
	case daysLeft == nil:
		return domain.ExpiryUnknown
	case *daysLeft < 0:
		return domain.ExpiryExpired
	case *daysLeft <= c.cfg.ExpiryWarningDays:
		return domain.ExpiryExpiringSoon
	default:
		return domain.ExpirySafe
	}
}

// ProductAlerts classifies every stocked product against its product-level demand.
func (c *Classifier) ProductAlerts(m *Metrics) []domain.ProductAlert {
	ids := sortedKeys(m.ProductStock)
	alerts := make([]domain.ProductAlert, 0, len(ids))

	for _, id := range ids {
		stock := m.ProductStock[id]
		avg := m.productAvg(id)
		status := c.StockStatus(stock)

		alerts = append(alerts, domain.ProductAlert{
			ProductID:         id,
			CurrentStock:      stock,
			AvgDailySales:     avg,
			Movement:          c.Movement(avg),
			Status:            status,
			ReorderTarget:     c.ReorderTarget(),
			ReorderSuggestion: c.ReorderSuggestion(status, stock),
		})
	}

	return alerts
}

// StoreAlerts classifies every stocked (store, product) pair against its store-level
// demand. Reference reorder levels, when given, only add the below_reorder_level flag.
func (c *Classifier) StoreAlerts(m *Metrics, products []domain.ProductMeta) []domain.StoreAlert {
	levels := make(map[string]float64, len(products))
	for _, p := range products {
		levels[p.ProductID] = p.ReorderLevel
	}

	keys := sortedStoreKeys(m.StoreStock)
	alerts := make([]domain.StoreAlert, 0, len(keys))

	for _, key := range keys {
		stock := m.StoreStock[key]
		var avg *float64
		if d, ok := m.StoreDemand[key]; ok {
			avg = d.AvgDailySale
		}
		status := c.StockStatus(stock)

		alert := domain.StoreAlert{
			StoreID:           key.StoreID,
			ProductID:         key.ProductID,
			StockLevel:        stock,
			AvgDailySales:     avg,
			Movement:          c.Movement(avg),
			Status:            status,
			ReorderTarget:     c.ReorderTarget(),
			ReorderSuggestion: c.ReorderSuggestion(status, stock),
		}
		if level, ok := levels[key.ProductID]; ok {
			below := stock < level
			alert.ReorderLevel = floatPtr(level)
			alert.BelowReorderLevel = &below
		}

		alerts = append(alerts, alert)
	}

	return alerts
}
