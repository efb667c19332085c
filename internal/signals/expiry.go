package signals

import (
	"sort"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// ExpiryAlerts emits one row per stock snapshot, ordered by store, product and
// snapshot date. days_left counts whole days from cfg.AsOf.
func (c *Classifier) ExpiryAlerts(stock []domain.StockSnapshot) []domain.ExpiryAlert {
	rows := append([]domain.StockSnapshot(nil), stock...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StoreID != rows[j].StoreID {
			return rows[i].StoreID < rows[j].StoreID
		}
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	alerts := make([]domain.ExpiryAlert, 0, len(rows))
	for _, snap := range rows {
		alert := domain.ExpiryAlert{
			StoreID:    snap.StoreID,
			ProductID:  snap.ProductID,
			StockLevel: snap.StockLevel,
		}

		if snap.ExpiryDate != nil {
			expiry := truncateDay(*snap.ExpiryDate)
			days := int((expiry.Unix() - c.cfg.AsOf.Unix()) / secondsPerDay)
			alert.ExpiryDate = &expiry
			alert.DaysLeft = &days
		}
		alert.ExpiryStatus = c.ExpiryStatus(alert.DaysLeft)

		alerts = append(alerts, alert)
	}

	return alerts
}
