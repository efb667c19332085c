package signals

import (
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

var baseDay = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return baseDay.AddDate(0, 0, n)
}

func sale(store, product string, date time.Time, qty float64) domain.TransactionRecord {
	return domain.TransactionRecord{StoreID: store, ProductID: product, Date: date, Quantity: qty}
}

func snapshot(store, product string, level float64) domain.StockSnapshot {
	return domain.StockSnapshot{StoreID: store, ProductID: product, Date: baseDay, StockLevel: level}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AsOf = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	return cfg
}

// fixedBuzz returns the same score for every product.
type fixedBuzz int

func (f fixedBuzz) Buzz(productIDs []string) map[string]int {
	out := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		out[id] = int(f)
	}
	return out
}
