package signals

import (
	"sort"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// Metrics is the output of the aggregation pass. Every later stage reads from it
// and none of them writes back.
type Metrics struct {
	ProductDemand map[string]domain.DemandMetric
	StoreDemand   map[domain.StoreProductKey]domain.DemandMetric

	ProductStock map[string]float64
	StoreStock   map[domain.StoreProductKey]float64

	// Daily holds the summed quantity of each product per calendar date, oldest first.
	Daily map[string][]domain.DailyTotal
	// StoreCoverage counts the distinct stores with at least one dated sale of a product.
	StoreCoverage map[string]int

	UndatedSales int
	LastSaleDate time.Time // zero when no dated sale exists
}

type demandAcc struct {
	total float64
	days  map[time.Time]struct{}
}

func (a *demandAcc) add(date time.Time, qty float64) {
	a.total += qty
	a.days[date] = struct{}{}
}

func (a *demandAcc) metric(storeID, productID string) domain.DemandMetric {
	m := domain.DemandMetric{
		StoreID:      storeID,
		ProductID:    productID,
		TotalSold:    a.total,
		DaysObserved: len(a.days),
	}
	if m.DaysObserved > 0 {
		m.AvgDailySale = floatPtr(roundFloat(m.TotalSold/float64(m.DaysObserved), 2))
	}
	return m
}

func newDemandAcc() *demandAcc {
	return &demandAcc{days: make(map[time.Time]struct{})}
}

// Aggregate rolls sales and stock records into demand and stock metrics.
// Sales without a usable date are left out of every total and only counted.
func Aggregate(sales []domain.TransactionRecord, stock []domain.StockSnapshot) *Metrics {
	m := &Metrics{
		ProductDemand: make(map[string]domain.DemandMetric),
		StoreDemand:   make(map[domain.StoreProductKey]domain.DemandMetric),
		ProductStock:  make(map[string]float64),
		StoreStock:    make(map[domain.StoreProductKey]float64),
		Daily:         make(map[string][]domain.DailyTotal),
		StoreCoverage: make(map[string]int),
	}

	products := make(map[string]*demandAcc)
	stores := make(map[domain.StoreProductKey]*demandAcc)
	daily := make(map[string]map[time.Time]float64)
	coverage := make(map[string]map[string]struct{})

	for _, rec := range sales {
		if _, ok := products[rec.ProductID]; !ok {
			products[rec.ProductID] = newDemandAcc()
		}
		key := domain.StoreProductKey{StoreID: rec.StoreID, ProductID: rec.ProductID}
		if _, ok := stores[key]; !ok {
			stores[key] = newDemandAcc()
		}

		if !rec.HasDate() {
			m.UndatedSales++
			continue
		}

		day := truncateDay(rec.Date)
		products[rec.ProductID].add(day, rec.Quantity)
		stores[key].add(day, rec.Quantity)

		if daily[rec.ProductID] == nil {
			daily[rec.ProductID] = make(map[time.Time]float64)
			coverage[rec.ProductID] = make(map[string]struct{})
		}
		daily[rec.ProductID][day] += rec.Quantity
		coverage[rec.ProductID][rec.StoreID] = struct{}{}

		if day.After(m.LastSaleDate) {
			m.LastSaleDate = day
		}
	}

	for id, acc := range products {
		m.ProductDemand[id] = acc.metric("", id)
	}
	for key, acc := range stores {
		m.StoreDemand[key] = acc.metric(key.StoreID, key.ProductID)
	}

	for id, byDate := range daily {
		totals := make([]domain.DailyTotal, 0, len(byDate))
		for date, qty := range byDate {
			totals = append(totals, domain.DailyTotal{Date: date, Quantity: qty})
		}
		sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
		m.Daily[id] = totals
		m.StoreCoverage[id] = len(coverage[id])
	}

	for _, snap := range stock {
		m.ProductStock[snap.ProductID] += snap.StockLevel
		m.StoreStock[domain.StoreProductKey{StoreID: snap.StoreID, ProductID: snap.ProductID}] += snap.StockLevel
	}

	return m
}

// SoldProducts returns the products with at least one dated sale, sorted by id.
func (m *Metrics) SoldProducts() []string {
	return sortedKeys(m.Daily)
}

// AllProducts returns every product seen in sales or stock, sorted by id.
func (m *Metrics) AllProducts() []string {
	seen := make(map[string]struct{}, len(m.ProductDemand)+len(m.ProductStock))
	for id := range m.ProductDemand {
		seen[id] = struct{}{}
	}
	for id := range m.ProductStock {
		seen[id] = struct{}{}
	}
	return sortedKeys(seen)
}

// productAvg returns the product-level average daily sale, nil when unknown.
func (m *Metrics) productAvg(productID string) *float64 {
	if d, ok := m.ProductDemand[productID]; ok {
		return d.AvgDailySale
	}
	return nil
}
