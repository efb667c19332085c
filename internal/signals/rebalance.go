package signals

import (
	"math"
	"sort"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// storePosition is one store's stock against its one-buffer demand for a product.
type storePosition struct {
	storeID string
	excess  float64
}

// RebalancingMatcher pairs surplus stores with shortage stores per product.
type RebalancingMatcher struct {
	cfg Config
}

func NewRebalancingMatcher(cfg Config) *RebalancingMatcher {
	return &RebalancingMatcher{cfg: cfg.withDefaults()}
}

// Excess returns stock minus the demand buffer of TransferBufferDays.
func (r *RebalancingMatcher) Excess(stock, avgDailySale float64) float64 {
	return stock - avgDailySale*r.cfg.TransferBufferDays
}

// Match emits transfer suggestions ordered by product, surplus store, then
// shortage store. Stores whose demand is unknown take no part.
//
// By default every surplus/shortage pair is emitted independently, so a store
// can be asked to give or receive more than its own excess across pairs. With
// CapacityConstrainedTransfers each suggestion consumes capacity on both sides.
func (r *RebalancingMatcher) Match(m *Metrics) []domain.TransferSuggestion {
	byProduct := make(map[string][]domain.StoreProductKey)
	for key := range m.StoreStock {
		byProduct[key.ProductID] = append(byProduct[key.ProductID], key)
	}

	var out []domain.TransferSuggestion
	for _, productID := range sortedKeys(byProduct) {
		var surplus, shortage []storePosition
		for _, key := range byProduct[productID] {
			d, ok := m.StoreDemand[key]
			if !ok || d.AvgDailySale == nil {
				continue
			}
			excess := r.Excess(m.StoreStock[key], *d.AvgDailySale)
			switch {
			case excess > r.cfg.SurplusThreshold:
				surplus = append(surplus, storePosition{storeID: key.StoreID, excess: excess})
			case excess < -r.cfg.ShortageThreshold:
				shortage = append(shortage, storePosition{storeID: key.StoreID, excess: excess})
			}
		}

		out = append(out, r.matchProduct(productID, surplus, shortage)...)
	}

	return out
}

func (r *RebalancingMatcher) matchProduct(productID string, surplus, shortage []storePosition) []domain.TransferSuggestion {
	sortPositions(surplus)
	sortPositions(shortage)

	give := make([]float64, len(surplus))
	for i, s := range surplus {
		give[i] = s.excess
	}
	need := make([]float64, len(shortage))
	for j, s := range shortage {
		need[j] = -s.excess
	}

	var out []domain.TransferSuggestion
	for i, from := range surplus {
		for j, to := range shortage {
			if from.storeID == to.storeID {
				continue
			}
			qty := int(math.Trunc(math.Min(give[i], need[j])))
			if qty <= 0 {
				continue
			}

			out = append(out, domain.TransferSuggestion{
				FromStore: from.storeID,
				ToStore:   to.storeID,
				ProductID: productID,
				Quantity:  qty,
			})

			if r.cfg.CapacityConstrainedTransfers {
				give[i] -= float64(qty)
				need[j] -= float64(qty)
			}
		}
	}

	return out
}

func sortPositions(p []storePosition) {
	sort.Slice(p, func(i, j int) bool { return p[i].storeID < p[j].storeID })
}
