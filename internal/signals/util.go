package signals

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// ceilNonNegative returns max(0, ceil(v)).
func ceilNonNegative(v float64) int {
	return int(math.Max(0, math.Ceil(v)))
}

// truncateDay drops the clock part, keeping the calendar date in UTC.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStoreKeys[V any](m map[domain.StoreProductKey]V) []domain.StoreProductKey {
	keys := make([]domain.StoreProductKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StoreID != keys[j].StoreID {
			return keys[i].StoreID < keys[j].StoreID
		}
		return keys[i].ProductID < keys[j].ProductID
	})
	return keys
}
