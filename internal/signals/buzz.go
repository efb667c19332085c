package signals

import (
	"math/rand"
)

// BuzzProvider supplies a social buzz score per product. Implementations must
// return the same scores for the same ordered product list.
type BuzzProvider interface {
	Buzz(productIDs []string) map[string]int
}

// SeededBuzz generates synthetic buzz in [10, 100) from a fixed seed, drawing
// one value per product in the order given.
type SeededBuzz struct {
	Seed int64
}

func (s SeededBuzz) Buzz(productIDs []string) map[string]int {
	r := rand.New(rand.NewSource(s.Seed))
	scores := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		scores[id] = 10 + r.Intn(90)
	}
	return scores
}

// StaticBuzz serves externally supplied scores. Products missing from Scores
// are delegated to Fallback, or score 0 when there is none.
type StaticBuzz struct {
	Scores   map[string]int
	Fallback BuzzProvider
}

func (s StaticBuzz) Buzz(productIDs []string) map[string]int {
	scores := make(map[string]int, len(productIDs))
	var missing []string
	for _, id := range productIDs {
		if v, ok := s.Scores[id]; ok {
			scores[id] = v
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return scores
	}
	if s.Fallback == nil {
		for _, id := range missing {
			scores[id] = 0
		}
		return scores
	}
	for id, v := range s.Fallback.Buzz(missing) {
		scores[id] = v
	}
	return scores
}
