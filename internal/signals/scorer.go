package signals

import (
	"math"
	"sort"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// Trend score weights.
const (
	weightSales    = 0.30
	weightForecast = 0.30
	weightBuzz     = 0.20
	weightRank     = 0.10
	weightRestock  = 0.10

	extraQtyTrendShare = 0.1
)

// PriorityScorer ranks products, scores their trend and decides what to buy.
type PriorityScorer struct {
	cfg  Config
	buzz BuzzProvider
}

func NewPriorityScorer(cfg Config, buzz BuzzProvider) *PriorityScorer {
	if buzz == nil {
		buzz = SeededBuzz{}
	}
	return &PriorityScorer{cfg: cfg.withDefaults(), buzz: buzz}
}

// Rankings dense-ranks sold products by total sales, highest first, and tags
// each with its batch-relative sales tier. Ties share a rank and are ordered by id.
func (p *PriorityScorer) Rankings(m *Metrics) []domain.ProductRanking {
	ids := m.SoldProducts()
	rankings := make([]domain.ProductRanking, 0, len(ids))
	totals := make([]float64, 0, len(ids))
	for _, id := range ids {
		total := m.ProductDemand[id].TotalSold
		rankings = append(rankings, domain.ProductRanking{ProductID: id, TotalSales: total})
		totals = append(totals, total)
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TotalSales > rankings[j].TotalSales
	})

	cutoffs := NewSalesTierCutoffs(totals)
	rank := 0
	for i := range rankings {
		if i == 0 || rankings[i].TotalSales != rankings[i-1].TotalSales {
			rank++
		}
		rankings[i].Rank = rank
		rankings[i].Category = cutoffs.Tier(rankings[i].TotalSales)
	}

	return rankings
}

// TrendScore blends sales, forecast, buzz, rank and restock need into one score.
func TrendScore(totalSales, forecast float64, buzz, rank, maxRank, suggested int) float64 {
	rankBonus := 0.0
	if rank > 0 {
		rankBonus = float64(maxRank) / float64(rank)
	}
	score := weightSales*totalSales +
		weightForecast*forecast +
		weightBuzz*float64(buzz) +
		weightRank*rankBonus +
		weightRestock*float64(suggested)
	return roundFloat(score, 2)
}

// Trends scores every ranked product and labels it against the batch's trend
// cutoffs. Buzz is requested in ranking order.
func (p *PriorityScorer) Trends(
	rankings []domain.ProductRanking,
	forecasts map[string]domain.ForecastResult,
	movements map[string]domain.Movement,
) []domain.SocialTrend {
	ids := make([]string, len(rankings))
	maxRank := 0
	for i, r := range rankings {
		ids[i] = r.ProductID
		if r.Rank > maxRank {
			maxRank = r.Rank
		}
	}
	buzz := p.buzz.Buzz(ids)

	trends := make([]domain.SocialTrend, 0, len(rankings))
	scores := make([]float64, 0, len(rankings))
	for _, r := range rankings {
		fc := forecasts[r.ProductID]
		t := domain.SocialTrend{
			ProductID:                r.ProductID,
			TotalSales:               r.TotalSales,
			Rank:                     r.Rank,
			ForecastNext30:           fc.ProjectedTotal,
			CurrentStock:             fc.CurrentStock,
			SuggestedAdditionalStock: fc.SuggestedAdditionalStock,
			Movement:                 movementOrUnknown(movements, r.ProductID),
			SocialBuzz:               buzz[r.ProductID],
		}
		t.TrendScore = TrendScore(t.TotalSales, t.ForecastNext30, t.SocialBuzz, t.Rank, maxRank, t.SuggestedAdditionalStock)
		trends = append(trends, t)
		scores = append(scores, t.TrendScore)
	}

	cutoffs := NewTrendCutoffs(scores)
	for i := range trends {
		trends[i].TrendCategory = cutoffs.Category(trends[i].TrendScore)
	}

	return trends
}

// TrendRecommendations adds a share of the trend score on top of the suggested
// stock for viral and trending products. Other products get 0 extra.
func (p *PriorityScorer) TrendRecommendations(trends []domain.SocialTrend) []domain.TrendRecommendation {
	recs := make([]domain.TrendRecommendation, 0, len(trends))
	for _, t := range trends {
		extra := 0
		if t.TrendCategory.IsHot() {
			extra = int(math.Trunc(float64(t.SuggestedAdditionalStock) + t.TrendScore*extraQtyTrendShare))
		}
		recs = append(recs, domain.TrendRecommendation{
			ProductID:                t.ProductID,
			TrendScore:               t.TrendScore,
			TrendCategory:            t.TrendCategory,
			ForecastNext30:           t.ForecastNext30,
			CurrentStock:             t.CurrentStock,
			SuggestedAdditionalStock: t.SuggestedAdditionalStock,
			ExtraQtyToBuy:            extra,
		})
	}
	return recs
}

// UnitsToBuy returns the optimal stock over the forecast window and the units
// needed to reach it from current stock.
func (p *PriorityScorer) UnitsToBuy(forecast, current float64) (float64, int) {
	optimal := roundFloat(forecast*p.cfg.SafetyFactor, 2)
	return optimal, ceilNonNegative(optimal - current)
}

// Priority evaluates the buying decision table top-down.
func Priority(category domain.TrendCategory, movement domain.Movement, unitsToBuy int) domain.BuyingPriority {
	switch {
	case category.IsHot() && unitsToBuy > 0:
		return domain.PriorityHigh
	case movement == domain.MovementFast:
		return domain.PriorityHigh
	case category == domain.TrendStable && unitsToBuy > 0:
		return domain.PriorityMedium
	case unitsToBuy > 0:
		return domain.PriorityLow
	default:
		return domain.PriorityNoNeed
	}
}

// BuyingRecommendations decides for every forecast product. Products without a
// trend row keep an empty category and no score.
func (p *PriorityScorer) BuyingRecommendations(
	forecasts []domain.ForecastResult,
	trends []domain.SocialTrend,
	movements map[string]domain.Movement,
) []domain.BuyingRecommendation {
	byProduct := make(map[string]domain.SocialTrend, len(trends))
	for _, t := range trends {
		byProduct[t.ProductID] = t
	}

	recs := make([]domain.BuyingRecommendation, 0, len(forecasts))
	for _, fc := range forecasts {
		optimal, units := p.UnitsToBuy(fc.ProjectedTotal, fc.CurrentStock)
		rec := domain.BuyingRecommendation{
			ProductID:          fc.ProductID,
			ForecastNext30:     fc.ProjectedTotal,
			Movement:           movementOrUnknown(movements, fc.ProductID),
			CurrentStock:       fc.CurrentStock,
			OptimalStockNext30: optimal,
			UnitsToBuy:         units,
		}
		if t, ok := byProduct[fc.ProductID]; ok {
			rec.TrendCategory = t.TrendCategory
			rec.TrendScore = floatPtr(t.TrendScore)
		}
		rec.BuyingPriority = Priority(rec.TrendCategory, rec.Movement, rec.UnitsToBuy)

		recs = append(recs, rec)
	}

	return recs
}

func movementOrUnknown(movements map[string]domain.Movement, productID string) domain.Movement {
	if mv, ok := movements[productID]; ok {
		return mv
	}
	return domain.MovementUnknown
}
