package domain

import "time"

// TableName identifies one derived output table. The value doubles as the
// export file stem and the database table name.
type TableName string

const (
	TableProductAlerts         TableName = "ai_alerts"
	TableStoreAlerts           TableName = "store_alerts"
	TableExpiryAlerts          TableName = "expiry_alerts"
	TableHistoricalAnalysis    TableName = "historical_analysis"
	TableProductRankings       TableName = "product_rankings"
	TableSeasonalDiscounts     TableName = "seasonal_discounts"
	TableForecastDaily         TableName = "future_prediction_daily"
	TableForecastSummary       TableName = "future_prediction_summary"
	TableSocialTrends          TableName = "social_trends"
	TableTrendRecommendations  TableName = "trend_based_recommendations"
	TableBuyingRecommendations TableName = "buying_recommendations"
	TableTransferSuggestions   TableName = "transfer_suggestions"
)

// AllTables lists every derived table in export order.
var AllTables = []TableName{
	TableProductAlerts,
	TableStoreAlerts,
	TableExpiryAlerts,
	TableHistoricalAnalysis,
	TableProductRankings,
	TableSeasonalDiscounts,
	TableForecastDaily,
	TableForecastSummary,
	TableSocialTrends,
	TableTrendRecommendations,
	TableBuyingRecommendations,
	TableTransferSuggestions,
}

// TableColumns is the stable column set of each table, in output order.
var TableColumns = map[TableName][]string{
	TableProductAlerts: {
		"product_id", "current_stock", "avg_daily_sales", "movement", "status",
		"reorder_target", "reorder_suggestion",
	},
	TableStoreAlerts: {
		"store_id", "product_id", "stock_level", "avg_daily_sales", "movement", "status",
		"reorder_target", "reorder_suggestion", "reorder_level", "below_reorder_level",
	},
	TableExpiryAlerts: {
		"store_id", "product_id", "stock_level", "expiry_date", "days_left", "expiry_status",
	},
	TableHistoricalAnalysis: {
		"product_id", "total_sales", "average_daily_sales", "peak_sales_day", "peak_sales_qty",
		"lowest_sales_day", "lowest_sales_qty", "total_store_coverage",
	},
	TableProductRankings: {
		"product_id", "total_sales", "rank", "category",
	},
	TableSeasonalDiscounts: {
		"product_id", "total_sales", "season", "recommended_discount_percent", "discount_reason",
	},
	TableForecastDaily: {
		"product_id", "date", "forecast_qty",
	},
	TableForecastSummary: {
		"product_id", "forecast_next_30", "current_stock", "suggested_additional_stock",
	},
	TableSocialTrends: {
		"product_id", "total_sales", "rank", "forecast_next_30", "current_stock",
		"suggested_additional_stock", "movement", "social_buzz", "trend_score", "trend_category",
	},
	TableTrendRecommendations: {
		"product_id", "trend_score", "trend_category", "forecast_next_30", "current_stock",
		"suggested_additional_stock", "extra_qty_to_buy",
	},
	TableBuyingRecommendations: {
		"product_id", "forecast_next_30", "trend_category", "trend_score", "movement",
		"current_stock", "optimal_stock_next_30", "units_to_buy", "buying_priority",
	},
	TableTransferSuggestions: {
		"from_store", "to_store", "product_id", "qty_transfer",
	},
}

// Row is a derived table row that can render its values in TableColumns order.
type Row interface {
	Values() []any
}

// ProductAlert is the product-level stock/demand alert row.
type ProductAlert struct {
	ProductID         string      `json:"product_id" db:"product_id"`
	CurrentStock      float64     `json:"current_stock" db:"current_stock"`
	AvgDailySales     *float64    `json:"avg_daily_sales" db:"avg_daily_sales"`
	Movement          Movement    `json:"movement" db:"movement"`
	Status            StockStatus `json:"status" db:"status"`
	ReorderTarget     int         `json:"reorder_target" db:"reorder_target"`
	ReorderSuggestion int         `json:"reorder_suggestion" db:"reorder_suggestion"`
}

func (r ProductAlert) Values() []any {
	return []any{
		r.ProductID, r.CurrentStock, r.AvgDailySales, string(r.Movement), string(r.Status),
		r.ReorderTarget, r.ReorderSuggestion,
	}
}

// StoreAlert is the store-level stock/demand alert row.
type StoreAlert struct {
	StoreID           string      `json:"store_id" db:"store_id"`
	ProductID         string      `json:"product_id" db:"product_id"`
	StockLevel        float64     `json:"stock_level" db:"stock_level"`
	AvgDailySales     *float64    `json:"avg_daily_sales" db:"avg_daily_sales"`
	Movement          Movement    `json:"movement" db:"movement"`
	Status            StockStatus `json:"status" db:"status"`
	ReorderTarget     int         `json:"reorder_target" db:"reorder_target"`
	ReorderSuggestion int         `json:"reorder_suggestion" db:"reorder_suggestion"`
	ReorderLevel      *float64    `json:"reorder_level" db:"reorder_level"`
	BelowReorderLevel *bool       `json:"below_reorder_level" db:"below_reorder_level"`
}

func (r StoreAlert) Values() []any {
	return []any{
		r.StoreID, r.ProductID, r.StockLevel, r.AvgDailySales, string(r.Movement), string(r.Status),
		r.ReorderTarget, r.ReorderSuggestion, r.ReorderLevel, r.BelowReorderLevel,
	}
}

// ExpiryAlert is the shelf-life row of one stock snapshot.
type ExpiryAlert struct {
	StoreID      string       `json:"store_id" db:"store_id"`
	ProductID    string       `json:"product_id" db:"product_id"`
	StockLevel   float64      `json:"stock_level" db:"stock_level"`
	ExpiryDate   *time.Time   `json:"expiry_date" db:"expiry_date"`
	DaysLeft     *int         `json:"days_left" db:"days_left"`
	ExpiryStatus ExpiryStatus `json:"expiry_status" db:"expiry_status"`
}

func (r ExpiryAlert) Values() []any {
	return []any{r.StoreID, r.ProductID, r.StockLevel, r.ExpiryDate, r.DaysLeft, string(r.ExpiryStatus)}
}

// HistoricalSummary describes a product's observed sales history.
type HistoricalSummary struct {
	ProductID          string    `json:"product_id" db:"product_id"`
	TotalSales         float64   `json:"total_sales" db:"total_sales"`
	AverageDailySales  float64   `json:"average_daily_sales" db:"average_daily_sales"`
	PeakSalesDay       time.Time `json:"peak_sales_day" db:"peak_sales_day"`
	PeakSalesQty       float64   `json:"peak_sales_qty" db:"peak_sales_qty"`
	LowestSalesDay     time.Time `json:"lowest_sales_day" db:"lowest_sales_day"`
	LowestSalesQty     float64   `json:"lowest_sales_qty" db:"lowest_sales_qty"`
	TotalStoreCoverage int       `json:"total_store_coverage" db:"total_store_coverage"`
}

func (r HistoricalSummary) Values() []any {
	return []any{
		r.ProductID, r.TotalSales, r.AverageDailySales, r.PeakSalesDay, r.PeakSalesQty,
		r.LowestSalesDay, r.LowestSalesQty, r.TotalStoreCoverage,
	}
}

// ProductRanking is a product's dense sales rank and sales tier.
type ProductRanking struct {
	ProductID  string    `json:"product_id" db:"product_id"`
	TotalSales float64   `json:"total_sales" db:"total_sales"`
	Rank       int       `json:"rank" db:"rank"`
	Category   SalesTier `json:"category" db:"category"`
}

func (r ProductRanking) Values() []any {
	return []any{r.ProductID, r.TotalSales, r.Rank, string(r.Category)}
}

// SeasonalDiscount is the discount recommendation for a product's demand season.
type SeasonalDiscount struct {
	ProductID                  string  `json:"product_id" db:"product_id"`
	TotalSales                 float64 `json:"total_sales" db:"total_sales"`
	Season                     Season  `json:"season" db:"season"`
	RecommendedDiscountPercent int     `json:"recommended_discount_percent" db:"recommended_discount_percent"`
	DiscountReason             string  `json:"discount_reason" db:"discount_reason"`
}

func (r SeasonalDiscount) Values() []any {
	return []any{r.ProductID, r.TotalSales, string(r.Season), r.RecommendedDiscountPercent, r.DiscountReason}
}

// DailyForecast is the projected quantity of a product on one future date.
type DailyForecast struct {
	ProductID   string    `json:"product_id" db:"product_id"`
	Date        time.Time `json:"date" db:"date"`
	ForecastQty float64   `json:"forecast_qty" db:"forecast_qty"`
}

func (r DailyForecast) Values() []any {
	return []any{r.ProductID, r.Date, r.ForecastQty}
}

// ForecastResult is the projected demand of a product over the forecast window.
type ForecastResult struct {
	ProductID                string  `json:"product_id" db:"product_id"`
	ForecastWindowDays       int     `json:"-" db:"-"`
	DailyMean                float64 `json:"-" db:"-"`
	ProjectedTotal           float64 `json:"forecast_next_30" db:"forecast_next_30"`
	CurrentStock             float64 `json:"current_stock" db:"current_stock"`
	SuggestedAdditionalStock int     `json:"suggested_additional_stock" db:"suggested_additional_stock"`
}

func (r ForecastResult) Values() []any {
	return []any{r.ProductID, r.ProjectedTotal, r.CurrentStock, r.SuggestedAdditionalStock}
}

// SocialTrend is a product's composite trend score and batch-relative category.
type SocialTrend struct {
	ProductID                string        `json:"product_id" db:"product_id"`
	TotalSales               float64       `json:"total_sales" db:"total_sales"`
	Rank                     int           `json:"rank" db:"rank"`
	ForecastNext30           float64       `json:"forecast_next_30" db:"forecast_next_30"`
	CurrentStock             float64       `json:"current_stock" db:"current_stock"`
	SuggestedAdditionalStock int           `json:"suggested_additional_stock" db:"suggested_additional_stock"`
	Movement                 Movement      `json:"movement" db:"movement"`
	SocialBuzz               int           `json:"social_buzz" db:"social_buzz"`
	TrendScore               float64       `json:"trend_score" db:"trend_score"`
	TrendCategory            TrendCategory `json:"trend_category" db:"trend_category"`
}

func (r SocialTrend) Values() []any {
	return []any{
		r.ProductID, r.TotalSales, r.Rank, r.ForecastNext30, r.CurrentStock,
		r.SuggestedAdditionalStock, string(r.Movement), r.SocialBuzz, r.TrendScore, string(r.TrendCategory),
	}
}

// TrendRecommendation is the extra quantity suggested for hot products.
type TrendRecommendation struct {
	ProductID                string        `json:"product_id" db:"product_id"`
	TrendScore               float64       `json:"trend_score" db:"trend_score"`
	TrendCategory            TrendCategory `json:"trend_category" db:"trend_category"`
	ForecastNext30           float64       `json:"forecast_next_30" db:"forecast_next_30"`
	CurrentStock             float64       `json:"current_stock" db:"current_stock"`
	SuggestedAdditionalStock int           `json:"suggested_additional_stock" db:"suggested_additional_stock"`
	ExtraQtyToBuy            int           `json:"extra_qty_to_buy" db:"extra_qty_to_buy"`
}

func (r TrendRecommendation) Values() []any {
	return []any{
		r.ProductID, r.TrendScore, string(r.TrendCategory), r.ForecastNext30, r.CurrentStock,
		r.SuggestedAdditionalStock, r.ExtraQtyToBuy,
	}
}

// BuyingRecommendation is the final buying decision for a product.
// TrendScore is nil and TrendCategory empty when the product has no trend row.
type BuyingRecommendation struct {
	ProductID          string         `json:"product_id" db:"product_id"`
	ForecastNext30     float64        `json:"forecast_next_30" db:"forecast_next_30"`
	TrendCategory      TrendCategory  `json:"trend_category" db:"trend_category"`
	TrendScore         *float64       `json:"trend_score" db:"trend_score"`
	Movement           Movement       `json:"movement" db:"movement"`
	CurrentStock       float64        `json:"current_stock" db:"current_stock"`
	OptimalStockNext30 float64        `json:"optimal_stock_next_30" db:"optimal_stock_next_30"`
	UnitsToBuy         int            `json:"units_to_buy" db:"units_to_buy"`
	BuyingPriority     BuyingPriority `json:"buying_priority" db:"buying_priority"`
}

func (r BuyingRecommendation) Values() []any {
	return []any{
		r.ProductID, r.ForecastNext30, string(r.TrendCategory), r.TrendScore, string(r.Movement),
		r.CurrentStock, r.OptimalStockNext30, r.UnitsToBuy, string(r.BuyingPriority),
	}
}

// TransferSuggestion proposes moving stock of a product between two stores.
type TransferSuggestion struct {
	FromStore string `json:"from_store" db:"from_store"`
	ToStore   string `json:"to_store" db:"to_store"`
	ProductID string `json:"product_id" db:"product_id"`
	Quantity  int    `json:"qty_transfer" db:"qty_transfer"`
}

func (r TransferSuggestion) Values() []any {
	return []any{r.FromStore, r.ToStore, r.ProductID, r.Quantity}
}

// Tables holds every derived table of one run.
type Tables struct {
	ProductAlerts         []ProductAlert         `json:"ai_alerts"`
	StoreAlerts           []StoreAlert           `json:"store_alerts"`
	ExpiryAlerts          []ExpiryAlert          `json:"expiry_alerts"`
	HistoricalAnalysis    []HistoricalSummary    `json:"historical_analysis"`
	ProductRankings       []ProductRanking       `json:"product_rankings"`
	SeasonalDiscounts     []SeasonalDiscount     `json:"seasonal_discounts"`
	ForecastDaily         []DailyForecast        `json:"future_prediction_daily"`
	ForecastSummary       []ForecastResult       `json:"future_prediction_summary"`
	SocialTrends          []SocialTrend          `json:"social_trends"`
	TrendRecommendations  []TrendRecommendation  `json:"trend_based_recommendations"`
	BuyingRecommendations []BuyingRecommendation `json:"buying_recommendations"`
	TransferSuggestions   []TransferSuggestion   `json:"transfer_suggestions"`
}

// Rows returns the rows of the named table.
func (t *Tables) Rows(name TableName) []Row {
	switch name {
	case TableProductAlerts:
		return toRows(t.ProductAlerts)
	case TableStoreAlerts:
		return toRows(t.StoreAlerts)
	case TableExpiryAlerts:
		return toRows(t.ExpiryAlerts)
	case TableHistoricalAnalysis:
		return toRows(t.HistoricalAnalysis)
	case TableProductRankings:
		return toRows(t.ProductRankings)
	case TableSeasonalDiscounts:
		return toRows(t.SeasonalDiscounts)
	case TableForecastDaily:
		return toRows(t.ForecastDaily)
	case TableForecastSummary:
		return toRows(t.ForecastSummary)
	case TableSocialTrends:
		return toRows(t.SocialTrends)
	case TableTrendRecommendations:
		return toRows(t.TrendRecommendations)
	case TableBuyingRecommendations:
		return toRows(t.BuyingRecommendations)
	case TableTransferSuggestions:
		return toRows(t.TransferSuggestions)
	}

	return nil
}

func toRows[T Row](rows []T) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
