package domain

import "strings"

// Movement classifies sales velocity from the average daily sale.
type Movement string

const (
	MovementFast    Movement = "fast-moving"
	MovementSlow    Movement = "slow-moving"
	MovementNormal  Movement = "normal-moving"
	MovementUnknown Movement = "unknown"
)

// StockStatus classifies a stock level against the reorder and overstock thresholds.
type StockStatus string

const (
	StockOutOfStock StockStatus = "out_of_stock"
	StockLow        StockStatus = "low_stock"
	StockOverstock  StockStatus = "overstock"
	StockOK         StockStatus = "ok"
)

// NeedsReorder reports whether the status calls for a reorder suggestion.
func (s StockStatus) NeedsReorder() bool {
	return s == StockLow || s == StockOutOfStock
}

// TrendCategory is the batch-relative tier of a trend score.
// The empty value marks a product with no trend row.
type TrendCategory string

const (
	TrendViral     TrendCategory = "viral"
	TrendTrending  TrendCategory = "trending"
	TrendStable    TrendCategory = "stable"
	TrendDeclining TrendCategory = "declining"
)

// IsHot reports whether the category is viral or trending.
func (c TrendCategory) IsHot() bool {
	return c == TrendViral || c == TrendTrending
}

// BuyingPriority is the discrete purchase decision for a product.
type BuyingPriority string

const (
	PriorityHigh   BuyingPriority = "HIGH"
	PriorityMedium BuyingPriority = "MEDIUM"
	PriorityLow    BuyingPriority = "LOW"
	PriorityNoNeed BuyingPriority = "NO NEED"
)

// SalesTier is the batch-relative tier of a product's total sales.
type SalesTier string

const (
	SalesFast   SalesTier = "fast_selling"
	SalesMedium SalesTier = "medium_selling"
	SalesSlow   SalesTier = "slow_selling"
)

// Season is the batch-relative demand season used for discount recommendations.
type Season string

const (
	SeasonFestival Season = "festival"
	SeasonSummer   Season = "summer"
	SeasonWinter   Season = "winter"
	SeasonOff      Season = "off-season"
)

var seasonDiscounts = map[Season]int{
	SeasonFestival: 5,
	SeasonSummer:   10,
	SeasonWinter:   15,
	SeasonOff:      25,
}

var seasonReasons = map[Season]string{
	SeasonFestival: "High demand season \u2014 only small discount needed",
	SeasonSummer:   "Good demand \u2014 moderate discount",
	SeasonWinter:   "Low demand \u2014 increase discount",
	SeasonOff:      "Very low sales \u2014 offer big discount",
}

// DiscountPercent returns the recommended discount for the season.
func (s Season) DiscountPercent() int {
	if pct, ok := seasonDiscounts[s]; ok {
		return pct
	}

	return seasonDiscounts[SeasonOff]
}

// DiscountReason returns the human-readable explanation for the discount.
func (s Season) DiscountReason() string {
	if reason, ok := seasonReasons[s]; ok {
		return reason
	}

	return seasonReasons[SeasonOff]
}

// ExpiryStatus classifies the remaining shelf life of a stock row.
type ExpiryStatus string

const (
	ExpiryUnknown      ExpiryStatus = "unknown"
	ExpiryExpired      ExpiryStatus = "expired"
	ExpiryExpiringSoon ExpiryStatus = "expiring_soon"
	ExpirySafe         ExpiryStatus = "safe"
)

var tableNames = map[string]TableName{}

func init() {
	for _, name := range AllTables {
		tableNames[string(name)] = name
	}
}

// ParseTableName resolves a table name (case-insensitive, optional .csv suffix).
func ParseTableName(raw string) (TableName, bool) {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".csv")
	name, ok := tableNames[key]

	return name, ok
}
