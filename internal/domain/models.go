// backend-go/internal/domain/models.go
package domain

import "time"

// TransactionRecord is one pre-aggregated daily sale event for a product in a store.
type TransactionRecord struct {
	StoreID   string
	ProductID string
	Date      time.Time // zero when the source cell could not be parsed
	Quantity  float64
}

// HasDate reports whether the record carries a usable calendar date.
func (r TransactionRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// StockSnapshot is the observed stock level of a product in a store on a date.
type StockSnapshot struct {
	StoreID    string
	ProductID  string
	Date       time.Time
	StockLevel float64
	ExpiryDate *time.Time
}

// ProductMeta is static reference data for a product.
type ProductMeta struct {
	ProductID    string
	ReorderLevel float64
}

// Dataset is the normalized input of a single run.
type Dataset struct {
	Sales    []TransactionRecord
	Stock    []StockSnapshot
	Products []ProductMeta
	// Buzz holds externally supplied social buzz scores keyed by product_id.
	Buzz map[string]int
}

// StoreProductKey identifies a product within a store.
type StoreProductKey struct {
	StoreID   string
	ProductID string
}

// DemandMetric is the demand summary for a product, or a product within a store.
type DemandMetric struct {
	StoreID      string // empty for product scope
	ProductID    string
	TotalSold    float64
	DaysObserved int
	AvgDailySale *float64 // nil when DaysObserved is 0
}

// DailyTotal is the summed quantity of a product on one calendar date.
type DailyTotal struct {
	Date     time.Time
	Quantity float64
}

// RunStatus represents the state of a signals run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// SignalRun tracks a single execution of the signals pipeline.
type SignalRun struct {
	ID           int64      `json:"id" db:"id"`
	Status       RunStatus  `json:"status" db:"status"`
	SalesRows    int        `json:"sales_rows" db:"sales_rows"`
	StockRows    int        `json:"stock_rows" db:"stock_rows"`
	UndatedSales int        `json:"undated_sales" db:"undated_sales"`
	Products     int        `json:"products" db:"products"`
	Transfers    int        `json:"transfers" db:"transfers"`
	BuzzSeed     int64      `json:"buzz_seed" db:"buzz_seed"`
	AsOf         time.Time  `json:"as_of" db:"as_of"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
}

// TableQuery selects rows of one derived table from a run.
type TableQuery struct {
	RunID      int64
	Table      TableName
	ProductIDs []string
	StoreIDs   []string
}
