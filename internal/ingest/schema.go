package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// Canonical column names.
const (
	ColStoreID      = "store_id"
	ColProductID    = "product_id"
	ColDate         = "date"
	ColQuantity     = "quantity"
	ColStockLevel   = "stock_level"
	ColExpiryDate   = "expiry_date"
	ColReorderLevel = "reorder_level"
	ColSocialBuzz   = "social_buzz"
)

type columnAlias struct {
	alias     string
	canonical string
}

// columnAliases maps alternate upstream column names to canonical ones. The
// first alias present wins when several map to the same column.
var columnAliases = []columnAlias{
	{"product", ColProductID},
	{"store", ColStoreID},
	{"qty_sold", ColQuantity},
	{"qty", ColQuantity},
	{"stock", ColStockLevel},
	{"buzz", ColSocialBuzz},
}

func missingColumn(t *Table, column string) error {
	return &domain.MissingColumnError{
		Table:   t.Name,
		Column:  column,
		Columns: append([]string(nil), t.Header...),
	}
}

// dateLayouts are tried in order. Ambiguous numeric dates are read day first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/06",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// ParseDate parses a calendar date, reporting false when no layout matches.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

// parseNumber reads a numeric cell. Empty cells are 0; thousands separators are dropped.
func parseNumber(t *Table, row []string, rowNum int, column string) (float64, error) {
	raw := t.Value(row, column)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.InvalidValueError{Table: t.Name, Column: column, Row: rowNum, Value: raw}
	}
	return v, nil
}

// ParseSales converts a sales table into transaction records. Rows with an
// unparseable date keep a zero Date and are counted in the returned total.
func ParseSales(t *Table) ([]domain.TransactionRecord, int, error) {
	if err := t.Require(ColStoreID, ColProductID, ColDate, ColQuantity); err != nil {
		return nil, 0, err
	}

	records := make([]domain.TransactionRecord, 0, len(t.Rows))
	undated := 0
	for i, row := range t.Rows {
		qty, err := parseNumber(t, row, i+2, ColQuantity)
		if err != nil {
			return nil, 0, err
		}
		if qty < 0 {
			return nil, 0, &domain.InvalidValueError{
				Table: t.Name, Column: ColQuantity, Row: i + 2, Value: t.Value(row, ColQuantity),
			}
		}

		rec := domain.TransactionRecord{
			StoreID:   t.Value(row, ColStoreID),
			ProductID: t.Value(row, ColProductID),
			Quantity:  qty,
		}
		if date, ok := ParseDate(t.Value(row, ColDate)); ok {
			rec.Date = date
		} else {
			undated++
		}

		records = append(records, rec)
	}

	return records, undated, nil
}

// ParseStock converts a stock table into snapshots. The expiry column is optional.
// It returns the number of non-empty expiry cells that could not be parsed.
func ParseStock(t *Table) ([]domain.StockSnapshot, int, error) {
	if err := t.Require(ColStoreID, ColProductID, ColStockLevel); err != nil {
		return nil, 0, err
	}

	snaps := make([]domain.StockSnapshot, 0, len(t.Rows))
	badExpiry := 0
	for i, row := range t.Rows {
		level, err := parseNumber(t, row, i+2, ColStockLevel)
		if err != nil {
			return nil, 0, err
		}
		if level < 0 {
			return nil, 0, &domain.InvalidValueError{
				Table: t.Name, Column: ColStockLevel, Row: i + 2, Value: t.Value(row, ColStockLevel),
			}
		}

		snap := domain.StockSnapshot{
			StoreID:    t.Value(row, ColStoreID),
			ProductID:  t.Value(row, ColProductID),
			StockLevel: level,
		}
		if date, ok := ParseDate(t.Value(row, ColDate)); ok {
			snap.Date = date
		}
		if raw := t.Value(row, ColExpiryDate); raw != "" {
			if expiry, ok := ParseDate(raw); ok {
				snap.ExpiryDate = &expiry
			} else {
				badExpiry++
			}
		}

		snaps = append(snaps, snap)
	}

	return snaps, badExpiry, nil
}

// ParseProducts converts the product reference table.
func ParseProducts(t *Table) ([]domain.ProductMeta, error) {
	if err := t.Require(ColProductID, ColReorderLevel); err != nil {
		return nil, err
	}

	products := make([]domain.ProductMeta, 0, len(t.Rows))
	for i, row := range t.Rows {
		level, err := parseNumber(t, row, i+2, ColReorderLevel)
		if err != nil {
			return nil, err
		}
		products = append(products, domain.ProductMeta{
			ProductID:    t.Value(row, ColProductID),
			ReorderLevel: level,
		})
	}

	return products, nil
}

// ParseBuzz reads externally supplied social buzz scores.
func ParseBuzz(t *Table) (map[string]int, error) {
	if err := t.Require(ColProductID, ColSocialBuzz); err != nil {
		return nil, err
	}

	buzz := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		v, err := parseNumber(t, row, i+2, ColSocialBuzz)
		if err != nil {
			return nil, err
		}
		buzz[t.Value(row, ColProductID)] = int(v)
	}

	return buzz, nil
}
