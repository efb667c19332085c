package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// Input file stems looked up in an input directory.
const (
	SalesFile    = "sales"
	StockFile    = "stock"
	ProductsFile = "products"
	BuzzFile     = "buzz"
)

// inputExtensions are tried in order for every input stem.
var inputExtensions = []string{".csv", ".xlsx"}

// Report describes what the loader read and what it had to degrade.
type Report struct {
	SalesRows     int
	StockRows     int
	ProductRows   int
	BuzzRows      int
	UndatedSales  int
	InvalidExpiry int
}

// Loader reads the run inputs from a directory.
type Loader struct {
	log zerolog.Logger
}

func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{log: logger}
}

// FindInput returns the path of the first existing file for stem, or "".
func FindInput(dir, stem string) string {
	for _, ext := range inputExtensions {
		path := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadDir reads sales and stock (required) plus products and buzz (optional) from dir.
func (l *Loader) LoadDir(dir string) (*domain.Dataset, *Report, error) {
	ds := &domain.Dataset{}
	report := &Report{}

	salesPath := FindInput(dir, SalesFile)
	if salesPath == "" {
		return nil, nil, fmt.Errorf("sales input not found in %s", dir)
	}
	stockPath := FindInput(dir, StockFile)
	if stockPath == "" {
		return nil, nil, fmt.Errorf("stock input not found in %s", dir)
	}

	salesTable, err := ReadFile(salesPath)
	if err != nil {
		return nil, nil, err
	}
	ds.Sales, report.UndatedSales, err = ParseSales(salesTable)
	if err != nil {
		return nil, nil, err
	}
	report.SalesRows = len(ds.Sales)

	stockTable, err := ReadFile(stockPath)
	if err != nil {
		return nil, nil, err
	}
	ds.Stock, report.InvalidExpiry, err = ParseStock(stockTable)
	if err != nil {
		return nil, nil, err
	}
	report.StockRows = len(ds.Stock)

	if path := FindInput(dir, ProductsFile); path != "" {
		t, err := ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if ds.Products, err = ParseProducts(t); err != nil {
			return nil, nil, err
		}
		report.ProductRows = len(ds.Products)
	}

	if path := FindInput(dir, BuzzFile); path != "" {
		t, err := ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if ds.Buzz, err = ParseBuzz(t); err != nil {
			return nil, nil, err
		}
		report.BuzzRows = len(ds.Buzz)
	}

	if report.UndatedSales > 0 {
		l.log.Warn().
			Str("file", salesPath).
			Int("rows", report.UndatedSales).
			Msg("Sales rows with unparseable dates")
	}
	if report.InvalidExpiry > 0 {
		l.log.Warn().
			Str("file", stockPath).
			Int("rows", report.InvalidExpiry).
			Msg("Stock rows with unparseable expiry dates")
	}

	l.log.Info().
		Str("dir", dir).
		Int("sales_rows", report.SalesRows).
		Int("stock_rows", report.StockRows).
		Int("product_rows", report.ProductRows).
		Int("buzz_rows", report.BuzzRows).
		Msg("Inputs loaded")

	return ds, report, nil
}

// IsSchemaError reports whether err is a fatal input schema or value error.
func IsSchemaError(err error) bool {
	var missing *domain.MissingColumnError
	var invalid *domain.InvalidValueError
	return errors.As(err, &missing) || errors.As(err, &invalid)
}
