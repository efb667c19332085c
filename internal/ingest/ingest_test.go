package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewTableNormalizesHeaders(t *testing.T) {
	tbl := NewTable("sales", []string{"\ufeff Store_ID", "Product", "DATE ", "Qty Sold"}, nil)

	assert.Equal(t, []string{"store_id", "product_id", "date", "quantity"}, tbl.Header)
	assert.True(t, tbl.Has(ColQuantity))
	assert.NoError(t, tbl.Require(ColStoreID, ColProductID, ColDate, ColQuantity))
}

func TestNewTableKeepsCanonicalOverAlias(t *testing.T) {
	tbl := NewTable("stock", []string{"product", "product_id", "store_id", "stock_level"},
		[][]string{{"alias", "canonical", "S1", "3"}})

	assert.Equal(t, "canonical", tbl.Value(tbl.Rows[0], ColProductID))
}

func TestNewTableAliasPrecedenceIsStable(t *testing.T) {
	const csvData = "store_id,product_id,date,qty,qty_sold\nS1,P1,2024-01-01,1,9\n"

	for i := 0; i < 50; i++ {
		tbl, err := ReadCSV("sales", strings.NewReader(csvData))
		require.NoError(t, err)

		records, _, err := ParseSales(tbl)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, 9.0, records[0].Quantity, "qty_sold must win over qty")
	}
}

func TestRequireReportsMissingColumn(t *testing.T) {
	tbl := NewTable("sales", []string{"store_id", "date", "qty_sold"}, nil)

	_, _, err := ParseSales(tbl)

	var missing *domain.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "sales", missing.Table)
	assert.Equal(t, ColProductID, missing.Column)
	assert.True(t, IsSchemaError(err))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2024-03-04",
		"2024-03-04 10:30:00",
		"2024-03-04T10:30:00Z",
		"04/03/2024",
		"4/3/2024",
		"04-03-2024",
		"04.03.2024",
		"4 Mar 2024",
		"Mar 4, 2024",
		"20240304",
	} {
		got, ok := ParseDate(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "n/a", "32/01/2024", "yesterday"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestParseSales(t *testing.T) {
	tbl, err := ReadCSV("sales", strings.NewReader(
		"date,store_id,product,qty_sold\n"+
			"01/02/2024,S1,P1,4\n"+
			"\n"+
			"bad-date,S1,P1,7\n"+
			"2024-02-02,S2,P2,\n"))
	require.NoError(t, err)

	records, undated, err := ParseSales(tbl)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, 1, undated)
	assert.Equal(t, domain.TransactionRecord{
		StoreID:   "S1",
		ProductID: "P1",
		Date:      time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		Quantity:  4,
	}, records[0])
	assert.False(t, records[1].HasDate())
	assert.Equal(t, 7.0, records[1].Quantity)
	assert.Zero(t, records[2].Quantity)
}

func TestParseSalesInvalidQuantity(t *testing.T) {
	tbl := NewTable("sales", []string{"store_id", "product_id", "date", "quantity"},
		[][]string{{"S1", "P1", "2024-01-01", "lots"}})

	_, _, err := ParseSales(tbl)

	var invalid *domain.InvalidValueError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 2, invalid.Row)
	assert.Equal(t, "lots", invalid.Value)
}

func TestParseSalesRejectsNegativeQuantity(t *testing.T) {
	tbl, err := ReadCSV("sales", strings.NewReader("store_id,product_id,date,quantity\nS1,P1,2024-01-01,4\nS1,P1,2024-01-02,-5\n"))
	require.NoError(t, err)

	records, _, err := ParseSales(tbl)

	var invalid *domain.InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Nil(t, records)
	assert.Equal(t, ColQuantity, invalid.Column)
	assert.Equal(t, 3, invalid.Row)
	assert.Equal(t, "-5", invalid.Value)
	assert.True(t, IsSchemaError(err))
}

func TestParseStock(t *testing.T) {
	tbl := NewTable("stock", []string{"date", "store_id", "product_id", "stock_level", "expiry_date"}, [][]string{
		{"2024-01-01", "S1", "P1", "1,200", "15/01/2024"},
		{"2024-01-01", "S1", "P2", "3", ""},
		{"2024-01-01", "S2", "P2", "0", "soon"},
	})

	snaps, badExpiry, err := ParseStock(tbl)
	require.NoError(t, err)

	require.Len(t, snaps, 3)
	assert.Equal(t, 1200.0, snaps[0].StockLevel)
	require.NotNil(t, snaps[0].ExpiryDate)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), *snaps[0].ExpiryDate)
	assert.Nil(t, snaps[1].ExpiryDate)
	assert.Nil(t, snaps[2].ExpiryDate)
	assert.Equal(t, 1, badExpiry)
}

func TestParseStockRejectsNegativeLevel(t *testing.T) {
	tbl := NewTable("stock", []string{"store_id", "product_id", "stock_level"}, [][]string{{"S1", "P1", "-2"}})

	_, _, err := ParseStock(tbl)
	assert.True(t, IsSchemaError(err))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "date,store_id,product_id,qty_sold\n2024-01-01,S1,P1,5\nnope,S1,P1,1\n")
	writeFile(t, dir, "stock.csv", "date,store_id,product_id,stock_level,expiry_date\n2024-01-01,S1,P1,10,2024-02-01\n")
	writeFile(t, dir, "products.csv", "product_id,reorder_level\nP1,12\n")
	writeFile(t, dir, "buzz.csv", "product_id,social_buzz\nP1,77\n")

	ds, report, err := NewLoader(zerolog.Nop()).LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, &Report{SalesRows: 2, StockRows: 1, ProductRows: 1, BuzzRows: 1, UndatedSales: 1}, report)
	assert.Len(t, ds.Sales, 2)
	assert.Len(t, ds.Stock, 1)
	assert.Equal(t, []domain.ProductMeta{{ProductID: "P1", ReorderLevel: 12}}, ds.Products)
	assert.Equal(t, map[string]int{"P1": 77}, ds.Buzz)
}

func TestLoadDirRequiresSalesAndStock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "date,store_id,product_id,quantity\n")

	_, _, err := NewLoader(zerolog.Nop()).LoadDir(dir)
	assert.ErrorContains(t, err, "stock input not found")
}

func TestLoadDirMissingColumnIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "date,store_id,product_id,quantity\n")
	writeFile(t, dir, "stock.csv", "store_id,product_id\nS1,P1\n")

	_, _, err := NewLoader(zerolog.Nop()).LoadDir(dir)

	var missing *domain.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "stock", missing.Table)
	assert.Equal(t, ColStockLevel, missing.Column)
}

func TestReadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stock.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Store", "Product", "Stock"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"S1", "P1", 9}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "stock", tbl.Name)
	assert.Equal(t, []string{"store_id", "product_id", "stock_level"}, tbl.Header)

	snaps, _, err := ParseStock(tbl)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 9.0, snaps[0].StockLevel)
	assert.Equal(t, "P1", snaps[0].ProductID)
}

func TestFindInputPrefersCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.xlsx", "")
	csvPath := writeFile(t, dir, "sales.csv", "")

	assert.Equal(t, csvPath, FindInput(dir, SalesFile))
	assert.Empty(t, FindInput(dir, ProductsFile))
}
