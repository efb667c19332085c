package drive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeFiles struct {
	files    []*File
	contents map[string][]byte
	exported map[string][]byte
}

func (f *fakeFiles) ListFiles(_ context.Context, _ string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeFiles) DownloadFile(_ context.Context, fileID string, w io.Writer) error {
	data, ok := f.contents[fileID]
	if !ok {
		return errors.New("no such file")
	}
	_, err := w.Write(data)
	return err
}

func (f *fakeFiles) ExportFile(_ context.Context, fileID, mimeType string, w io.Writer) error {
	if mimeType != mimeCSV {
		return errors.New("unexpected mime type")
	}
	_, err := w.Write(f.exported[fileID])
	return err
}

func xlsxBytes(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestDownloadFolderCSV(t *testing.T) {
	files := &fakeFiles{
		files: []*File{
			{ID: "1", Name: "Sales.csv", MimeType: "text/csv"},
			{ID: "2", Name: "stock.xlsx", MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
			{ID: "3", Name: "products", MimeType: mimeSpreadsheet},
			{ID: "4", Name: "readme.txt", MimeType: "text/plain"},
			{ID: "5", Name: "archive.csv", MimeType: "text/csv"},
		},
		contents: map[string][]byte{
			"1": []byte("date,store_id,product_id,qty_sold\n"),
			"2": xlsxBytes(t,
				[]any{"store_id", "product_id", "stock_level", "expiry_date"},
				[]any{"S1", "P1", 4},
				[]any{},
			),
		},
		exported: map[string][]byte{"3": []byte("product_id,reorder_level\nP1,10\n")},
	}
	dir := t.TempDir()

	paths, err := NewDownloader(files, zerolog.Nop()).DownloadFolderCSV(context.Background(), DownloadOptions{
		DownloadDir: dir,
		Stems:       []string{"sales", "stock", "products"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "sales.csv"),
		filepath.Join(dir, "stock.csv"),
		filepath.Join(dir, "products.csv"),
	}, paths)

	stock, err := os.ReadFile(filepath.Join(dir, "stock.csv"))
	require.NoError(t, err)
	assert.Equal(t, "store_id,product_id,stock_level,expiry_date\nS1,P1,4,\n", string(stock))

	products, err := os.ReadFile(filepath.Join(dir, "products.csv"))
	require.NoError(t, err)
	assert.Equal(t, "product_id,reorder_level\nP1,10\n", string(products))

	_, err = os.Stat(filepath.Join(dir, "2.xlsx.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadFolderCSVRequiresDir(t *testing.T) {
	_, err := NewDownloader(&fakeFiles{}, zerolog.Nop()).DownloadFolderCSV(context.Background(), DownloadOptions{})
	assert.ErrorContains(t, err, "download dir is required")
}

func TestDownloadFolderCSVStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	files := &fakeFiles{files: []*File{{ID: "1", Name: "sales.csv"}}}

	_, err := NewDownloader(files, zerolog.Nop()).DownloadFolderCSV(ctx, DownloadOptions{DownloadDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	kind, stem := classify(&File{Name: "Stock.XLSX"})
	assert.Equal(t, ".xlsx", kind)
	assert.Equal(t, "stock", stem)

	kind, _ = classify(&File{Name: "photo.png"})
	assert.Empty(t, kind)

	kind, stem = classify(&File{Name: " Buzz ", MimeType: mimeSpreadsheet})
	assert.Equal(t, "sheet", kind)
	assert.Equal(t, "buzz", stem)
}
