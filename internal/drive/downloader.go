package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
	// Stems limits the download to files named <stem>.csv, <stem>.xlsx or a
	// Google Sheet titled <stem>. Empty means every CSV/XLSX/Sheet.
	Stems []string
}

// Downloader pulls run inputs from a Drive folder.
type Downloader struct {
	files Files
	log   zerolog.Logger
}

// NewDownloader creates a new Downloader.
func NewDownloader(files Files, logger zerolog.Logger) *Downloader {
	return &Downloader{files: files, log: logger}
}

// DownloadFolderCSV downloads the matching files of the folder into DownloadDir
// and returns local CSV paths.
//
//   - CSV files are downloaded directly.
//   - XLSX files are downloaded to a temporary .xlsx, then the first sheet is converted
//     to CSV in DownloadDir and the temporary .xlsx is removed.
//   - Google Sheets are exported as CSV.
func (d *Downloader) DownloadFolderCSV(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.files.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(opts.Stems))
	for _, s := range opts.Stems {
		wanted[s] = struct{}{}
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		kind, stem := classify(f)
		if kind == "" {
			continue
		}
		if _, ok := wanted[stem]; len(wanted) > 0 && !ok {
			continue
		}

		csvPath := filepath.Join(opts.DownloadDir, stem+".csv")
		switch kind {
		case ".csv":
			err = d.writeTo(csvPath, func(w io.Writer) error { return d.files.DownloadFile(ctx, f.ID, w) })
		case "sheet":
			err = d.writeTo(csvPath, func(w io.Writer) error { return d.files.ExportFile(ctx, f.ID, mimeCSV, w) })
		case ".xlsx":
			err = d.downloadXLSX(ctx, f, opts.DownloadDir, csvPath)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}

		d.log.Info().Str("file", f.Name).Str("path", csvPath).Msg("Drive input downloaded")
		localPaths = append(localPaths, csvPath)
	}

	return localPaths, nil
}

// classify returns the download kind and the input stem of a Drive file.
func classify(f *File) (string, string) {
	if f.MimeType == mimeSpreadsheet {
		return "sheet", strings.ToLower(strings.TrimSpace(f.Name))
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext != ".csv" && ext != ".xlsx" {
		return "", ""
	}
	return ext, strings.ToLower(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)))
}

func (d *Downloader) writeTo(path string, fetch func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", path, err)
	}
	if err := fetch(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (d *Downloader) downloadXLSX(ctx context.Context, f *File, dir, csvPath string) error {
	tmpXLSXPath := filepath.Join(dir, f.ID+".xlsx.tmp")
	if err := d.writeTo(tmpXLSXPath, func(w io.Writer) error { return d.files.DownloadFile(ctx, f.ID, w) }); err != nil {
		return err
	}
	// Best-effort remove temp XLSX
	defer os.Remove(tmpXLSXPath)

	return convertXLSXToCSV(tmpXLSXPath, csvPath)
}
