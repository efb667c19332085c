package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

const dateLayout = "2006-01-02"

// FormatValue renders a row value as a CSV cell. Nil pointers render empty.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(dateLayout)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', -1, 64)
	case *bool:
		if val == nil {
			return ""
		}
		return strconv.FormatBool(*val)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(dateLayout)
	default:
		return fmt.Sprint(val)
	}
}

// WriteTable writes the header and rows of one table.
func WriteTable(w io.Writer, name domain.TableName, rows []domain.Row) error {
	columns, ok := domain.TableColumns[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, name)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}

	record := make([]string, len(columns))
	for i, row := range rows {
		values := row.Values()
		if len(values) != len(columns) {
			return fmt.Errorf("%s row %d: got %d values for %d columns", name, i, len(values), len(columns))
		}
		for j, v := range values {
			record[j] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Writer exports every derived table of a run into a directory.
type Writer struct {
	dir string
	log zerolog.Logger
}

func NewWriter(dir string, logger zerolog.Logger) *Writer {
	return &Writer{dir: dir, log: logger}
}

// Path returns the file a table is exported to.
func (w *Writer) Path(name domain.TableName) string {
	return filepath.Join(w.dir, string(name)+".csv")
}

// WriteAll writes one CSV per table and returns the written paths in table order.
func (w *Writer) WriteAll(tables *domain.Tables) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", w.dir, err)
	}

	paths := make([]string, 0, len(domain.AllTables))
	for _, name := range domain.AllTables {
		path := w.Path(name)
		if err := w.writeFile(path, name, tables.Rows(name)); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	w.log.Info().Str("dir", w.dir).Int("tables", len(paths)).Msg("Signal tables exported")
	return paths, nil
}

func (w *Writer) writeFile(path string, name domain.TableName, rows []domain.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteTable(f, name, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	w.log.Debug().Str("table", string(name)).Int("rows", len(rows)).Msg("Table written")
	return nil
}
