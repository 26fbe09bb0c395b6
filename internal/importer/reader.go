package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column headers of the personnel sheet.
const (
	ColLastName      = "Прізвище"
	ColFirstName     = "Ім'я"
	ColMiddleName    = "По батькові"
	ColDateOfBirth   = "Дата народження"
	ColPlaceOfBirth  = "Місце народження"
	ColTaxID         = "РНОКПП"
	ColPassport      = "Паспорт"
	ColRank          = "Звання"
	ColPositionIndex = "Індекс посади"
)

var requiredColumns = []string{ColLastName, ColFirstName, ColDateOfBirth, ColTaxID, ColRank}

// ErrEmptySheet is returned for input without a header row.
var ErrEmptySheet = errors.New("import file has no header row")

// Record is one data row keyed by the column headers. Line is the 1-based
// line of the row in the source, counting the header.
type Record struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of column.
func (r Record) Get(column string) string {
	return r.Fields[column]
}

// Name is "Last First" for log and error messages.
func (r Record) Name() string {
	return strings.TrimSpace(r.Get(ColLastName) + " " + r.Get(ColFirstName))
}

// normalizeHeader folds the apostrophe variants spreadsheets produce and drops a BOM.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer("’", "'", "ʼ", "'", "`", "'").Replace(h)
	return strings.TrimSpace(h)
}

// ParseRows turns a header row plus data rows into records. Blank rows are skipped.
func ParseRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	header := make([]string, len(rows[0]))
	present := make(map[string]bool, len(header))
	for i, h := range rows[0] {
		header[i] = normalizeHeader(h)
		present[header[i]] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := Record{Line: i + 2, Fields: make(map[string]string, len(header))}
		blank := true
		for j, col := range header {
			if j >= len(row) || col == "" {
				continue
			}
			v := strings.TrimSpace(row[j])
			if v != "" {
				blank = false
			}
			rec.Fields[col] = v
		}
		if !blank {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ReadCSV reads a UTF-8 comma separated sheet.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return ParseRows(rows)
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return ParseRows(rows)
}
