package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"churnlab/domain/customer"
)

// ReadFile loads raw customer rows from a CSV or Excel file, dispatching on
// the extension. The sheet argument only applies to Excel files.
func ReadFile(path, sheet string) ([]customer.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path)
	case ".xlsx", ".xlsm":
		return ReadExcel(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

// ReadCSVFile reads a header-rowed CSV file into raw records.
func ReadCSVFile(path string) ([]customer.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads header-rowed CSV data into raw records.
func ReadCSV(r io.Reader) ([]customer.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are handled below

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	var rows []customer.RawRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, rowFromFields(header, fields))
	}
	return rows, nil
}

// ReadExcel reads one sheet of an Excel workbook into raw records. The first
// row is the header.
func ReadExcel(path, sheet string) ([]customer.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	header := cells[0]
	rows := make([]customer.RawRecord, 0, len(cells)-1)
	for _, fields := range cells[1:] {
		rows = append(rows, rowFromFields(header, fields))
	}
	return rows, nil
}

// rowFromFields zips header names with cell values. Short rows leave the
// trailing fields absent rather than empty, so the cleaner reports them as
// missing.
func rowFromFields(header, fields []string) customer.RawRecord {
	row := make(customer.RawRecord, len(header))
	for i, name := range header {
		if i < len(fields) {
			row[name] = fields[i]
		}
	}
	return row
}
