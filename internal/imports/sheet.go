package imports

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
	ErrUnsupportedFormat = errors.New("unsupported import format, expected .xlsx or .csv")

	// ErrInvalidSheet is returned when a sheet cannot be read or lacks required columns.
	ErrInvalidSheet = errors.New("invalid import sheet")
)

const (
	colWorkOrder = "workorder_id"
	colCompany   = "company_name"
	colProduct   = "product_id"
	colQuantity  = "planned_quantity"
	colStartDate = "planned_start_date"
	colStatus    = "status"
)

// headerAliases maps accepted header texts, lower-cased, to columns.
var headerAliases = map[string]string{
	"workorder":          colWorkOrder,
	"workorder_id":       colWorkOrder,
	"工單號":                colWorkOrder,
	"company_name":       colCompany,
	"公司名稱":               colCompany,
	"公司代號":               colCompany,
	"product_id":         colProduct,
	"產品編號":               colProduct,
	"planned_quantity":   colQuantity,
	"數量":                 colQuantity,
	"生產數量":               colQuantity,
	"planned_start_date": colStartDate,
	"預定開工日":              colStartDate,
	"status":             colStatus,
}

var requiredColumns = []string{colWorkOrder, colCompany, colProduct, colQuantity}

// templateHeaders are written by Template, in column order.
var templateHeaders = []string{"工單號", "公司代號", "產品編號", "生產數量", "預定開工日", "status"}

func isSpreadsheet(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xlsx")
}

func isCSV(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

// readRows returns every row of the first sheet of an .xlsx file, or every
// record of a .csv file, header included.
func readRows(filename string, data []byte) ([][]string, error) {
	switch {
	case isSpreadsheet(filename):
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
		}
		defer f.Close()

		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
		}
		return rows, nil
	case isCSV(filename):
		r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true

		var rows [][]string
		for {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
			}
			rows = append(rows, record)
		}
		return rows, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// columnIndex maps each recognised column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, text := range header {
		col, ok := headerAliases[strings.ToLower(strings.TrimSpace(text))]
		if !ok {
			continue
		}
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrInvalidSheet, strings.Join(missing, ", "))
	}
	return index, nil
}

// Template returns an empty import workbook with the header row and one
// example row.
func Template() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "WorkOrders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return nil, err
	}

	example := []any{"WO-2024-0001", "01", "PCB-100", 500, "2024-01-15", "pending"}
	for i, h := range templateHeaders {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, col+"1", h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, col+"1", col+"1", headerStyle); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, col+"2", example[i]); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, 18); err != nil {
			return nil, err
		}
	}
	return f, nil
}
