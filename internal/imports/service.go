// Package imports loads work orders into the catalog from uploaded .xlsx and
// .csv sheets.
package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tzlun5274/mes-system/internal/catalog/model"
	"github.com/tzlun5274/mes-system/internal/imports/storage"
	"github.com/tzlun5274/mes-system/internal/metrics"
	"github.com/tzlun5274/mes-system/internal/workdate"
)

// DefaultMaxSize is the largest sheet accepted by Import.
const DefaultMaxSize = 32 << 20

// ErrTooLarge is returned for sheets above the configured size limit.
var ErrTooLarge = errors.New("import file too large")

// WorkOrderWriter stores imported work orders.
type WorkOrderWriter interface {
	UpsertWorkOrders(ctx context.Context, workOrders []model.WorkOrder) (int, error)
}

// FileMetadata describes a stored import sheet.
type FileMetadata struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Key      string    `json:"key" yaml:"key"`
	URL      string    `json:"url" yaml:"url"`
	Size     int64     `json:"size" yaml:"size"`
	MimeType string    `json:"mime_type" yaml:"mime_type"`
}

// RowError reports why a data row was skipped. Row 1 is the first row after
// the header.
type RowError struct {
	Row     int    `json:"row" yaml:"row"`
	Message string `json:"message" yaml:"message"`
}

// Result summarises one import.
type Result struct {
	File      FileMetadata `json:"file" yaml:"file"`
	TotalRows int          `json:"total_rows" yaml:"total_rows"`
	Imported  int          `json:"imported" yaml:"imported"`
	Errors    []RowError   `json:"errors" yaml:"errors"`
}

// Service stores uploaded sheets and upserts their valid rows.
type Service struct {
	driver  storage.Driver
	catalog WorkOrderWriter
	logger  *zap.Logger
	maxSize int64
}

func NewService(driver storage.Driver, catalog WorkOrderWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		driver:  driver,
		catalog: catalog,
		logger:  logger,
		maxSize: DefaultMaxSize,
	}
}

// Import stores the sheet, parses it and upserts every valid row. Rows that
// fail validation are reported in the result and skipped. When a work order
// appears on several rows the last one wins.
func (s *Service) Import(ctx context.Context, filename string, body io.Reader, contentType string) (*Result, error) {
	if !isSpreadsheet(filename) && !isCSV(filename) {
		return nil, ErrUnsupportedFormat
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	file, err := s.store(ctx, filename, data, contentType)
	if err != nil {
		return nil, err
	}

	rows, err := readRows(filename, data)
	if err != nil {
		s.discard(ctx, file.Key)
		return nil, err
	}
	if len(rows) == 0 {
		s.discard(ctx, file.Key)
		return nil, fmt.Errorf("%w: sheet is empty", ErrInvalidSheet)
	}
	index, err := columnIndex(rows[0])
	if err != nil {
		s.discard(ctx, file.Key)
		return nil, err
	}

	result := &Result{File: *file, Errors: []RowError{}}
	var workOrders []model.WorkOrder
	position := make(map[string]int)

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		result.TotalRows++

		wo, err := parseRow(row, index)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		if at, seen := position[wo.WorkOrderID]; seen {
			workOrders[at] = wo
			continue
		}
		position[wo.WorkOrderID] = len(workOrders)
		workOrders = append(workOrders, wo)
	}

	if len(workOrders) > 0 {
		n, err := s.catalog.UpsertWorkOrders(ctx, workOrders)
		if err != nil {
			s.discard(ctx, file.Key)
			return nil, fmt.Errorf("failed to store imported work orders: %w", err)
		}
		result.Imported = n
	}

	metrics.RecordImportRows(result.Imported, len(result.Errors))
	s.logger.Info("work orders imported",
		zap.String("file", filename),
		zap.String("key", file.Key),
		zap.Int("rows", result.TotalRows),
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Errors)),
	)
	return result, nil
}

// Open streams a stored sheet back.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.driver.Get(ctx, key)
}

func (s *Service) store(ctx context.Context, filename string, data []byte, contentType string) (*FileMetadata, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	id := uuid.New()
	key := id.String() + strings.ToLower(filepath.Ext(filename))

	if err := s.driver.Save(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	url, err := s.driver.URL(ctx, key, 0)
	if err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	return &FileMetadata{
		ID:       id,
		Name:     filename,
		Key:      key,
		URL:      url,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.driver.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to clean up import file", zap.String("key", key), zap.Error(err))
	}
}

func parseRow(row []string, index map[string]int) (model.WorkOrder, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	wo := model.WorkOrder{
		WorkOrderID: cell(colWorkOrder),
		CompanyName: companyCode(cell(colCompany)),
		ProductID:   cell(colProduct),
	}
	if wo.WorkOrderID == "" {
		return wo, errors.New("work order is empty")
	}
	if wo.CompanyName == "" {
		return wo, fmt.Errorf("company is empty for %s", wo.WorkOrderID)
	}
	if wo.ProductID == "" {
		return wo, fmt.Errorf("product is empty for %s", wo.WorkOrderID)
	}

	qty, err := quantity(cell(colQuantity))
	if err != nil {
		return wo, err
	}
	wo.PlannedQuantity = qty

	if raw := cell(colStartDate); raw != "" {
		date, err := workdate.Parse(raw)
		if err != nil {
			return wo, fmt.Errorf("planned start date: %v", err)
		}
		wo.PlannedStartDate = date
	}

	if raw := cell(colStatus); raw != "" {
		wo.Status = model.WorkOrderStatus(strings.ToLower(raw))
		if !wo.Status.Valid() {
			return wo, fmt.Errorf("unknown status %q", raw)
		}
	}
	return wo, nil
}

// companyCode pads single-digit numeric company codes to two digits.
func companyCode(s string) string {
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return "0" + s
	}
	return s
}

// quantity parses a non-negative integer quantity. Spreadsheet cells may carry
// thousands separators or an integral ".0" suffix; an empty cell means 0.
func quantity(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	clean := strings.ReplaceAll(s, ",", "")
	n, err := strconv.Atoi(clean)
	if err != nil {
		f, ferr := strconv.ParseFloat(clean, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("invalid planned quantity %q", s)
		}
		n = int(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("planned quantity cannot be negative: %d", n)
	}
	return n, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
