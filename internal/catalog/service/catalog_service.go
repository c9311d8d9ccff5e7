package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tzlun5274/mes-system/internal/catalog/model"
	"github.com/tzlun5274/mes-system/utils"
)

const smtPattern = "%SMT%"

// ErrInvalidWorkOrder is returned when a work order fails validation before being stored.
var ErrInvalidWorkOrder = errors.New("invalid work order")

// CatalogService reads and maintains the work-order catalog and the shop-floor
// resource lists offered by fill-work forms.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListWorkOrders returns work orders matching the filter ordered by work-order id.
// Completed work orders are excluded unless requested. Pagination is applied only
// when the filter carries an offset or a limit.
func (s *CatalogService) ListWorkOrders(ctx context.Context, filter model.WorkOrderFilter) (*model.WorkOrderListResult, error) {
	query := s.db.WithContext(ctx).Model(&model.WorkOrder{})

	if !filter.IncludeComplete {
		query = query.Where("status <> ?", model.WorkOrderStatusCompleted)
	}
	if filter.CompanyName != nil {
		query = query.Where("company_name = ?", *filter.CompanyName)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	// Count and Find each start from a copy of the filtered statement
	query = query.Session(&gorm.Session{})

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count work orders: %w", err)
	}

	paginated := filter.Offset != nil || filter.Limit != nil
	offset, limit := 0, int(totalCount)
	if paginated {
		offset, limit = utils.GetPaginationParams(filter.Offset, filter.Limit)
		query = query.Offset(offset).Limit(limit)
	}

	var workOrders []model.WorkOrder
	if err := query.Order("workorder_id ASC").Find(&workOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve work orders: %w", err)
	}
	if workOrders == nil {
		workOrders = []model.WorkOrder{}
	}

	return &model.WorkOrderListResult{
		TotalCount: totalCount,
		WorkOrders: workOrders,
		Offset:     offset,
		Limit:      limit,
	}, nil
}

// ListWorkOrdersByProduct returns the open work orders producing productID.
func (s *CatalogService) ListWorkOrdersByProduct(ctx context.Context, productID string) ([]model.WorkOrder, error) {
	if productID == "" {
		return nil, fmt.Errorf("product ID cannot be empty")
	}
	result, err := s.ListWorkOrders(ctx, model.WorkOrderFilter{ProductID: &productID})
	if err != nil {
		return nil, err
	}
	return result.WorkOrders, nil
}

// ListProducts returns the distinct product ids of open work orders, sorted.
// A non-empty companyName restricts the list to that company's work orders.
func (s *CatalogService) ListProducts(ctx context.Context, companyName string) ([]string, error) {
	query := s.db.WithContext(ctx).Model(&model.WorkOrder{}).
		Where("status <> ?", model.WorkOrderStatusCompleted)
	if companyName != "" {
		query = query.Where("company_name = ?", companyName)
	}

	products := []string{}
	if err := query.Distinct("product_id").Order("product_id ASC").Pluck("product_id", &products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// ListOperators returns operators offered by a form. SMT forms list every
// operator because the operator is derived from the SMT equipment; operator
// forms exclude SMT pseudo-operators.
func (s *CatalogService) ListOperators(ctx context.Context, formType model.FormType) ([]model.Operator, error) {
	query := s.db.WithContext(ctx).Model(&model.Operator{})
	if formType != model.FormTypeSMT {
		query = query.Where("UPPER(name) NOT LIKE ?", smtPattern)
	}

	operators := []model.Operator{}
	if err := query.Order("name ASC").Find(&operators).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve operators: %w", err)
	}
	return operators, nil
}

// ListProcesses returns the processes offered by a form: only SMT processes for
// SMT forms, everything else for operator forms.
func (s *CatalogService) ListProcesses(ctx context.Context, formType model.FormType) ([]model.ProcessName, error) {
	processes := []model.ProcessName{}
	if err := s.smtScoped(ctx, &model.ProcessName{}, formType).Order("name ASC").Find(&processes).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve processes: %w", err)
	}
	return processes, nil
}

// ListEquipment returns the equipment offered by a form, filtered like ListProcesses.
func (s *CatalogService) ListEquipment(ctx context.Context, formType model.FormType) ([]model.Equipment, error) {
	equipment := []model.Equipment{}
	if err := s.smtScoped(ctx, &model.Equipment{}, formType).Order("name ASC").Find(&equipment).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve equipment: %w", err)
	}
	return equipment, nil
}

func (s *CatalogService) smtScoped(ctx context.Context, m any, formType model.FormType) *gorm.DB {
	query := s.db.WithContext(ctx).Model(m)
	if formType == model.FormTypeSMT {
		return query.Where("UPPER(name) LIKE ?", smtPattern)
	}
	return query.Where("UPPER(name) NOT LIKE ?", smtPattern)
}

// UpsertWorkOrders inserts work orders or updates the existing row with the same
// work-order id. It returns the number of rows written.
func (s *CatalogService) UpsertWorkOrders(ctx context.Context, workOrders []model.WorkOrder) (int, error) {
	if len(workOrders) == 0 {
		return 0, nil
	}

	for i := range workOrders {
		if err := validateWorkOrder(&workOrders[i]); err != nil {
			return 0, err
		}
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workorder_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name", "product_id", "planned_quantity", "status", "planned_start_date", "updated_at",
		}),
	}).Create(&workOrders)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert work orders: %w", result.Error)
	}
	return len(workOrders), nil
}

func validateWorkOrder(wo *model.WorkOrder) error {
	wo.WorkOrderID = strings.TrimSpace(wo.WorkOrderID)
	wo.CompanyName = strings.TrimSpace(wo.CompanyName)
	wo.ProductID = strings.TrimSpace(wo.ProductID)

	switch {
	case wo.WorkOrderID == "":
		return fmt.Errorf("%w: work order id is empty", ErrInvalidWorkOrder)
	case wo.CompanyName == "":
		return fmt.Errorf("%w: %s has no company", ErrInvalidWorkOrder, wo.WorkOrderID)
	case wo.ProductID == "":
		return fmt.Errorf("%w: %s has no product", ErrInvalidWorkOrder, wo.WorkOrderID)
	case wo.PlannedQuantity < 0:
		return fmt.Errorf("%w: %s has negative planned quantity", ErrInvalidWorkOrder, wo.WorkOrderID)
	}

	if wo.Status == "" {
		wo.Status = model.WorkOrderStatusPending
	}
	if !wo.Status.Valid() {
		return fmt.Errorf("%w: %s has unknown status %q", ErrInvalidWorkOrder, wo.WorkOrderID, wo.Status)
	}
	return nil
}

// UpsertOperators stores operator names, ignoring ones that already exist.
func (s *CatalogService) UpsertOperators(ctx context.Context, names []string) error {
	rows := make([]model.Operator, 0, len(names))
	for _, name := range uniqueNames(names) {
		rows = append(rows, model.Operator{Name: name})
	}
	return s.insertNames(ctx, &rows, len(rows), "operators")
}

// UpsertProcesses stores process names, ignoring ones that already exist.
func (s *CatalogService) UpsertProcesses(ctx context.Context, names []string) error {
	rows := make([]model.ProcessName, 0, len(names))
	for _, name := range uniqueNames(names) {
		rows = append(rows, model.ProcessName{Name: name})
	}
	return s.insertNames(ctx, &rows, len(rows), "processes")
}

// UpsertEquipment stores equipment names, ignoring ones that already exist.
func (s *CatalogService) UpsertEquipment(ctx context.Context, names []string) error {
	rows := make([]model.Equipment, 0, len(names))
	for _, name := range uniqueNames(names) {
		rows = append(rows, model.Equipment{Name: name})
	}
	return s.insertNames(ctx, &rows, len(rows), "equipment")
}

func (s *CatalogService) insertNames(ctx context.Context, rows any, n int, kind string) error {
	if n == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", kind, err)
	}
	return nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
