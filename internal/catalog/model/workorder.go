package model

// WorkOrderStatus is the production status of a work order.
type WorkOrderStatus string

const (
	WorkOrderStatusPending    WorkOrderStatus = "pending"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
)

// Valid reports whether s is a known status.
func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WorkOrderStatusPending, WorkOrderStatusInProgress, WorkOrderStatusCompleted:
		return true
	}
	return false
}

// WorkOrder is a manufacturing work order. Each work order belongs to exactly
// one company and produces exactly one product.
type WorkOrder struct {
	BaseModel
	WorkOrderID      string          `gorm:"type:varchar(50);column:workorder_id;not null;uniqueIndex" json:"workorder_id"`
	CompanyName      string          `gorm:"type:varchar(100);column:company_name;not null;index" json:"company_name"`
	ProductID        string          `gorm:"type:varchar(100);column:product_id;not null;index" json:"product_id"`
	PlannedQuantity  int             `gorm:"column:planned_quantity;not null;default:0" json:"planned_quantity"`
	Status           WorkOrderStatus `gorm:"type:varchar(20);column:status;not null;default:'pending'" json:"status"`
	PlannedStartDate string          `gorm:"type:varchar(10);column:planned_start_date" json:"planned_start_date,omitempty"` // YYYY-MM-DD
}

func (w *WorkOrder) TableName() string {
	return "work_orders"
}

// Record returns the wire view of the work order consumed by form resolvers.
func (w *WorkOrder) Record() WorkOrderRecordDTO {
	return WorkOrderRecordDTO{
		WorkOrderID:     w.WorkOrderID,
		CompanyName:     w.CompanyName,
		ProductID:       w.ProductID,
		PlannedQuantity: w.PlannedQuantity,
	}
}

// WorkOrderFilter is used when listing work orders in batches
type WorkOrderFilter struct {
	CompanyName     *string `json:"companyName,omitempty"`
	ProductID       *string `json:"productId,omitempty"`
	IncludeComplete bool    `json:"includeComplete,omitempty"`
	Offset          *int    `json:"offset,omitempty"`
	Limit           *int    `json:"limit,omitempty"`
}

// WorkOrderListResult represents the result of listing work orders with pagination
type WorkOrderListResult struct {
	TotalCount int64       `json:"totalCount"`
	WorkOrders []WorkOrder `json:"workOrders"`
	Offset     int         `json:"offset"`
	Limit      int         `json:"limit"`
}
