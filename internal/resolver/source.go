package resolver

import "context"

// WorkOrder is a work-order record as offered by the catalog.
type WorkOrder struct {
	ID              string `json:"workorder_id" yaml:"workorder_id"`
	Company         string `json:"company_name" yaml:"company_name"`
	Product         string `json:"product_id" yaml:"product_id"`
	PlannedQuantity int    `json:"planned_quantity" yaml:"planned_quantity"`
}

// Source fetches catalog lists. Implementations return *NetworkError or
// *DataShapeError on failure.
type Source interface {
	// WorkOrders returns the whole work-order catalog.
	WorkOrders(ctx context.Context) ([]WorkOrder, error)
	// Products returns the products of company, or every product when company is empty.
	Products(ctx context.Context, company string) ([]string, error)
	// WorkOrdersByProduct returns the work orders producing product.
	WorkOrdersByProduct(ctx context.Context, product string) ([]WorkOrder, error)
	// Operators, Processes and Equipment return the names offered to formType.
	Operators(ctx context.Context, formType string) ([]string, error)
	Processes(ctx context.Context, formType string) ([]string, error)
	Equipment(ctx context.Context, formType string) ([]string, error)
}
