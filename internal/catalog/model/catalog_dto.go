package model

// WorkOrderRecordDTO is the work-order shape sent to fill-work forms.
type WorkOrderRecordDTO struct {
	WorkOrderID     string `json:"workorder_id"`
	CompanyName     string `json:"company_name"`
	ProductID       string `json:"product_id"`
	PlannedQuantity int    `json:"planned_quantity"`
}

// NamedEntryDTO is an operator, process or equipment option.
type NamedEntryDTO struct {
	Name string `json:"name"`
}

// WorkOrderListResponse answers workorder-list and workorder-by-product.
type WorkOrderListResponse struct {
	Success    bool                 `json:"success"`
	WorkOrders []WorkOrderRecordDTO `json:"workorders"`
	TotalCount int64                `json:"total_count"`
}

// ProductListResponse answers product-list and products-by-company.
type ProductListResponse struct {
	Success  bool     `json:"success"`
	Products []string `json:"products"`
}

// OperatorListResponse answers operator-list.
type OperatorListResponse struct {
	Success   bool            `json:"success"`
	Operators []NamedEntryDTO `json:"operators"`
}

// ProcessListResponse answers process-list.
type ProcessListResponse struct {
	Success   bool            `json:"success"`
	Processes []NamedEntryDTO `json:"processes"`
}

// EquipmentListResponse answers equipment-list.
type EquipmentListResponse struct {
	Success    bool            `json:"success"`
	Equipments []NamedEntryDTO `json:"equipments"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SeedCatalog is the YAML document loaded by the seed command.
type SeedCatalog struct {
	WorkOrders []SeedWorkOrder `yaml:"workorders"`
	Operators  []string        `yaml:"operators"`
	Processes  []string        `yaml:"processes"`
	Equipment  []string        `yaml:"equipment"`
}

// SeedWorkOrder is one work order in a seed file.
type SeedWorkOrder struct {
	WorkOrderID      string `yaml:"workorder_id"`
	CompanyName      string `yaml:"company_name"`
	ProductID        string `yaml:"product_id"`
	PlannedQuantity  int    `yaml:"planned_quantity"`
	Status           string `yaml:"status"`
	PlannedStartDate string `yaml:"planned_start_date"`
}
