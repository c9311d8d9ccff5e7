package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tzlun5274/mes-system/internal/catalog/model"
	"github.com/tzlun5274/mes-system/internal/catalog/service"
	"github.com/tzlun5274/mes-system/utils"
)

// CatalogRouter serves the catalog endpoints consumed by fill-work forms.
type CatalogRouter struct {
	cs     *service.CatalogService
	logger *zap.Logger
}

// NewCatalogRouter creates a new CatalogRouter.
func NewCatalogRouter(cs *service.CatalogService, logger *zap.Logger) *CatalogRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRouter{
		cs:     cs,
		logger: logger,
	}
}

// Register mounts the catalog endpoints on group.
func (r *CatalogRouter) Register(group gin.IRoutes) {
	group.GET("/workorder-list", r.HandleListWorkOrders)
	group.GET("/workorder-by-product", r.HandleWorkOrdersByProduct)
	group.GET("/product-list", r.HandleListProducts)
	group.GET("/products-by-company", r.HandleProductsByCompany)
	group.GET("/operator-list", r.HandleListOperators)
	group.GET("/process-list", r.HandleListProcesses)
	group.GET("/equipment-list", r.HandleListEquipment)
}

// HandleListWorkOrders handles GET /workorder-list
// Query params: company_name, offset, limit (all optional)
func (r *CatalogRouter) HandleListWorkOrders(c *gin.Context) {
	offset, limit, err := utils.ParsePaginationQuery(c.Query("offset"), c.Query("limit"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	filter := model.WorkOrderFilter{Offset: offset, Limit: limit}
	if company := c.Query("company_name"); company != "" {
		filter.CompanyName = &company
	}

	result, err := r.cs.ListWorkOrders(c.Request.Context(), filter)
	if err != nil {
		r.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.WorkOrderListResponse{
		Success:    true,
		WorkOrders: records(result.WorkOrders),
		TotalCount: result.TotalCount,
	})
}

// HandleWorkOrdersByProduct handles GET /workorder-by-product?product_id={id}
func (r *CatalogRouter) HandleWorkOrdersByProduct(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		writeError(c, http.StatusBadRequest, "product_id query parameter is required")
		return
	}

	workOrders, err := r.cs.ListWorkOrdersByProduct(c.Request.Context(), productID)
	if err != nil {
		r.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.WorkOrderListResponse{
		Success:    true,
		WorkOrders: records(workOrders),
		TotalCount: int64(len(workOrders)),
	})
}

// HandleListProducts handles GET /product-list
func (r *CatalogRouter) HandleListProducts(c *gin.Context) {
	r.writeProducts(c, "")
}

// HandleProductsByCompany handles GET /products-by-company?company_name={name}
func (r *CatalogRouter) HandleProductsByCompany(c *gin.Context) {
	company := c.Query("company_name")
	if company == "" {
		writeError(c, http.StatusBadRequest, "company_name query parameter is required")
		return
	}
	r.writeProducts(c, company)
}

func (r *CatalogRouter) writeProducts(c *gin.Context, company string) {
	products, err := r.cs.ListProducts(c.Request.Context(), company)
	if err != nil {
		r.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProductListResponse{Success: true, Products: products})
}

// HandleListOperators handles GET /operator-list?form_type={operator|smt}
func (r *CatalogRouter) HandleListOperators(c *gin.Context) {
	formType, ok := parseFormType(c)
	if !ok {
		return
	}

	operators, err := r.cs.ListOperators(c.Request.Context(), formType)
	if err != nil {
		r.internalError(c, err)
		return
	}

	entries := make([]model.NamedEntryDTO, 0, len(operators))
	for _, o := range operators {
		entries = append(entries, model.NamedEntryDTO{Name: o.Name})
	}
	c.JSON(http.StatusOK, model.OperatorListResponse{Success: true, Operators: entries})
}

// HandleListProcesses handles GET /process-list?form_type={operator|smt}
func (r *CatalogRouter) HandleListProcesses(c *gin.Context) {
	formType, ok := parseFormType(c)
	if !ok {
		return
	}

	processes, err := r.cs.ListProcesses(c.Request.Context(), formType)
	if err != nil {
		r.internalError(c, err)
		return
	}

	entries := make([]model.NamedEntryDTO, 0, len(processes))
	for _, p := range processes {
		entries = append(entries, model.NamedEntryDTO{Name: p.Name})
	}
	c.JSON(http.StatusOK, model.ProcessListResponse{Success: true, Processes: entries})
}

// HandleListEquipment handles GET /equipment-list?form_type={operator|smt}
func (r *CatalogRouter) HandleListEquipment(c *gin.Context) {
	formType, ok := parseFormType(c)
	if !ok {
		return
	}

	equipment, err := r.cs.ListEquipment(c.Request.Context(), formType)
	if err != nil {
		r.internalError(c, err)
		return
	}

	entries := make([]model.NamedEntryDTO, 0, len(equipment))
	for _, e := range equipment {
		entries = append(entries, model.NamedEntryDTO{Name: e.Name})
	}
	c.JSON(http.StatusOK, model.EquipmentListResponse{Success: true, Equipments: entries})
}

func (r *CatalogRouter) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	r.logger.Error("catalog request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	writeError(c, http.StatusInternalServerError, err.Error())
}

func parseFormType(c *gin.Context) (model.FormType, bool) {
	formType, err := model.ParseFormType(c.Query("form_type"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return formType, true
}

func records(workOrders []model.WorkOrder) []model.WorkOrderRecordDTO {
	out := make([]model.WorkOrderRecordDTO, 0, len(workOrders))
	for i := range workOrders {
		out = append(out, workOrders[i].Record())
	}
	return out
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Success: false, Message: message})
}
