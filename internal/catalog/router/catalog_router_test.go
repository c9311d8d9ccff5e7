package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tzlun5274/mes-system/internal/catalog/model"
	"github.com/tzlun5274/mes-system/internal/catalog/service"
	"github.com/tzlun5274/mes-system/internal/config"
	"github.com/tzlun5274/mes-system/internal/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, model.All()...))

	cs := service.NewCatalogService(db)
	ctx := context.Background()
	_, err = cs.UpsertWorkOrders(ctx, []model.WorkOrder{
		{WorkOrderID: "W1", CompanyName: "Acme", ProductID: "P1", PlannedQuantity: 100},
		{WorkOrderID: "W2", CompanyName: "Acme", ProductID: "P2", PlannedQuantity: 50},
		{WorkOrderID: "W3", CompanyName: "Other", ProductID: "P1", PlannedQuantity: 30},
	})
	require.NoError(t, err)
	require.NoError(t, cs.UpsertOperators(ctx, []string{"Alice", "SMT-A"}))
	require.NoError(t, cs.UpsertProcesses(ctx, []string{"SMT Reflow", "Inspection"}))
	require.NoError(t, cs.UpsertEquipment(ctx, []string{"SMT-LINE-1", "Press 2"}))

	engine := gin.New()
	NewCatalogRouter(cs, nil).Register(engine.Group("/api/v1/fill-work"))
	return engine, db
}

func get(t *testing.T, engine *gin.Engine, path string, out any) int {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func TestCatalogRouter_WorkOrderList(t *testing.T) {
	engine, _ := setupRouter(t)

	var resp model.WorkOrderListResponse
	code := get(t, engine, "/api/v1/fill-work/workorder-list", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Equal(t, model.WorkOrderRecordDTO{WorkOrderID: "W1", CompanyName: "Acme", ProductID: "P1", PlannedQuantity: 100}, resp.WorkOrders[0])

	resp = model.WorkOrderListResponse{}
	code = get(t, engine, "/api/v1/fill-work/workorder-list?limit=1&offset=2", &resp)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, resp.WorkOrders, 1)
	assert.Equal(t, "W3", resp.WorkOrders[0].WorkOrderID)

	var errResp model.ErrorResponse
	code = get(t, engine, "/api/v1/fill-work/workorder-list?limit=abc", &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, errResp.Success)
}

func TestCatalogRouter_WorkOrderByProduct(t *testing.T) {
	engine, _ := setupRouter(t)

	var resp model.WorkOrderListResponse
	code := get(t, engine, "/api/v1/fill-work/workorder-by-product?product_id=P1", &resp)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, resp.WorkOrders, 2)
	assert.Equal(t, "Other", resp.WorkOrders[1].CompanyName)

	var errResp model.ErrorResponse
	code = get(t, engine, "/api/v1/fill-work/workorder-by-product", &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "product_id query parameter is required", errResp.Message)
}

func TestCatalogRouter_Products(t *testing.T) {
	engine, _ := setupRouter(t)

	var resp model.ProductListResponse
	assert.Equal(t, http.StatusOK, get(t, engine, "/api/v1/fill-work/product-list", &resp))
	assert.Equal(t, []string{"P1", "P2"}, resp.Products)

	resp = model.ProductListResponse{}
	assert.Equal(t, http.StatusOK, get(t, engine, "/api/v1/fill-work/products-by-company?company_name=Other", &resp))
	assert.Equal(t, []string{"P1"}, resp.Products)

	assert.Equal(t, http.StatusBadRequest, get(t, engine, "/api/v1/fill-work/products-by-company", nil))
}

func TestCatalogRouter_ResourceLists(t *testing.T) {
	engine, _ := setupRouter(t)

	var processes model.ProcessListResponse
	assert.Equal(t, http.StatusOK, get(t, engine, "/api/v1/fill-work/process-list?form_type=smt", &processes))
	assert.Equal(t, []model.NamedEntryDTO{{Name: "SMT Reflow"}}, processes.Processes)

	var equipment model.EquipmentListResponse
	assert.Equal(t, http.StatusOK, get(t, engine, "/api/v1/fill-work/equipment-list?form_type=operator", &equipment))
	assert.Equal(t, []model.NamedEntryDTO{{Name: "Press 2"}}, equipment.Equipments)

	var operators model.OperatorListResponse
	assert.Equal(t, http.StatusOK, get(t, engine, "/api/v1/fill-work/operator-list", &operators))
	assert.Equal(t, []model.NamedEntryDTO{{Name: "Alice"}}, operators.Operators)

	var errResp model.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, get(t, engine, "/api/v1/fill-work/process-list?form_type=welding", &errResp))
	assert.Equal(t, `unknown form type "welding"`, errResp.Message)
}

func TestCatalogRouter_StoreFailure(t *testing.T) {
	engine, db := setupRouter(t)
	require.NoError(t, database.Close(db))

	var errResp model.ErrorResponse
	code := get(t, engine, "/api/v1/fill-work/product-list", &errResp)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, errResp.Success)
	assert.Contains(t, errResp.Message, "failed to retrieve products")
}
