package imports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tzlun5274/mes-system/internal/catalog/model"
)

// MockDriver implements storage.Driver in memory
type MockDriver struct {
	SavedKey     string
	SavedBody    []byte
	URLErr       error
	DeleteCalled bool
	DeleteKey    string
}

func (m *MockDriver) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	m.SavedKey = key
	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.SavedBody = content
	return nil
}

func (m *MockDriver) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if key != m.SavedKey {
		return nil, "", errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(m.SavedBody)), "text/csv", nil
}

func (m *MockDriver) Delete(ctx context.Context, key string) error {
	m.DeleteCalled = true
	m.DeleteKey = key
	return nil
}

func (m *MockDriver) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if m.URLErr != nil {
		return "", m.URLErr
	}
	return "/imports/" + key, nil
}

// MockWriter
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) UpsertWorkOrders(ctx context.Context, workOrders []model.WorkOrder) (int, error) {
	args := m.Called(ctx, workOrders)
	return args.Int(0), args.Error(1)
}

const mixedCSV = "\ufeff工單號,公司代號,產品編號,生產數量,預定開工日\n" +
	"W1,1,P1,100,20240105\n" +
	"W2,Acme,P2,abc,\n" +
	",Acme,P3,5,\n" +
	"W3,Acme,P3,\"1,200\",2024/13/01\n" +
	",,,,\n" +
	"W1,1,P1,150,2024-2-1\n" +
	"W4,Acme,P4,,05/03/2024\n"

func TestService_ImportCSV(t *testing.T) {
	driver := &MockDriver{}
	writer := &MockWriter{}
	var stored []model.WorkOrder
	writer.On("UpsertWorkOrders", mock.Anything, mock.AnythingOfType("[]model.WorkOrder")).
		Run(func(args mock.Arguments) { stored = args.Get(1).([]model.WorkOrder) }).
		Return(2, nil).Once()

	s := NewService(driver, writer, nil)
	result, err := s.Import(context.Background(), "orders.CSV", strings.NewReader(mixedCSV), "text/csv")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(result.File.Key, ".csv"))
	assert.Equal(t, "/imports/"+driver.SavedKey, result.File.URL)
	assert.Equal(t, []byte(mixedCSV), driver.SavedBody)
	assert.Equal(t, 6, result.TotalRows)
	assert.Equal(t, 2, result.Imported)

	require.Len(t, result.Errors, 3)
	assert.Equal(t, RowError{Row: 2, Message: `invalid planned quantity "abc"`}, result.Errors[0])
	assert.Equal(t, RowError{Row: 3, Message: "work order is empty"}, result.Errors[1])
	assert.Equal(t, 4, result.Errors[2].Row)
	assert.Contains(t, result.Errors[2].Message, "planned start date")

	require.Len(t, stored, 2)
	assert.Equal(t, model.WorkOrder{WorkOrderID: "W1", CompanyName: "01", ProductID: "P1", PlannedQuantity: 150, PlannedStartDate: "2024-02-01"}, stored[0])
	assert.Equal(t, model.WorkOrder{WorkOrderID: "W4", CompanyName: "Acme", ProductID: "P4", PlannedQuantity: 0, PlannedStartDate: "2024-03-05"}, stored[1])
	writer.AssertExpectations(t)
}

func TestService_ImportXLSX(t *testing.T) {
	f, err := Template()
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("WorkOrders", "A3", &[]any{"WO-2", "Beta", "PCB-200", 20, "", "in_progress"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	writer := &MockWriter{}
	var stored []model.WorkOrder
	writer.On("UpsertWorkOrders", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).([]model.WorkOrder) }).
		Return(2, nil)

	result, err := NewService(&MockDriver{}, writer, nil).Import(context.Background(), "orders.xlsx", &buf, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "application/octet-stream", result.File.MimeType)

	require.Len(t, stored, 2)
	assert.Equal(t, "WO-2024-0001", stored[0].WorkOrderID)
	assert.Equal(t, "01", stored[0].CompanyName)
	assert.Equal(t, 500, stored[0].PlannedQuantity)
	assert.Equal(t, "2024-01-15", stored[0].PlannedStartDate)
	assert.Equal(t, model.WorkOrderStatusInProgress, stored[1].Status)
}

func TestService_ImportRejectsBadFiles(t *testing.T) {
	writer := &MockWriter{}
	ctx := context.Background()

	driver := &MockDriver{}
	_, err := NewService(driver, writer, nil).Import(ctx, "orders.pdf", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, driver.SavedKey, "unsupported files are never stored")

	driver = &MockDriver{}
	_, err = NewService(driver, writer, nil).Import(ctx, "orders.csv", strings.NewReader("workorder,company_name\nW1,Acme\n"), "")
	assert.ErrorIs(t, err, ErrInvalidSheet)
	assert.ErrorContains(t, err, "missing columns product_id, planned_quantity")
	assert.True(t, driver.DeleteCalled)
	assert.Equal(t, driver.SavedKey, driver.DeleteKey)

	s := NewService(&MockDriver{}, writer, nil)
	s.maxSize = 4
	_, err = s.Import(ctx, "orders.csv", strings.NewReader("workorder"), "")
	assert.ErrorIs(t, err, ErrTooLarge)

	writer.AssertNotCalled(t, "UpsertWorkOrders", mock.Anything, mock.Anything)
}

func TestService_URLFailureCleansUp(t *testing.T) {
	driver := &MockDriver{URLErr: io.ErrUnexpectedEOF}
	_, err := NewService(driver, &MockWriter{}, nil).Import(context.Background(), "orders.csv", strings.NewReader(mixedCSV), "text/csv")
	require.Error(t, err)
	assert.True(t, driver.DeleteCalled)
	assert.Equal(t, driver.SavedKey, driver.DeleteKey)
}

func TestService_StoreFailure(t *testing.T) {
	writer := &MockWriter{}
	writer.On("UpsertWorkOrders", mock.Anything, mock.Anything).Return(0, errors.New("db down"))

	driver := &MockDriver{}
	_, err := NewService(driver, writer, nil).Import(context.Background(), "orders.csv", strings.NewReader(mixedCSV), "")
	assert.ErrorContains(t, err, "failed to store imported work orders: db down")
	assert.True(t, driver.DeleteCalled)
	assert.Equal(t, driver.SavedKey, driver.DeleteKey)
}

func TestHTTPHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	driver := &MockDriver{}
	writer := &MockWriter{}
	writer.On("UpsertWorkOrders", mock.Anything, mock.Anything).Return(2, nil)

	engine := gin.New()
	NewHTTPHandler(NewService(driver, writer, nil)).Register(engine.Group("/api"))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "orders.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(mixedCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workorder-imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"imported":2`)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workorder-imports/"+driver.SavedKey, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, mixedCSV, w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workorder-imports/missing.csv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/workorder-imports", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/workorder-import-template", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}
