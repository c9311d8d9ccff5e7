package imports

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPHandler exposes the import service over HTTP.
type HTTPHandler struct {
	Service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{Service: service}
}

// Register mounts the import endpoints on group. Callers protect the group
// with the CSRF middleware.
func (h *HTTPHandler) Register(group gin.IRoutes) {
	group.POST("/workorder-imports", h.HandleImport)
	group.GET("/workorder-imports/:key", h.HandleDownload)
	group.GET("/workorder-import-template", h.HandleTemplate)
}

// HandleImport handles POST /workorder-imports (multipart field "file")
func (h *HTTPHandler) HandleImport(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "failed to read uploaded file"})
		return
	}
	defer file.Close()

	result, err := h.Service.Import(c.Request.Context(), header.Filename, file, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrInvalidSheet):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		case errors.Is(err, ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": err.Error()})
		default:
			h.Service.logger.Error("import failed", zap.String("file", header.Filename), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "import failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"file":       result.File,
		"total_rows": result.TotalRows,
		"imported":   result.Imported,
		"errors":     result.Errors,
	})
}

// HandleDownload handles GET /workorder-imports/{key}
func (h *HTTPHandler) HandleDownload(c *gin.Context) {
	reader, contentType, err := h.Service.Open(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "file not found"})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.Service.logger.Warn("failed to stream import file", zap.String("key", c.Param("key")), zap.Error(err))
	}
}

// HandleTemplate handles GET /workorder-import-template
func (h *HTTPHandler) HandleTemplate(c *gin.Context) {
	f, err := Template()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to build template"})
		return
	}
	defer f.Close()

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="workorder_import_template.xlsx"`)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.Service.logger.Warn("failed to write import template", zap.Error(err))
	}
}
