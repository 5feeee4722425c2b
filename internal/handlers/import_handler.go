package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"door-catalog/internal/importer"
	"door-catalog/internal/models"
)

type ImportHandler struct {
	pipeline *importer.Pipeline
	tracker  *importer.Tracker
	products *ProductHandler
	maxBytes int64
}

func NewImportHandler(pipeline *importer.Pipeline, tracker *importer.Tracker, products *ProductHandler, maxUploadMB int) *ImportHandler {
	tracker.OnFinish(func(job importer.Job) {
		products.InvalidateListings()
	})
	return &ImportHandler{
		pipeline: pipeline,
		tracker:  tracker,
		products: products,
		maxBytes: int64(maxUploadMB) << 20,
	}
}

type PreviewResponse struct {
	Count int                `json:"count"`
	Rows  []models.ImportRow `json:"rows"`
}

// PreviewImport lee la hoja y devuelve las filas sin guardar nada
// POST /v1/admin/imports/preview
func (h *ImportHandler) PreviewImport(c *gin.Context) {
	h.limitBody(c)

	rows, err := h.parseUpload(c)
	if err != nil {
		respondError(c, err, "failed to read import file")
		return
	}
	if rows == nil {
		rows = []models.ImportRow{}
	}
	c.JSON(http.StatusOK, PreviewResponse{Count: len(rows), Rows: rows})
}

// StartImport lanza la importación; con ?wait=true la ejecuta en la petición
// POST /v1/admin/imports
func (h *ImportHandler) StartImport(c *gin.Context) {
	h.limitBody(c)

	rows, err := h.parseUpload(c)
	if err != nil {
		respondError(c, err, "failed to read import file")
		return
	}
	if len(rows) == 0 {
		respondError(c, importer.ErrNoRows, "")
		return
	}

	images, err := readImages(c)
	if err != nil {
		respondError(c, err, "failed to read images")
		return
	}

	zap.L().Info("Import received", zap.Int("rows", len(rows)), zap.Int("images", len(images)))

	if c.Query("wait") == "true" {
		// un lote iniciado termina aunque el cliente se desconecte
		result, err := h.pipeline.Run(context.WithoutCancel(c.Request.Context()), rows, images, nil)
		if err != nil {
			respondError(c, err, "import failed")
			return
		}
		h.products.InvalidateListings()
		c.JSON(http.StatusOK, result)
		return
	}

	job, err := h.tracker.Start(c.Request.Context(), rows, images)
	if err != nil {
		respondError(c, err, "failed to start import")
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GET /v1/admin/imports/:id
func (h *ImportHandler) GetImport(c *gin.Context) {
	job, ok := h.tracker.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "import not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// GET /v1/admin/imports/template?format=csv|xlsx
func (h *ImportHandler) DownloadTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	var buf bytes.Buffer
	contentType, err := importer.WriteTemplate(&buf, format)
	if err != nil {
		respondError(c, err, "failed to build template")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=products_import_template.%s", format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ImportHandler) limitBody(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
}

func (h *ImportHandler) parseUpload(c *gin.Context) ([]models.ImportRow, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, &ValidationError{Field: "file", Message: "file is required"}
	}

	data, err := readFormFile(header)
	if err != nil {
		return nil, err
	}
	rows, err := importer.ParseFile(header.Filename, data)
	if err != nil && !errors.Is(err, importer.ErrUnsupportedFormat) {
		return nil, &ValidationError{Field: "file", Message: err.Error()}
	}
	return rows, err
}

// readImages acepta el campo "images" o "images[]"
func readImages(c *gin.Context) ([]importer.ImageFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	headers := append(form.File["images"], form.File["images[]"]...)
	images := make([]importer.ImageFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, importer.ImageFile{Name: fh.Filename, Data: data})
	}
	return images, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
