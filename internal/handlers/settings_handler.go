package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"door-catalog/internal/models"
	"door-catalog/internal/settings"
)

type SettingsHandler struct {
	registry *settings.Registry
	products *ProductHandler
}

func NewSettingsHandler(registry *settings.Registry, products *ProductHandler) *SettingsHandler {
	return &SettingsHandler{registry: registry, products: products}
}

type listItemRequest struct {
	Value string `json:"value" binding:"required"`
}

// GET /v1/admin/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s, err := h.registry.Load(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings reemplaza las listas o plantillas enviadas
// PATCH /v1/admin/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var update models.SettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	for t := range update.SpecTemplates {
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown product type " + string(t)})
			return
		}
	}

	s, err := h.registry.Save(c.Request.Context(), update)
	if err != nil {
		respondError(c, err, "failed to save settings")
		return
	}

	h.products.InvalidateListings()
	c.JSON(http.StatusOK, s)
}

// POST /v1/admin/settings/:list
func (h *SettingsHandler) AddItem(c *gin.Context) {
	list, err := settings.ParseList(c.Param("list"))
	if err != nil {
		respondError(c, err, "invalid list")
		return
	}

	var req listItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	s, err := h.registry.AddItem(c.Request.Context(), list, req.Value)
	if err != nil {
		respondError(c, err, "failed to save settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

// DELETE /v1/admin/settings/:list/:value
func (h *SettingsHandler) RemoveItem(c *gin.Context) {
	list, err := settings.ParseList(c.Param("list"))
	if err != nil {
		respondError(c, err, "invalid list")
		return
	}

	s, err := h.registry.RemoveItem(c.Request.Context(), list, c.Param("value"))
	if err != nil {
		respondError(c, err, "failed to save settings")
		return
	}
	c.JSON(http.StatusOK, s)
}
