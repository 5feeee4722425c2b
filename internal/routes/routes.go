package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"door-catalog/internal/handlers"
	"door-catalog/internal/metrics"
)

// Handlers agrupa los handlers que se publican en el router
type Handlers struct {
	Products *handlers.ProductHandler
	Settings *handlers.SettingsHandler
	Imports  *handlers.ImportHandler
	// UploadsDir se sirve en /uploads
	UploadsDir string
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if h.UploadsDir != "" {
		router.Static("/uploads", h.UploadsDir)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/products", h.Products.ListProducts)
		v1.GET("/products/:slug", h.Products.GetProductBySlug)
		v1.GET("/categories", h.Products.ListCategories)
	}

	admin := v1.Group("/admin")
	{
		admin.GET("/products", h.Products.AdminListProducts)
		admin.POST("/products", h.Products.CreateProduct)
		admin.GET("/products/:id", h.Products.GetProduct)
		admin.PATCH("/products/:id", h.Products.UpdateProduct)
		admin.DELETE("/products/:id", h.Products.DeleteProduct)

		admin.GET("/settings", h.Settings.GetSettings)
		admin.PATCH("/settings", h.Settings.UpdateSettings)
		admin.POST("/settings/:list", h.Settings.AddItem)
		admin.DELETE("/settings/:list/:value", h.Settings.RemoveItem)

		admin.GET("/imports/template", h.Imports.DownloadTemplate)
		admin.POST("/imports/preview", h.Imports.PreviewImport)
		admin.POST("/imports", h.Imports.StartImport)
		admin.GET("/imports/:id", h.Imports.GetImport)
	}
}
