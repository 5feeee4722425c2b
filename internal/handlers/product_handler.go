package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"door-catalog/internal/cache"
	"door-catalog/internal/models"
	"door-catalog/internal/query"
	"door-catalog/internal/repository"
	"door-catalog/internal/settings"
	"door-catalog/internal/textutil"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
	listCacheTTL    = 2 * time.Minute
	listCachePrefix = "products:list:"
	uploadsPrefix   = "/uploads/"
)

type ProductHandler struct {
	repo     repository.ProductRepository
	settings *settings.Registry
	cache    *cache.Cache
}

func NewProductHandler(repo repository.ProductRepository, registry *settings.Registry, c *cache.Cache) *ProductHandler {
	return &ProductHandler{repo: repo, settings: registry, cache: c}
}

// CategoriesResponse es el vocabulario de filtros del sitio público
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}

// ListProducts es el listado público, con caché
// GET /v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	opts, err := h.listOptions(c)
	if err != nil {
		respondError(c, err, "invalid query")
		return
	}
	opts.MatchAllFields = true

	cacheKey := fmt.Sprintf("%st:%s_c:%s_q:%s_s:%s_p%d_ps%d",
		listCachePrefix, opts.Type, opts.Category, opts.Term, opts.Sort, opts.Page, opts.PageSize)
	if cached, found := h.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	page, err := h.query(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err, "failed to list products")
		return
	}

	h.cache.Set(cacheKey, page, listCacheTTL)
	c.JSON(http.StatusOK, page)
}

// GetProductBySlug devuelve la ficha pública de un producto
// GET /v1/products/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "failed to get product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListCategories GET /v1/categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	s, err := h.settings.Load(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, CategoriesResponse{Categories: s.Categories, Brands: s.Brands})
}

// AdminListProducts busca solo por nombre y no usa caché
// GET /v1/admin/products
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	opts, err := h.listOptions(c)
	if err != nil {
		respondError(c, err, "invalid query")
		return
	}

	page, err := h.query(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err, "failed to list products")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /v1/admin/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to get product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// POST /v1/admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.validateInput(ctx, &input); err != nil {
		respondError(c, err, "invalid product")
		return
	}

	product, err := h.repo.Create(ctx, input)
	if err != nil {
		respondError(c, err, "failed to create product")
		return
	}

	h.InvalidateListings()
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct actualiza parcialmente un producto
// PATCH /v1/admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var update models.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if update.IsEmpty() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no valid fields to update"})
		return
	}

	ctx := c.Request.Context()
	if err := h.validateUpdate(ctx, &update); err != nil {
		respondError(c, err, "invalid product")
		return
	}

	product, err := h.repo.Update(ctx, c.Param("id"), update)
	if err != nil {
		respondError(c, err, "failed to update product")
		return
	}

	h.InvalidateListings()
	c.JSON(http.StatusOK, product)
}

// DELETE /v1/admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to delete product")
		return
	}

	h.InvalidateListings()
	c.JSON(http.StatusOK, SuccessResponse{Message: "product deleted"})
}

// InvalidateListings vacía los listados públicos en caché
func (h *ProductHandler) InvalidateListings() {
	h.cache.DeleteByPrefix(listCachePrefix)
}

// --- Métodos auxiliares ---

func (h *ProductHandler) query(ctx context.Context, opts query.Options) (query.Page, error) {
	products, err := h.repo.GetAll(ctx)
	if err != nil {
		return query.Page{}, err
	}

	page := query.Apply(products, opts)
	if clamped := query.ClampPage(opts.Page, page.TotalPages); clamped != opts.Page {
		opts.Page = clamped
		page = query.Apply(products, opts)
	}
	if page.Items == nil {
		page.Items = []models.Product{}
	}
	return page, nil
}

// listOptions lee filtros, orden y paginación de la query string
func (h *ProductHandler) listOptions(c *gin.Context) (query.Options, error) {
	page, pageSize := getPaginationParams(c)
	opts := query.Options{
		Category: strings.TrimSpace(c.DefaultQuery("category", query.AllCategories)),
		Term:     strings.TrimSpace(c.Query("q")),
		Sort:     query.ParseSortKey(c.Query("sort")),
		Page:     page,
		PageSize: pageSize,
	}

	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t := models.ProductType(strings.ToLower(raw))
		if !t.Valid() {
			return query.Options{}, &ValidationError{Field: "type", Message: "type must be door or accessory"}
		}
		opts.Type = t
	}
	return opts, nil
}

// getPaginationParams obtiene y valida los parámetros de paginación
func getPaginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))

	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// validateInput valida un producto nuevo y normaliza su categoría
func (h *ProductHandler) validateInput(ctx context.Context, in *models.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !in.Type.Valid() {
		return &ValidationError{Field: "type", Message: "type must be door or accessory"}
	}
	if err := validatePrice(in.Price); err != nil {
		return err
	}
	if err := validateImage(in.Image); err != nil {
		return err
	}

	category, err := h.knownCategory(ctx, in.Category)
	if err != nil {
		return err
	}
	in.Category = category
	return nil
}

// validateUpdate aplica las mismas reglas solo a los campos presentes
func (h *ProductHandler) validateUpdate(ctx context.Context, u *models.ProductUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if u.Type != nil && !u.Type.Valid() {
		return &ValidationError{Field: "type", Message: "type must be door or accessory"}
	}
	if u.Price != nil {
		if err := validatePrice(*u.Price); err != nil {
			return err
		}
	}
	if u.Image != nil {
		if err := validateImage(*u.Image); err != nil {
			return err
		}
	}
	if u.Category != nil {
		category, err := h.knownCategory(ctx, *u.Category)
		if err != nil {
			return err
		}
		u.Category = &category
	}
	return nil
}

// knownCategory devuelve la categoría con la grafía guardada en la configuración
func (h *ProductHandler) knownCategory(ctx context.Context, category string) (string, error) {
	s, err := h.settings.Load(ctx)
	if err != nil {
		return "", err
	}
	key := textutil.Fold(category)
	for _, known := range s.Categories {
		if textutil.Fold(known) == key {
			return known, nil
		}
	}
	return "", &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", category)}
}

func validatePrice(price float64) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return &ValidationError{Field: "price", Message: "price cannot be negative"}
	}
	return nil
}

// validateImage acepta URLs absolutas http(s) o archivos subidos a /uploads/
func validateImage(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return &ValidationError{Field: "image", Message: "image is required"}
	}
	if strings.HasPrefix(image, uploadsPrefix) {
		return nil
	}
	u, err := url.Parse(image)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "image", Message: "image must be an http(s) URL or an uploaded file"}
	}
	return nil
}
