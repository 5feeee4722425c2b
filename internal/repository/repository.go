package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"door-catalog/internal/models"
	"door-catalog/internal/textutil"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSlugTaken       = errors.New("slug already in use")
)

// maxSlugAttempts limita los sufijos -2, -3... antes de rendirse
const maxSlugAttempts = 50

// ProductRepository es la colección autoritativa de productos.
// Toda mutación es visible en la siguiente lectura.
type ProductRepository interface {
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	CreateMany(ctx context.Context, in []models.ProductInput) (models.ImportResult, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// SettingsRepository guarda el único registro de configuración
type SettingsRepository interface {
	// Load devuelve found=false cuando todavía no hay nada guardado
	Load(ctx context.Context) (settings models.Settings, found bool, err error)
	Save(ctx context.Context, settings models.Settings) error
}

// nowMillis es el reloj de los repositorios; se reemplaza en tests
var nowMillis = defaultNow

func defaultNow() int64 {
	return time.Now().UnixMilli()
}

// newProduct arma el registro a guardar, limpiando viñetas y especificaciones
func newProduct(id, slug string, in models.ProductInput, now int64) models.Product {
	return models.Product{
		ID:             id,
		Name:           models.CleanName(in.Name),
		Slug:           slug,
		Category:       strings.TrimSpace(in.Category),
		Type:           in.Type,
		Price:          in.Price,
		Image:          strings.TrimSpace(in.Image),
		Description:    in.Description,
		Features:       models.CleanFeatures(in.Features),
		Specifications: models.CleanSpecifications(in.Specifications),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// allocateSlug resuelve el slug definitivo de un producto nuevo.
// Un slug explícito ocupado es un error; uno derivado del nombre recibe sufijo.
func allocateSlug(in models.ProductInput, taken func(string) (bool, error)) (string, error) {
	if explicit := strings.TrimSpace(in.Slug); explicit != "" {
		slug := textutil.Slugify(explicit)
		used, err := taken(slug)
		if err != nil {
			return "", err
		}
		if used {
			return "", fmt.Errorf("%w: %s", ErrSlugTaken, slug)
		}
		return slug, nil
	}

	base := textutil.Slugify(in.Name)
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w: %s", ErrSlugTaken, base)
}
