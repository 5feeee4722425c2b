// Package settings mantiene la configuración del catálogo: categorías, marcas
// y la plantilla de especificaciones de cada tipo de producto.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"door-catalog/internal/models"
	"door-catalog/internal/repository"
)

// List identifica una de las listas editables con AddItem/RemoveItem
type List string

const (
	ListCategories List = "categories"
	ListBrands     List = "brands"
)

var ErrUnknownList = errors.New("unknown settings list")

// ParseList valida el nombre de lista recibido por la API
func ParseList(s string) (List, error) {
	switch l := List(strings.ToLower(strings.TrimSpace(s))); l {
	case ListCategories, ListBrands:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownList, s)
	}
}

// Registry carga la configuración una vez, la guarda en memoria y la
// persiste en cada edición. Lo que devuelve son copias.
type Registry struct {
	repo     repository.SettingsRepository
	defaults models.Settings

	mu     sync.Mutex
	cached *models.Settings
}

func NewRegistry(repo repository.SettingsRepository, defaults models.Settings) *Registry {
	return &Registry{repo: repo, defaults: defaults.Clone()}
}

// Load devuelve la configuración guardada o la de fábrica si no hay ninguna
func (r *Registry) Load(ctx context.Context) (models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	return s.Clone(), nil
}

// Reload descarta la copia en memoria y vuelve a leer del almacenamiento
func (r *Registry) Reload(ctx context.Context) (models.Settings, error) {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
	return r.Load(ctx)
}

// SpecTemplate devuelve la plantilla de especificaciones de un tipo
func (r *Registry) SpecTemplate(ctx context.Context, t models.ProductType) ([]models.Specification, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.SpecTemplate(t), nil
}

// Save mezcla los campos presentes y persiste el registro completo.
// La copia en memoria solo cambia si la escritura tuvo éxito.
func (r *Registry) Save(ctx context.Context, update models.SettingsUpdate) (models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	next := current.Clone()
	if update.Categories != nil {
		next.Categories = append([]string{}, (*update.Categories)...)
	}
	if update.Brands != nil {
		next.Brands = append([]string{}, (*update.Brands)...)
	}
	for t, tpl := range update.SpecTemplates {
		next.SpecTemplates[t] = append([]models.Specification{}, tpl...)
	}

	if err := r.persist(ctx, next); err != nil {
		return models.Settings{}, err
	}
	return next.Clone(), nil
}

// AddItem agrega una categoría o marca. Los duplicados exactos y los valores
// vacíos se ignoran sin error.
func (r *Registry) AddItem(ctx context.Context, list List, value string) (models.Settings, error) {
	return r.editList(ctx, list, func(items []string) ([]string, bool) {
		value = strings.TrimSpace(value)
		if value == "" {
			return items, false
		}
		for _, it := range items {
			if it == value {
				return items, false
			}
		}
		return append(items, value), true
	})
}

// RemoveItem quita una categoría o marca; si no existe no hace nada
func (r *Registry) RemoveItem(ctx context.Context, list List, value string) (models.Settings, error) {
	return r.editList(ctx, list, func(items []string) ([]string, bool) {
		out := items[:0:0]
		for _, it := range items {
			if it != value {
				out = append(out, it)
			}
		}
		return out, len(out) != len(items)
	})
}

func (r *Registry) editList(ctx context.Context, list List, edit func([]string) ([]string, bool)) (models.Settings, error) {
	if _, err := ParseList(string(list)); err != nil {
		return models.Settings{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	next := current.Clone()
	var changed bool
	switch list {
	case ListCategories:
		next.Categories, changed = edit(next.Categories)
	case ListBrands:
		next.Brands, changed = edit(next.Brands)
	}
	if !changed {
		return current.Clone(), nil
	}

	if err := r.persist(ctx, next); err != nil {
		return models.Settings{}, err
	}
	return next.Clone(), nil
}

// load requiere r.mu tomado
func (r *Registry) load(ctx context.Context) (models.Settings, error) {
	if r.cached != nil {
		return *r.cached, nil
	}

	s, found, err := r.repo.Load(ctx)
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !found {
		zap.L().Info("No stored settings, using defaults")
		s = r.defaults.Clone()
	}
	if s.SpecTemplates == nil {
		s.SpecTemplates = make(map[models.ProductType][]models.Specification)
	}
	r.cached = &s
	return s, nil
}

// persist requiere r.mu tomado
func (r *Registry) persist(ctx context.Context, s models.Settings) error {
	if err := r.repo.Save(ctx, s); err != nil {
		zap.L().Error("Failed to save settings", zap.Error(err))
		return fmt.Errorf("save settings: %w", err)
	}
	r.cached = &s
	return nil
}

// DefaultSettings es la configuración de fábrica
func DefaultSettings() models.Settings {
	return models.Settings{
		Categories: []string{"Composite", "Cửa gỗ tự nhiên", "Cửa thép vân gỗ", "Cửa nhựa ABS", "Phụ kiện cửa"},
		Brands:     []string{"Koler", "Huge", "Hafele"},
		SpecTemplates: map[models.ProductType][]models.Specification{
			models.TypeDoor: {
				{Key: "Chất liệu", Value: "Đang cập nhật"},
				{Key: "Kích thước", Value: "Theo yêu cầu"},
				{Key: "Độ dày", Value: "Đang cập nhật"},
				{Key: "Bảo hành", Value: "24 tháng"},
			},
			models.TypeAccessory: {
				{Key: "Chất liệu", Value: "Đang cập nhật"},
				{Key: "Màu sắc", Value: "Đang cập nhật"},
				{Key: "Bảo hành", Value: "12 tháng"},
			},
		},
	}
}

// LoadSeed lee una configuración inicial desde YAML; los campos ausentes
// toman el valor de fábrica
func LoadSeed(path string) (models.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Settings{}, fmt.Errorf("read settings seed: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) (models.Settings, error) {
	var seed models.Settings
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return models.Settings{}, fmt.Errorf("parse settings seed: %w", err)
	}

	s := DefaultSettings()
	if len(seed.Categories) > 0 {
		s.Categories = seed.Categories
	}
	if len(seed.Brands) > 0 {
		s.Brands = seed.Brands
	}
	for t, tpl := range seed.SpecTemplates {
		s.SpecTemplates[t] = tpl
	}
	return s, nil
}
