package repository

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"door-catalog/internal/models"
)

// MemoryProductRepository guarda los productos en memoria, en orden de inserción.
// Se usa en tests y con STORE_DRIVER=memory.
type MemoryProductRepository struct {
	mu     sync.RWMutex
	items  []models.Product
	byID   map[string]int
	bySlug map[string]string
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		byID:   make(map[string]int),
		bySlug: make(map[string]string),
	}
}

// Create crea un nuevo producto
func (r *MemoryProductRepository) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	return r.create(ctx, in, nowMillis())
}

func (r *MemoryProductRepository) create(ctx context.Context, in models.ProductInput, now int64) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slug, err := allocateSlug(in, func(s string) (bool, error) {
		_, ok := r.bySlug[s]
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	p := newProduct(primitive.NewObjectID().Hex(), slug, in, now)
	r.items = append(r.items, p)
	r.byID[p.ID] = len(r.items) - 1
	r.bySlug[p.Slug] = p.ID

	out := p
	return &out, nil
}

// CreateMany intenta crear cada producto por separado; un fallo no detiene al resto
func (r *MemoryProductRepository) CreateMany(ctx context.Context, in []models.ProductInput) (models.ImportResult, error) {
	var result models.ImportResult
	now := nowMillis()
	for i, p := range in {
		if _, err := r.create(ctx, p, now); err != nil {
			result.FailCount++
			result.Failures = append(result.Failures, models.RowFailure{Row: i + 1, Name: p.Name, Reason: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// GetAll devuelve todos los productos en orden de inserción
func (r *MemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, len(r.items))
	copy(out, r.items)
	return out, nil
}

// GetByID obtiene un producto por ID
func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := r.items[idx]
	return &p, nil
}

// GetBySlug obtiene un producto por su slug público
func (r *MemoryProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	r.mu.RLock()
	id, ok := r.bySlug[slug]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProductNotFound
	}
	return r.GetByID(ctx, id)
}

// Update actualiza un producto; el slug no cambia
func (r *MemoryProductRepository) Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := r.items[idx]
	update.Apply(&p)
	p.UpdatedAt = nowMillis()
	r.items[idx] = p
	return &p, nil
}

// Delete elimina un producto
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return ErrProductNotFound
	}
	delete(r.bySlug, r.items[idx].Slug)
	r.items = append(r.items[:idx], r.items[idx+1:]...)

	r.byID = make(map[string]int, len(r.items))
	for i, p := range r.items {
		r.byID[p.ID] = i
	}
	return nil
}

// MemorySettingsRepository guarda la configuración en memoria
type MemorySettingsRepository struct {
	mu       sync.Mutex
	settings *models.Settings
}

func NewMemorySettingsRepository() *MemorySettingsRepository {
	return &MemorySettingsRepository{}
}

func (r *MemorySettingsRepository) Load(ctx context.Context) (models.Settings, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		return models.Settings{}, false, nil
	}
	return r.settings.Clone(), true, nil
}

func (r *MemorySettingsRepository) Save(ctx context.Context, settings models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := settings.Clone()
	r.settings = &s
	return nil
}
