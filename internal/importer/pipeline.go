// Package importer convierte hojas de cálculo en productos del catálogo:
// lee el archivo, resuelve imágenes y valores por defecto fila a fila y
// guarda el lote completo.
package importer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"door-catalog/internal/blob"
	"door-catalog/internal/metrics"
	"door-catalog/internal/models"
	"door-catalog/internal/repository"
	"door-catalog/internal/textutil"
)

var ErrNoRows = errors.New("no rows to import")

// ImageFile es una imagen subida junto con la hoja
type ImageFile struct {
	Name string
	Data []byte
}

// Step es el avance tras resolver una fila
type Step struct {
	Index   int                 `json:"index"`
	Total   int                 `json:"total"`
	Row     int                 `json:"row"`
	Product models.ProductInput `json:"product"`
}

func (s Step) String() string {
	return fmt.Sprintf("processing row %d of %d", s.Index, s.Total)
}

// SettingsSource es la parte del registro de configuración que usa la importación
type SettingsSource interface {
	Load(ctx context.Context) (models.Settings, error)
}

// Options ajusta el comportamiento del pipeline
type Options struct {
	// PlaceholderImage sustituye a las imágenes no encontradas o fallidas
	PlaceholderImage string
	// UploadWorkers > 1 sube las imágenes en paralelo antes de recorrer las filas
	UploadWorkers int
}

type Pipeline struct {
	products repository.ProductRepository
	settings SettingsSource
	blobs    blob.Store
	opts     Options
}

func NewPipeline(products repository.ProductRepository, settings SettingsSource, blobs blob.Store, opts Options) *Pipeline {
	if opts.UploadWorkers < 1 {
		opts.UploadWorkers = 1
	}
	return &Pipeline{products: products, settings: settings, blobs: blobs, opts: opts}
}

// Steps lee la configuración una sola vez y devuelve el recorrido de las filas
// en el orden del archivo. Cada paso ya trae el producto listo para guardar.
func (p *Pipeline) Steps(ctx context.Context, rows []models.ImportRow, images []ImageFile) (iter.Seq[Step], error) {
	snapshot, err := p.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	b := p.newBatch(images)
	if p.opts.UploadWorkers > 1 {
		b.prefetch(ctx, rows, p.opts.UploadWorkers)
	}

	return func(yield func(Step) bool) {
		for i, row := range rows {
			input := buildInput(row, snapshot)
			input.Image = b.resolve(ctx, row.Image)

			step := Step{Index: i + 1, Total: len(rows), Row: row.Row, Product: input}
			if !yield(step) {
				return
			}
		}
	}, nil
}

// Run resuelve todas las filas, informa el progreso y guarda el lote.
// Un fallo de un producto se cuenta; un fallo del almacenamiento se devuelve.
func (p *Pipeline) Run(ctx context.Context, rows []models.ImportRow, images []ImageFile, progress func(Step)) (models.ImportResult, error) {
	if len(rows) == 0 {
		return models.ImportResult{}, ErrNoRows
	}
	start := time.Now()

	steps, err := p.Steps(ctx, rows, images)
	if err != nil {
		return models.ImportResult{}, err
	}

	inputs := make([]models.ProductInput, 0, len(rows))
	for step := range steps {
		inputs = append(inputs, step.Product)
		if progress != nil {
			progress(step)
		}
	}

	result, err := p.products.CreateMany(ctx, inputs)
	if err != nil {
		zap.L().Error("Bulk create failed", zap.Int("rows", len(inputs)), zap.Error(err))
		return models.ImportResult{}, fmt.Errorf("create products: %w", err)
	}

	// CreateMany numera por posición en el lote; se pasa a líneas del archivo
	for i, f := range result.Failures {
		if f.Row >= 1 && f.Row <= len(rows) && rows[f.Row-1].Row > 0 {
			result.Failures[i].Row = rows[f.Row-1].Row
		}
	}

	metrics.ImportRows.WithLabelValues("created").Add(float64(result.SuccessCount))
	metrics.ImportRows.WithLabelValues("failed").Add(float64(result.FailCount))
	metrics.ImportDuration.Observe(time.Since(start).Seconds())

	zap.L().Info("Import finished",
		zap.Int("rows", len(rows)),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailCount),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}

// batch recuerda las subidas de una importación: cada archivo se sube una vez
type batch struct {
	blobs       blob.Store
	placeholder string
	images      []ImageFile
	byName      map[string]int

	mu       sync.Mutex
	uploaded map[int]string
}

func (p *Pipeline) newBatch(images []ImageFile) *batch {
	b := &batch{
		blobs:       p.blobs,
		placeholder: p.opts.PlaceholderImage,
		images:      images,
		byName:      make(map[string]int, len(images)),
		uploaded:    make(map[int]string),
	}
	for i, img := range images {
		key := imageKey(img.Name)
		if _, dup := b.byName[key]; !dup {
			b.byName[key] = i
		}
	}
	return b
}

func imageKey(name string) string {
	return textutil.Fold(name)
}

// resolve devuelve la URL de la imagen indicada o el placeholder
func (b *batch) resolve(ctx context.Context, hint string) string {
	if strings.TrimSpace(hint) == "" {
		metrics.ImportImages.WithLabelValues(metrics.ImageNoHint).Inc()
		return b.placeholder
	}
	idx, ok := b.byName[imageKey(hint)]
	if !ok {
		metrics.ImportImages.WithLabelValues(metrics.ImageNotFound).Inc()
		return b.placeholder
	}
	return b.upload(ctx, idx)
}

func (b *batch) upload(ctx context.Context, idx int) string {
	b.mu.Lock()
	if url, done := b.uploaded[idx]; done {
		b.mu.Unlock()
		return url
	}
	b.mu.Unlock()

	img := b.images[idx]
	url, err := b.blobs.Upload(ctx, img.Name, img.Data)
	if err != nil {
		zap.L().Warn("Image upload failed, using placeholder", zap.String("image", img.Name), zap.Error(err))
		metrics.ImportImages.WithLabelValues(metrics.ImageUploadFailed).Inc()
		url = b.placeholder
	} else {
		metrics.ImportImages.WithLabelValues(metrics.ImageUploaded).Inc()
	}

	b.mu.Lock()
	b.uploaded[idx] = url
	b.mu.Unlock()
	return url
}

// prefetch sube en paralelo cada imagen referenciada por alguna fila
func (b *batch) prefetch(ctx context.Context, rows []models.ImportRow, workers int) {
	wanted := make(map[int]struct{})
	for _, row := range rows {
		if strings.TrimSpace(row.Image) == "" {
			continue
		}
		if idx, ok := b.byName[imageKey(row.Image)]; ok {
			wanted[idx] = struct{}{}
		}
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for idx := range wanted {
		g.Go(func() error {
			b.upload(ctx, idx)
			return nil
		})
	}
	g.Wait()
}
