package importer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"door-catalog/internal/models"
	"door-catalog/internal/repository"
	"door-catalog/internal/settings"
)

const placeholder = "/uploads/placeholder.jpg"

type fakeBlobs struct {
	mu      sync.Mutex
	uploads []string
	fail    map[string]bool
}

func (f *fakeBlobs) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[filename] {
		return "", errors.New("blob store unavailable")
	}
	f.uploads = append(f.uploads, filename)
	return "https://cdn.example.com/" + strings.TrimSpace(filename), nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// flakyStore rechaza los productos cuyo nombre está en fail
type flakyStore struct {
	*repository.MemoryProductRepository
	fail map[string]bool
}

func (s *flakyStore) CreateMany(ctx context.Context, in []models.ProductInput) (models.ImportResult, error) {
	var result models.ImportResult
	for i, p := range in {
		if s.fail[p.Name] {
			result.FailCount++
			result.Failures = append(result.Failures, models.RowFailure{Row: i + 1, Name: p.Name, Reason: "write rejected"})
			continue
		}
		if _, err := s.Create(ctx, p); err != nil {
			return models.ImportResult{}, err
		}
		result.SuccessCount++
	}
	return result, nil
}

type brokenStore struct {
	*repository.MemoryProductRepository
}

func (brokenStore) CreateMany(context.Context, []models.ProductInput) (models.ImportResult, error) {
	return models.ImportResult{}, errors.New("connection refused")
}

func newTestPipeline(store repository.ProductRepository, blobs *fakeBlobs, workers int) (*Pipeline, *settings.Registry) {
	registry := settings.NewRegistry(repository.NewMemorySettingsRepository(), settings.DefaultSettings())
	p := NewPipeline(store, registry, blobs, Options{PlaceholderImage: placeholder, UploadWorkers: workers})
	return p, registry
}

func TestEndToEndImport(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryProductRepository()
	blobs := &fakeBlobs{}
	p, registry := newTestPipeline(store, blobs, 1)

	rows := []models.ImportRow{
		{Row: 2, Name: "Door A", Type: "cửa", Image: "a.jpg", Specifications: "Material:Wood"},
		{Row: 3, Name: "Lock B", Type: "phụ kiện", Image: "missing.jpg"},
	}
	images := []ImageFile{{Name: "a.jpg", Data: []byte("jpeg")}}

	result, err := p.Run(ctx, rows, images, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.SuccessCount != 2 || result.FailCount != 0 {
		t.Fatalf("Unexpected result %+v", result)
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(all))
	}

	door, lock := all[0], all[1]
	if door.Name != "Door A" || door.Type != models.TypeDoor || door.Image != "https://cdn.example.com/a.jpg" {
		t.Errorf("Unexpected door %+v", door)
	}
	if !reflect.DeepEqual(door.Specifications, []models.Specification{{Key: "Material", Value: "Wood"}}) {
		t.Errorf("Unexpected door specs %v", door.Specifications)
	}

	accessoryTemplate, _ := registry.SpecTemplate(ctx, models.TypeAccessory)
	if lock.Name != "Lock B" || lock.Type != models.TypeAccessory || lock.Image != placeholder {
		t.Errorf("Unexpected lock %+v", lock)
	}
	if !reflect.DeepEqual(lock.Specifications, accessoryTemplate) {
		t.Errorf("Lock specs %v should equal the accessory template %v", lock.Specifications, accessoryTemplate)
	}
	if lock.Category != settings.DefaultSettings().Categories[0] {
		t.Errorf("Blank category should default to the first one, got %q", lock.Category)
	}
}

func TestImageMatchIgnoresCaseAndWhitespace(t *testing.T) {
	blobs := &fakeBlobs{}
	p, _ := newTestPipeline(repository.NewMemoryProductRepository(), blobs, 1)

	steps, err := p.Steps(context.Background(),
		[]models.ImportRow{{Name: "x", Image: "Door1.JPG"}},
		[]ImageFile{{Name: " door1.jpg ", Data: []byte("img")}},
	)
	if err != nil {
		t.Fatal(err)
	}
	for step := range steps {
		if step.Product.Image != "https://cdn.example.com/door1.jpg" {
			t.Errorf("Expected the uploaded image, got %s", step.Product.Image)
		}
	}
	if blobs.count() != 1 {
		t.Errorf("Expected one upload, got %d", blobs.count())
	}
}

func TestSpecificationFallback(t *testing.T) {
	ctx := context.Background()
	p, registry := newTestPipeline(repository.NewMemoryProductRepository(), &fakeBlobs{}, 1)
	doorTemplate, _ := registry.SpecTemplate(ctx, models.TypeDoor)

	rows := []models.ImportRow{
		{Name: "empty"},
		{Name: "malformed", Specifications: "no pairs here; :x; y:"},
		{Name: "parsed", Specifications: "Color:Red;Size:Large"},
	}
	steps, err := p.Steps(ctx, rows, nil)
	if err != nil {
		t.Fatal(err)
	}

	var got [][]models.Specification
	for step := range steps {
		got = append(got, step.Product.Specifications)
	}

	if !reflect.DeepEqual(got[0], doorTemplate) || !reflect.DeepEqual(got[1], doorTemplate) {
		t.Errorf("Empty or malformed specs should yield the door template, got %v / %v", got[0], got[1])
	}
	want := []models.Specification{{Key: "Color", Value: "Red"}, {Key: "Size", Value: "Large"}}
	if !reflect.DeepEqual(got[2], want) {
		t.Errorf("Expected %v, got %v", want, got[2])
	}
}

func TestPartialFailureAccounting(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{
		MemoryProductRepository: repository.NewMemoryProductRepository(),
		fail:                    map[string]bool{"P2": true, "P4": true},
	}
	p, _ := newTestPipeline(store, &fakeBlobs{}, 1)

	var rows []models.ImportRow
	for i := 1; i <= 5; i++ {
		rows = append(rows, models.ImportRow{Row: i + 1, Name: fmt.Sprintf("P%d", i)})
	}

	result, err := p.Run(ctx, rows, nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.SuccessCount != 3 || result.FailCount != 2 {
		t.Fatalf("Expected 3/2, got %+v", result)
	}
	if len(result.Failures) != 2 || result.Failures[0].Row != 3 || result.Failures[1].Row != 5 {
		t.Errorf("Failures should point at file rows 3 and 5, got %+v", result.Failures)
	}

	all, _ := store.GetAll(ctx)
	var names []string
	for _, product := range all {
		names = append(names, product.Name)
	}
	if strings.Join(names, ",") != "P1,P3,P5" {
		t.Errorf("Catalog should hold exactly the successful rows, got %v", names)
	}
}

func TestSameImageUploadedOncePerBatch(t *testing.T) {
	for _, workers := range []int{1, 4} {
		blobs := &fakeBlobs{}
		p, _ := newTestPipeline(repository.NewMemoryProductRepository(), blobs, workers)

		rows := []models.ImportRow{
			{Name: "a", Image: "shared.jpg"},
			{Name: "b", Image: "SHARED.jpg"},
			{Name: "c", Image: "other.jpg"},
			{Name: "d"},
		}
		images := []ImageFile{{Name: "shared.jpg", Data: []byte("1")}, {Name: "other.jpg", Data: []byte("2")}}

		var order []string
		var progress []int
		result, err := p.Run(context.Background(), rows, images, func(s Step) {
			order = append(order, s.Product.Name)
			progress = append(progress, s.Index)
			if s.Total != len(rows) {
				t.Errorf("Step total %d, expected %d", s.Total, len(rows))
			}
		})
		if err != nil || result.SuccessCount != 4 {
			t.Fatalf("workers=%d: unexpected result %+v, %v", workers, result, err)
		}
		if blobs.count() != 2 {
			t.Errorf("workers=%d: expected 2 uploads, got %d", workers, blobs.count())
		}
		if strings.Join(order, "") != "abcd" || !reflect.DeepEqual(progress, []int{1, 2, 3, 4}) {
			t.Errorf("workers=%d: rows out of order %v %v", workers, order, progress)
		}
	}
}

func TestUploadFailureFallsBackToPlaceholder(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryProductRepository()
	blobs := &fakeBlobs{fail: map[string]bool{"broken.jpg": true}}
	p, _ := newTestPipeline(store, blobs, 1)

	result, err := p.Run(ctx,
		[]models.ImportRow{{Name: "x", Image: "broken.jpg"}, {Name: "y", Image: ""}},
		[]ImageFile{{Name: "broken.jpg", Data: []byte("1")}},
		nil,
	)
	if err != nil || result.SuccessCount != 2 {
		t.Fatalf("Upload failures must not fail rows: %+v, %v", result, err)
	}
	all, _ := store.GetAll(ctx)
	for _, product := range all {
		if product.Image != placeholder {
			t.Errorf("%s: expected placeholder, got %s", product.Name, product.Image)
		}
	}
}

func TestRunErrors(t *testing.T) {
	p, _ := newTestPipeline(repository.NewMemoryProductRepository(), &fakeBlobs{}, 1)
	if _, err := p.Run(context.Background(), nil, nil, nil); !errors.Is(err, ErrNoRows) {
		t.Errorf("Expected ErrNoRows, got %v", err)
	}

	broken, _ := newTestPipeline(brokenStore{repository.NewMemoryProductRepository()}, &fakeBlobs{}, 1)
	if _, err := broken.Run(context.Background(), []models.ImportRow{{Name: "x"}}, nil, nil); err == nil {
		t.Error("A store failure should be returned")
	}
}

func TestStepsStopEarly(t *testing.T) {
	p, _ := newTestPipeline(repository.NewMemoryProductRepository(), &fakeBlobs{}, 1)
	steps, err := p.Steps(context.Background(), []models.ImportRow{{Name: "a"}, {Name: "b"}, {Name: "c"}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	seen := 0
	for step := range steps {
		seen++
		if step.String() != "processing row 1 of 3" {
			t.Errorf("Unexpected progress text %q", step.String())
		}
		break
	}
	if seen != 1 {
		t.Errorf("Expected to stop after one step, saw %d", seen)
	}
}
