package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"door-catalog/internal/models"
)

var (
	_ ProductRepository  = (*MongoProductRepository)(nil)
	_ ProductRepository  = (*MemoryProductRepository)(nil)
	_ SettingsRepository = (*MongoSettingsRepository)(nil)
	_ SettingsRepository = (*MemorySettingsRepository)(nil)
)

// MongoProductRepository guarda los productos en una colección de MongoDB
type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(collection *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{
		collection: collection,
	}
}

// EnsureIndexes crea el índice único de slug y el de fecha de creación
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	return err
}

// Create crea un nuevo producto
func (r *MongoProductRepository) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slug, err := allocateSlug(in, func(s string) (bool, error) {
		return r.slugExists(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	product := newProduct(primitive.NewObjectID().Hex(), slug, in, nowMillis())
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugTaken, slug)
		}
		return nil, err
	}
	return &product, nil
}

// CreateMany inserta el lote sin orden: cada documento se intenta por separado.
// Solo devuelve error cuando no se pudo intentar ninguno.
func (r *MongoProductRepository) CreateMany(ctx context.Context, in []models.ProductInput) (models.ImportResult, error) {
	var result models.ImportResult
	if len(in) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	now := nowMillis()
	inBatch := make(map[string]bool, len(in))
	docs := make([]interface{}, 0, len(in))
	docRows := make([]int, 0, len(in))

	for i, p := range in {
		slug, err := allocateSlug(p, func(s string) (bool, error) {
			if inBatch[s] {
				return true, nil
			}
			return r.slugExists(ctx, s)
		})
		if err != nil {
			if !errors.Is(err, ErrSlugTaken) {
				return models.ImportResult{}, fmt.Errorf("allocate slugs: %w", err)
			}
			result.FailCount++
			result.Failures = append(result.Failures, models.RowFailure{Row: i + 1, Name: p.Name, Reason: err.Error()})
			continue
		}
		inBatch[slug] = true
		docs = append(docs, newProduct(primitive.NewObjectID().Hex(), slug, p, now))
		docRows = append(docRows, i)
	}

	if len(docs) == 0 {
		return result, nil
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		result.SuccessCount += len(docs)
		return result, nil
	}

	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return models.ImportResult{}, err
	}

	for _, we := range bulkErr.WriteErrors {
		row := docRows[we.Index]
		result.FailCount++
		result.Failures = append(result.Failures, models.RowFailure{Row: row + 1, Name: in[row].Name, Reason: we.Message})
	}
	result.SuccessCount += len(docs) - len(bulkErr.WriteErrors)
	return result, nil
}

// GetAll recorre la colección completa en orden de inserción
func (r *MongoProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID obtiene un producto por ID
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug obtiene un producto por su slug público
func (r *MongoProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// Update actualiza un producto; el slug, el ID y created_at no se tocan
func (r *MongoProductRepository) Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := updateDocument(update)
	set["updated_at"] = nowMillis()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Delete elimina un producto
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *MongoProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOne(ctx, filter).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *MongoProductRepository) slugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// updateDocument traduce la actualización parcial a un $set
func updateDocument(u models.ProductUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = models.CleanName(*u.Name)
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Type != nil {
		set["type"] = *u.Type
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Image != nil {
		set["image"] = *u.Image
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Features != nil {
		set["features"] = models.CleanFeatures(*u.Features)
	}
	if u.Specifications != nil {
		set["specifications"] = models.CleanSpecifications(*u.Specifications)
	}
	return set
}

// MongoSettingsRepository guarda la configuración como un único documento
type MongoSettingsRepository struct {
	collection *mongo.Collection
}

const settingsDocID = "catalog"

type settingsDocument struct {
	ID              string `bson:"_id"`
	models.Settings `bson:",inline"`
}

func NewMongoSettingsRepository(collection *mongo.Collection) *MongoSettingsRepository {
	return &MongoSettingsRepository{collection: collection}
}

func (r *MongoSettingsRepository) Load(ctx context.Context) (models.Settings, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc settingsDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Settings{}, false, nil
		}
		return models.Settings{}, false, err
	}
	return doc.Settings, true, nil
}

func (r *MongoSettingsRepository) Save(ctx context.Context, settings models.Settings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := settingsDocument{ID: settingsDocID, Settings: settings}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": settingsDocID}, doc, options.Replace().SetUpsert(true))
	return err
}
