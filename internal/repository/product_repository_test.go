package repository

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"door-catalog/internal/models"
)

func TestMongoCreateManyPartialFailure(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("maps write errors back to rows", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		// una consulta de slug por fila; la quinta repite "Door A" dentro del lote
		for i := 0; i < 5; i++ {
			mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(
			mtest.WriteError{Index: 1, Code: 11000, Message: "E11000 duplicate key error"},
			mtest.WriteError{Index: 3, Code: 11000, Message: "E11000 duplicate key error"},
		))

		in := []models.ProductInput{door("Door A"), door("Door B"), door("Door C"), door("Door D"), door("Door A")}
		result, err := repo.CreateMany(context.Background(), in)
		if err != nil {
			mt.Fatalf("CreateMany failed: %v", err)
		}
		if result.SuccessCount != 3 || result.FailCount != 2 {
			mt.Fatalf("Expected 3 created and 2 failed, got %+v", result)
		}
		if result.Failures[0].Row != 2 || result.Failures[1].Row != 4 {
			mt.Errorf("Expected failures on rows 2 and 4, got %+v", result.Failures)
		}
		if result.Failures[0].Name != "Door B" {
			mt.Errorf("Expected failure for Door B, got %s", result.Failures[0].Name)
		}

		var slugs []string
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName != "insert" {
				continue
			}
			docs, err := evt.Command.Lookup("documents").Array().Values()
			if err != nil {
				mt.Fatalf("Could not read inserted documents: %v", err)
			}
			for _, d := range docs {
				slugs = append(slugs, d.Document().Lookup("slug").StringValue())
			}
		}
		if len(slugs) != 5 || slugs[4] != "door-a-2" {
			mt.Errorf("Expected the repeated name to get door-a-2, got %v", slugs)
		}
	})

	mt.Run("counts a duplicate slug in the store as a failure", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		explicit := door("Door X")
		explicit.Slug = "door-x"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		result, err := repo.CreateMany(context.Background(), []models.ProductInput{explicit, door("Door Y")})
		if err != nil {
			mt.Fatalf("CreateMany failed: %v", err)
		}
		if result.SuccessCount != 1 || result.FailCount != 1 || result.Failures[0].Row != 1 {
			mt.Errorf("Expected the taken slug on row 1 to fail, got %+v", result)
		}
	})
}
