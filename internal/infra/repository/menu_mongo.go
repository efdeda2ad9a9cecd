package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/totegamma/messboard/internal/domain"
	"github.com/totegamma/messboard/internal/infra/database"
	"github.com/totegamma/messboard/internal/infra/database/models"
)

// MongoMenuRepository keeps each menu as one document with its items embedded,
// mutated only through single-document array operators.
type MongoMenuRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoMenuRepository(client *mongo.Client, db *mongo.Database) *MongoMenuRepository {
	return &MongoMenuRepository{
		client:     client,
		collection: db.Collection(database.MenuCollection),
	}
}

func (r *MongoMenuRepository) UpsertAppend(ctx context.Context, slot domain.MenuSlot, item domain.MenuItem) (domain.MenuDocument, error) {
	ctx, span := tracer.Start(ctx, "Menu.MongoRepository.UpsertAppend")
	defer span.End()

	now := time.Now().UTC()
	filter := bson.M{
		"hostel":   string(slot.Hostel),
		"mealType": string(slot.MealType),
		"menuDate": slot.MenuDate.String(),
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"day":       slot.MenuDate.Weekday(),
			"createdAt": now,
		},
		"$set": bson.M{
			"status":    string(domain.StatusPublished),
			"updatedAt": now,
		},
		"$push": bson.M{
			"items": itemToModel(item),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var menu models.Menu
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&menu)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = domain.ConflictError{Resource: "menu"}
		}
		span.RecordError(err)
		return domain.MenuDocument{}, errors.Wrap(err, "MongoMenuRepository.UpsertAppend")
	}

	return menuToDomain(menu), nil
}

func (r *MongoMenuRepository) ListByDay(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, error) {
	ctx, span := tracer.Start(ctx, "Menu.MongoRepository.ListByDay")
	defer span.End()

	filter := bson.M{"menuDate": day.String()}
	if hostel != "" {
		filter["hostel"] = string(hostel)
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "hostel", Value: 1}}))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "MongoMenuRepository.ListByDay")
	}

	var rows []models.Menu
	if err := cursor.All(ctx, &rows); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "MongoMenuRepository.ListByDay")
	}

	docs := make([]domain.MenuDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, menuToDomain(row))
	}
	return docs, nil
}

func (r *MongoMenuRepository) FindItem(ctx context.Context, itemID string) (domain.ItemLocation, error) {
	ctx, span := tracer.Start(ctx, "Menu.MongoRepository.FindItem")
	defer span.End()

	var menu models.Menu
	err := r.collection.FindOne(ctx, bson.M{"items._id": itemID}).Decode(&menu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = domain.NotFoundError{Resource: "item"}
		}
		span.RecordError(err)
		return domain.ItemLocation{}, errors.Wrap(err, "MongoMenuRepository.FindItem")
	}

	for _, it := range menu.Items {
		if it.ID == itemID {
			return domain.ItemLocation{
				MenuID: menu.ID,
				Slot: domain.MenuSlot{
					Hostel:   domain.Hostel(menu.Hostel),
					MealType: domain.MealType(menu.MealType),
					MenuDate: domain.DayKey(menu.MenuDate),
				},
				Item: itemToDomain(it),
			}, nil
		}
	}

	// pulled between the match and the decode
	return domain.ItemLocation{}, domain.NotFoundError{Resource: "item"}
}

func (r *MongoMenuRepository) PullItem(ctx context.Context, itemID string) error {
	ctx, span := tracer.Start(ctx, "Menu.MongoRepository.PullItem")
	defer span.End()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"items._id": itemID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"_id": itemID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "MongoMenuRepository.PullItem")
	}
	if result.MatchedCount == 0 || result.ModifiedCount == 0 {
		return domain.NotFoundError{Resource: "item"}
	}
	return nil
}

func (r *MongoMenuRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
