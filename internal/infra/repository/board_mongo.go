package repository

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/totegamma/messboard/internal/domain"
	"github.com/totegamma/messboard/internal/infra/database"
	"github.com/totegamma/messboard/internal/infra/database/models"
)

type MongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection(database.NotificationCollection)}
}

func (r *MongoNotificationRepository) Create(ctx context.Context, n domain.Notification) error {
	ctx, span := tracer.Start(ctx, "Notification.MongoRepository.Create")
	defer span.End()

	_, err := r.collection.InsertOne(ctx, models.Notification{
		ID:        n.ID,
		Message:   n.Message,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "MongoNotificationRepository.Create")
	}
	return nil
}

func (r *MongoNotificationRepository) ListRecent(ctx context.Context, limit int) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.MongoRepository.ListRecent")
	defer span.End()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "MongoNotificationRepository.ListRecent")
	}

	var rows []models.Notification
	if err := cursor.All(ctx, &rows); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "MongoNotificationRepository.ListRecent")
	}

	list := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		list = append(list, notificationToDomain(row))
	}
	return list, nil
}

type MongoIssueRepository struct {
	collection *mongo.Collection
}

func NewMongoIssueRepository(db *mongo.Database) *MongoIssueRepository {
	return &MongoIssueRepository{collection: db.Collection(database.IssueCollection)}
}

func (r *MongoIssueRepository) Create(ctx context.Context, issue domain.IssueReport) error {
	ctx, span := tracer.Start(ctx, "Issue.MongoRepository.Create")
	defer span.End()

	if _, err := r.collection.InsertOne(ctx, issueToModel(issue)); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "MongoIssueRepository.Create")
	}
	return nil
}
