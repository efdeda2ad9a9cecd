package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MenuCollection         = "menus"
	NotificationCollection = "notifications"
	IssueCollection        = "issues"
)

func NewMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	return client, nil
}

// MigrateMongo creates the indexes the repositories rely on. The unique slot index
// is what turns racing upserts into duplicate-key errors instead of twin documents.
func MigrateMongo(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(MenuCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "hostel", Value: 1}, {Key: "mealType", Value: 1}, {Key: "menuDate", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_menu_slot"),
		},
		{
			Keys:    bson.D{{Key: "items._id", Value: 1}},
			Options: options.Index().SetName("menu_items_id"),
		},
		{
			Keys:    bson.D{{Key: "menuDate", Value: 1}},
			Options: options.Index().SetName("menu_date"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(NotificationCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("notification_created_at"),
	})
	return err
}
