package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the repositories.
const (
	UsersCollection       = "users"
	ClassesCollection     = "classes"
	InstructorsCollection = "instructors"
)

// OpenMongo connects to the document store using the stable server API and
// pings the admin database before returning.  The returned client is shared
// read-only by every repository for the lifetime of the process.
func OpenMongo(uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(10 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the enrollment core relies on.  The
// unique email index turns a racing duplicate registration into a
// duplicate-key error instead of a second user document.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_users_email"),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	_, err = db.Collection(ClassesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "instructorEmail", Value: 1}}, Options: options.Index().SetName("idx_classes_instructor")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("idx_classes_status")},
		{Keys: bson.D{{Key: "enrolledStudents", Value: -1}}, Options: options.Index().SetName("idx_classes_enrolled")},
	})
	if err != nil {
		return fmt.Errorf("classes indexes: %w", err)
	}
	return nil
}
