package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/melody-camp/internal/database"
	"github.com/iliyamo/melody-camp/internal/model"
)

// ClassRepo persists class documents.
type ClassRepo struct{ coll *mongo.Collection }

func NewClassRepo(db *mongo.Database) *ClassRepo {
	return &ClassRepo{coll: db.Collection(database.ClassesCollection)}
}

// ParseClassID converts a hex id into an ObjectID.
func ParseClassID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// Insert stores a new class and assigns its id.
func (r *ClassRepo) Insert(ctx context.Context, c *model.Class) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return storeErr("insert class", err)
	}
	return nil
}

// FindByID fetches a single class.
func (r *ClassRepo) FindByID(ctx context.Context, id string) (model.Class, error) {
	oid, err := ParseClassID(id)
	if err != nil {
		return model.Class{}, err
	}
	var c model.Class
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Class{}, ErrClassNotFound
	}
	if err != nil {
		return model.Class{}, storeErr("find class", err)
	}
	return c, nil
}

// FindByIDs resolves an id set against the collection.  Ids that are not
// valid object ids or no longer exist are dropped.
func (r *ClassRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Class, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []model.Class{}, nil
	}
	return r.find(ctx, "find classes by id", bson.M{"_id": bson.M{"$in": oids}}, nil)
}

// ListByStatus returns classes with the given review status.
func (r *ClassRepo) ListByStatus(ctx context.Context, status model.ClassStatus) ([]model.Class, error) {
	return r.find(ctx, "list classes", bson.M{"status": status}, nil)
}

// ListAll returns every class regardless of status.
func (r *ClassRepo) ListAll(ctx context.Context) ([]model.Class, error) {
	return r.find(ctx, "list classes", bson.M{}, nil)
}

// ListByInstructor returns the classes created by one instructor.
func (r *ClassRepo) ListByInstructor(ctx context.Context, email string) ([]model.Class, error) {
	return r.find(ctx, "list instructor classes", bson.M{"instructorEmail": NormalizeEmail(email)}, nil)
}

// Popular returns the classes with the most enrolled students.  Ties fall
// back to insertion order.
func (r *ClassRepo) Popular(ctx context.Context, limit int64) ([]model.Class, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "enrolledStudents", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	return r.find(ctx, "popular classes", bson.M{}, opts)
}

// IncrementEnrolled adds one to the seat counter if a seat is free.  It
// returns false when the class is full or gone; the check and the increment
// are a single atomic document update.
func (r *ClassRepo) IncrementEnrolled(ctx context.Context, id string) (bool, error) {
	oid, err := ParseClassID(id)
	if err != nil {
		return false, err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{
			"_id":   oid,
			"$expr": bson.M{"$lt": bson.A{"$enrolledStudents", "$availableSeats"}},
		},
		bson.M{"$inc": bson.M{"enrolledStudents": 1}})
	if err != nil {
		return false, storeErr("increment enrolled", err)
	}
	return res.MatchedCount == 1, nil
}

// SetStatus overwrites the review status of a class.
func (r *ClassRepo) SetStatus(ctx context.Context, id string, status model.ClassStatus) error {
	oid, err := ParseClassID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return storeErr("set class status", err)
	}
	if res.MatchedCount == 0 {
		return ErrClassNotFound
	}
	return nil
}

func (r *ClassRepo) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]model.Class, error) {
	if opts == nil {
		opts = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer cur.Close(ctx)
	classes := []model.Class{}
	if err := cur.All(ctx, &classes); err != nil {
		return nil, storeErr(op, err)
	}
	return classes, nil
}
