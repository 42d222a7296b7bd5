package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/melody-camp/internal/database"
	"github.com/iliyamo/melody-camp/internal/model"
)

// InstructorRepo reads the instructors collection.
type InstructorRepo struct{ coll *mongo.Collection }

func NewInstructorRepo(db *mongo.Database) *InstructorRepo {
	return &InstructorRepo{coll: db.Collection(database.InstructorsCollection)}
}

// List returns every instructor.
func (r *InstructorRepo) List(ctx context.Context) ([]model.Instructor, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storeErr("list instructors", err)
	}
	defer cur.Close(ctx)
	out := []model.Instructor{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr("decode instructors", err)
	}
	return out, nil
}

// rankingPipeline joins classes on instructorEmail, sums their seat
// counters and keeps the top rows.  Instructors without classes rank with
// a total of zero.
func rankingPipeline(limit int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: database.ClassesCollection},
			{Key: "localField", Value: "email"},
			{Key: "foreignField", Value: "instructorEmail"},
			{Key: "as", Value: "classes"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "totalStudents", Value: bson.D{{Key: "$sum", Value: "$classes.enrolledStudents"}}},
			{Key: "classCount", Value: bson.D{{Key: "$size", Value: "$classes"}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "classes", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalStudents", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// Ranking runs the join-sum-sort aggregation.
func (r *InstructorRepo) Ranking(ctx context.Context, limit int64) ([]model.InstructorRanking, error) {
	cur, err := r.coll.Aggregate(ctx, rankingPipeline(limit))
	if err != nil {
		return nil, storeErr("rank instructors", err)
	}
	defer cur.Close(ctx)
	out := []model.InstructorRanking{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr("decode ranking", err)
	}
	return out, nil
}
