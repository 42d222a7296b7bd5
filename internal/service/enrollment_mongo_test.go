package service_test

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/repository"
	"github.com/iliyamo/melody-camp/internal/service"
)

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestEnrollment_TransientConflictRetriesTransaction(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("retried", func(mt *mtest.T) {
		classID := primitive.NewObjectID()
		userDoc := mtest.CreateCursorResponse(0, "camp.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "a@x.com"},
			{Key: "selectedClasses", Value: bson.A{}},
			{Key: "enrolledClasses", Value: bson.A{}},
		})
		classDoc := mtest.CreateCursorResponse(0, "camp.classes", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: classID},
			{Key: "name", Value: "Piano"},
			{Key: "status", Value: string(model.StatusApproved)},
			{Key: "availableSeats", Value: 5},
			{Key: "enrolledStudents", Value: 2},
		})
		conflict := mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    112,
			Name:    "WriteConflict",
			Message: "write conflict",
			Labels:  []string{"TransientTransactionError"},
		})

		mt.AddMockResponses(
			// first attempt: the seat increment hits a write conflict
			userDoc, classDoc, updated(1), conflict, updated(1),
			mtest.CreateSuccessResponse(), // abortTransaction
			// second attempt commits
			userDoc, classDoc, updated(1), updated(1),
			mtest.CreateSuccessResponse(), // commitTransaction
		)

		svc := service.NewEnrollmentService(
			repository.NewUserRepo(mt.DB),
			repository.NewClassRepo(mt.DB),
			repository.NewTxRunner(mt.Client, true),
			nil,
		)
		res, err := svc.Enroll(context.Background(), "a@x.com", classID.Hex())
		if err != nil {
			mt.Fatalf("expected the transaction to be retried, got %v", err)
		}
		if res.AlreadyEnrolled || res.Class.EnrolledStudents != 3 {
			mt.Errorf("unexpected result %+v", res)
		}

		counts := map[string]int{}
		for _, evt := range mt.GetAllStartedEvents() {
			counts[evt.CommandName]++
		}
		if counts["abortTransaction"] != 1 || counts["commitTransaction"] != 1 {
			mt.Errorf("expected one abort and one commit, got %v", counts)
		}
		if counts["update"] != 5 {
			mt.Errorf("expected five updates across both attempts, got %d", counts["update"])
		}
	})
}
