package repository

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/iliyamo/melody-camp/internal/model"
)

func mockDB(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestUserRepo_FindByEmail(t *testing.T) {
	mt := mockDB(t)

	mt.Run("found", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "camp.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "a@x.com"},
			{Key: "role", Value: "admin"},
			{Key: "selectedClasses", Value: bson.A{"c1"}},
		}))
		u, err := repo.FindByEmail(context.Background(), " A@X.com ")
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if u.Email != "a@x.com" || u.Role != model.RoleAdmin || !u.HasSelected("c1") {
			mt.Errorf("unexpected user %+v", u)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "camp.users", mtest.FirstBatch))
		if _, err := repo.FindByEmail(context.Background(), "ghost@x.com"); !errors.Is(err, ErrUserNotFound) {
			mt.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad"}))
		if _, err := repo.FindByEmail(context.Background(), "a@x.com"); !errors.Is(err, ErrStoreUnavailable) {
			mt.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}

func TestUserRepo_Insert(t *testing.T) {
	mt := mockDB(t)

	mt.Run("ok", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		u := model.User{Email: "New@X.com"}
		if err := repo.Insert(context.Background(), &u); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if u.Email != "new@x.com" || u.Role != model.RoleStudent || u.ID.IsZero() {
			mt.Errorf("defaults not applied: %+v", u)
		}
		if u.SelectedClasses == nil || u.EnrolledClasses == nil || u.Classes == nil {
			mt.Error("class sets must be stored as empty arrays")
		}
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		if err := repo.Insert(context.Background(), &model.User{Email: "a@x.com"}); !errors.Is(err, ErrUserExists) {
			mt.Errorf("expected ErrUserExists, got %v", err)
		}
	})
}

func TestUserRepo_ClaimEnrollment(t *testing.T) {
	mt := mockDB(t)

	mt.Run("claimed", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(updated(1))
		ok, err := repo.ClaimEnrollment(context.Background(), "a@x.com", "c1")
		if err != nil || !ok {
			mt.Errorf("expected claim, got %v (%v)", ok, err)
		}
	})

	mt.Run("already enrolled", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(updated(0))
		ok, err := repo.ClaimEnrollment(context.Background(), "a@x.com", "c1")
		if err != nil || ok {
			mt.Errorf("expected no claim, got %v (%v)", ok, err)
		}
	})
}

func TestUserRepo_UpdateMissingUser(t *testing.T) {
	mt := mockDB(t)

	mt.Run("select", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(updated(0), mtest.CreateCursorResponse(0, "camp.users", mtest.FirstBatch))
		if _, err := repo.AddSelected(context.Background(), "ghost@x.com", "c1"); !errors.Is(err, ErrUserNotFound) {
			mt.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("role", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(updated(1))
		if err := repo.SetRole(context.Background(), "a@x.com", model.RoleAdmin); err != nil {
			mt.Errorf("unexpected error: %v", err)
		}
	})
}

func TestUserRepo_AddSelected(t *testing.T) {
	mt := mockDB(t)

	mt.Run("added", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(updated(1))
		ok, err := repo.AddSelected(context.Background(), "A@x.com", "c1")
		if err != nil || !ok {
			mt.Fatalf("expected selection, got %v (%v)", ok, err)
		}
		cmd := mt.GetStartedEvent().Command
		filter := cmd.Lookup("updates").Array().Index(0).Value().Document().Lookup("q").Document()
		if got := filter.Lookup("email").StringValue(); got != "a@x.com" {
			mt.Errorf("expected normalized email in filter, got %q", got)
		}
		if got := filter.Lookup("enrolledClasses", "$ne").StringValue(); got != "c1" {
			mt.Errorf("expected filter to exclude enrolled users, got %v", filter)
		}
	})

	mt.Run("already enrolled", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(updated(0), mtest.CreateCursorResponse(0, "camp.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "a@x.com"},
			{Key: "enrolledClasses", Value: bson.A{"c1"}},
		}))
		ok, err := repo.AddSelected(context.Background(), "a@x.com", "c1")
		if err != nil || ok {
			mt.Errorf("expected no selection, got %v (%v)", ok, err)
		}
	})
}

func TestStoreErr_KeepsDriverLabels(t *testing.T) {
	cause := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}
	err := storeErr("claim enrollment", cause)

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	var labeled mongo.LabeledError
	if !errors.As(err, &labeled) || !labeled.HasErrorLabel("TransientTransactionError") {
		t.Errorf("transient label lost in %v", err)
	}
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != 112 {
		t.Errorf("command error not reachable from %v", err)
	}
	if errors.Is(storeErr("x", errors.New("boom")), ErrUserNotFound) {
		t.Error("store error matched an unrelated sentinel")
	}
}

func TestUserRepo_ServerErrorKeepsLabels(t *testing.T) {
	mt := mockDB(t)

	mt.Run("write conflict", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    112,
			Name:    "WriteConflict",
			Message: "write conflict",
			Labels:  []string{"TransientTransactionError"},
		}))
		_, err := repo.ClaimEnrollment(context.Background(), "a@x.com", "c1")
		if !errors.Is(err, ErrStoreUnavailable) {
			mt.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
		var labeled mongo.LabeledError
		if !errors.As(err, &labeled) || !labeled.HasErrorLabel("TransientTransactionError") {
			mt.Errorf("transient label lost in %v", err)
		}
	})
}

func TestClassRepo_IncrementEnrolled(t *testing.T) {
	mt := mockDB(t)
	id := primitive.NewObjectID().Hex()

	mt.Run("seat free", func(mt *mtest.T) {
		repo := NewClassRepo(mt.DB)
		mt.AddMockResponses(updated(1))
		ok, err := repo.IncrementEnrolled(context.Background(), id)
		if err != nil || !ok {
			mt.Errorf("expected increment, got %v (%v)", ok, err)
		}
	})

	mt.Run("full", func(mt *mtest.T) {
		repo := NewClassRepo(mt.DB)
		mt.AddMockResponses(updated(0))
		ok, err := repo.IncrementEnrolled(context.Background(), id)
		if err != nil || ok {
			mt.Errorf("expected no increment, got %v (%v)", ok, err)
		}
	})

	mt.Run("bad id", func(mt *mtest.T) {
		repo := NewClassRepo(mt.DB)
		if _, err := repo.IncrementEnrolled(context.Background(), "nope"); !errors.Is(err, ErrInvalidID) {
			mt.Errorf("expected ErrInvalidID, got %v", err)
		}
	})
}

func TestClassRepo_FindByIDsSkipsInvalid(t *testing.T) {
	mt := mockDB(t)

	mt.Run("only garbage", func(mt *mtest.T) {
		repo := NewClassRepo(mt.DB)
		got, err := repo.FindByIDs(context.Background(), []string{"x", ""})
		if err != nil || len(got) != 0 {
			mt.Errorf("expected empty result without a query, got %v (%v)", got, err)
		}
	})

	mt.Run("mixed", func(mt *mtest.T) {
		repo := NewClassRepo(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "camp.classes", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Piano"},
			{Key: "availableSeats", Value: 10},
		}))
		got, err := repo.FindByIDs(context.Background(), []string{oid.Hex(), "garbage"})
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Piano" {
			mt.Errorf("unexpected classes %+v", got)
		}
	})
}

func TestClassRepo_SetStatusMissing(t *testing.T) {
	mt := mockDB(t)

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewClassRepo(mt.DB)
		mt.AddMockResponses(updated(0))
		err := repo.SetStatus(context.Background(), primitive.NewObjectID().Hex(), model.StatusApproved)
		if !errors.Is(err, ErrClassNotFound) {
			mt.Errorf("expected ErrClassNotFound, got %v", err)
		}
	})
}

func TestInstructorRepo_Ranking(t *testing.T) {
	mt := mockDB(t)

	mt.Run("decodes rows", func(mt *mtest.T) {
		repo := NewInstructorRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "camp.instructors", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "B"}, {Key: "email", Value: "b@x.com"}, {Key: "classCount", Value: 1}, {Key: "totalStudents", Value: 10}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "A"}, {Key: "email", Value: "a@x.com"}, {Key: "classCount", Value: 2}, {Key: "totalStudents", Value: 7}},
		))
		got, err := repo.Ranking(context.Background(), 6)
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0].Email != "b@x.com" || got[0].TotalStudents != 10 || got[1].ClassCount != 2 {
			mt.Errorf("unexpected ranking %+v", got)
		}
	})
}

func TestRankingPipelineShape(t *testing.T) {
	p := rankingPipeline(6)
	want := []string{"$lookup", "$addFields", "$project", "$sort", "$limit"}
	if len(p) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(p))
	}
	for i, stage := range p {
		if stage[0].Key != want[i] {
			t.Errorf("stage %d: expected %s, got %s", i, want[i], stage[0].Key)
		}
	}
	sort := p[3][0].Value.(bson.D)
	if sort[0].Key != "totalStudents" || sort[0].Value != -1 {
		t.Errorf("expected descending totalStudents sort, got %v", sort)
	}
	if p[4][0].Value != int64(6) {
		t.Errorf("expected limit 6, got %v", p[4][0].Value)
	}
}
