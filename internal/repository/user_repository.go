package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/melody-camp/internal/database"
	"github.com/iliyamo/melody-camp/internal/model"
)

// UserRepo persists user documents.  Every method filters by the
// normalized email, the collection's natural key.
type UserRepo struct{ coll *mongo.Collection }

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(database.UsersCollection)}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, storeErr("find user", err)
	}
	return u, nil
}

// Insert stores a new user.  Set fields are initialised to empty arrays so
// later $addToSet/$pull updates always operate on arrays.
func (r *UserRepo) Insert(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleStudent
	}
	if u.SelectedClasses == nil {
		u.SelectedClasses = []string{}
	}
	if u.EnrolledClasses == nil {
		u.EnrolledClasses = []string{}
	}
	if u.Classes == nil {
		u.Classes = []string{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	if err != nil {
		return storeErr("insert user", err)
	}
	return nil
}

// List returns all users ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer cur.Close(ctx)
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, storeErr("decode users", err)
	}
	return users, nil
}

// SetRole overwrites the user's role.
func (r *UserRepo) SetRole(ctx context.Context, email string, role model.Role) error {
	return r.update(ctx, "set role", bson.M{"email": NormalizeEmail(email)},
		bson.M{"$set": bson.M{"role": role}})
}

// AddSelected adds classID to selectedClasses with set semantics.  The
// filter skips users already enrolled in the class, so a selection can never
// land next to an enrollment made concurrently; false reports that case.
func (r *UserRepo) AddSelected(ctx context.Context, email, classID string) (bool, error) {
	email = NormalizeEmail(email)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"email": email, "enrolledClasses": bson.M{"$ne": classID}},
		bson.M{"$addToSet": bson.M{"selectedClasses": classID}})
	if err != nil {
		return false, storeErr("select class", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	if _, err := r.FindByEmail(ctx, email); err != nil {
		return false, err
	}
	return false, nil
}

// RemoveSelected pulls classID from selectedClasses.  Pulling an absent id
// is not an error.
func (r *UserRepo) RemoveSelected(ctx context.Context, email, classID string) error {
	return r.update(ctx, "deselect class", bson.M{"email": NormalizeEmail(email)},
		bson.M{"$pull": bson.M{"selectedClasses": classID}})
}

// ClaimEnrollment moves classID from selectedClasses to enrolledClasses in a
// single document update.  The filter only matches while the class is not
// yet enrolled, so exactly one of several concurrent claims reports true.
func (r *UserRepo) ClaimEnrollment(ctx context.Context, email, classID string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"email": NormalizeEmail(email), "enrolledClasses": bson.M{"$ne": classID}},
		bson.M{
			"$addToSet": bson.M{"enrolledClasses": classID},
			"$pull":     bson.M{"selectedClasses": classID},
		})
	if err != nil {
		return false, storeErr("claim enrollment", err)
	}
	return res.MatchedCount == 1, nil
}

// ReleaseEnrollment undoes ClaimEnrollment.  When restoreSelection is true
// the class goes back into selectedClasses.
func (r *UserRepo) ReleaseEnrollment(ctx context.Context, email, classID string, restoreSelection bool) error {
	update := bson.M{"$pull": bson.M{"enrolledClasses": classID}}
	if restoreSelection {
		update["$addToSet"] = bson.M{"selectedClasses": classID}
	}
	return r.update(ctx, "release enrollment", bson.M{"email": NormalizeEmail(email)}, update)
}

// AddOwnedClass links a class to the instructor who created it.
func (r *UserRepo) AddOwnedClass(ctx context.Context, email, classID string) error {
	return r.update(ctx, "link class", bson.M{"email": NormalizeEmail(email)},
		bson.M{"$addToSet": bson.M{"classes": classID}})
}

func (r *UserRepo) update(ctx context.Context, op string, filter, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(op, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
