// Package mongodb implements the user repository and the uid sequence
// allocator on top of the MongoDB store.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"proximity-service/internal/domain/user"
	pkgerrors "proximity-service/pkg/errors"
	"proximity-service/pkg/geo"
)

const collectionUsers = "users"

// UserRepoMongo implements the Repository interface using MongoDB.
// All reads project away the internal _id and the password digest; that
// projection is the sanitization boundary, callers never re-filter.
type UserRepoMongo struct {
	users *mongo.Collection
	log   *zap.Logger
}

// NewUserRepoMongo creates a new instance of UserRepoMongo.
func NewUserRepoMongo(db *mongo.Database, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{users: db.Collection(collectionUsers), log: log}
}

// userDocument represents the MongoDB document structure for a user.
type userDocument struct {
	UID         int64     `bson:"uid"`
	Name        string    `bson:"name"`
	Pass        string    `bson:"pass,omitempty"`
	Age         int       `bson:"age"`
	Gender      string    `bson:"gender"`
	LookingForM bool      `bson:"looking_for_m"`
	LookingForF bool      `bson:"looking_for_f"`
	Loc         geo.Point `bson:"loc"`
}

// readProjection hides _id and the password digest on every read.
func readProjection() bson.M {
	return bson.M{"_id": 0, "pass": 0}
}

func toDocument(u *user.User) userDocument {
	return userDocument{
		UID:         u.UID,
		Name:        u.Name,
		Pass:        u.PasswordHash,
		Age:         u.Age,
		Gender:      string(u.Gender),
		LookingForM: u.LookingForM,
		LookingForF: u.LookingForF,
		Loc:         u.Location,
	}
}

func toEntity(doc userDocument) user.User {
	return user.User{
		UID:         doc.UID,
		Name:        doc.Name,
		Age:         doc.Age,
		Gender:      user.Gender(doc.Gender),
		LookingForM: doc.LookingForM,
		LookingForF: doc.LookingForF,
		Location:    doc.Loc,
	}
}

// Insert stores a new user document and returns its uid.
func (r *UserRepoMongo) Insert(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	if _, err := r.users.InsertOne(ctx, toDocument(u)); err != nil {
		r.log.Error("failed to insert user", zap.Int64("uid", u.UID), zap.Error(err))
		return 0, pkgerrors.NewUnavailableError("failed to insert user", err)
	}

	r.log.Info("user stored", zap.Int64("uid", u.UID))
	return u.UID, nil
}

// FindByUID retrieves a single user by their uid.
func (r *UserRepoMongo) FindByUID(ctx context.Context, uid int64) (*user.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx,
		bson.M{"uid": uid},
		options.FindOne().SetProjection(readProjection()),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Warn("user not found", zap.Int64("uid", uid))
			return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: uid=%d", uid))
		}
		r.log.Error("failed to get user", zap.Int64("uid", uid), zap.Error(err))
		return nil, pkgerrors.NewUnavailableError("failed to get user", err)
	}

	u := toEntity(doc)
	return &u, nil
}

// FindAll retrieves every user document.
func (r *UserRepoMongo) FindAll(ctx context.Context) ([]user.User, error) {
	cursor, err := r.users.Find(ctx,
		bson.M{},
		options.Find().SetProjection(readProjection()),
	)
	if err != nil {
		r.log.Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewUnavailableError("failed to list users", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.log.Error("failed to decode users", zap.Error(err))
		return nil, pkgerrors.NewUnavailableError("failed to decode users", err)
	}

	users := make([]user.User, len(docs))
	for i, doc := range docs {
		users[i] = toEntity(doc)
	}
	return users, nil
}

// FindNear retrieves users within maxDistanceMeters of the given point.
// Distance math and result ordering (ascending distance) are entirely the
// store's: this method only shapes the $near query. The 2dsphere index on
// loc must exist or the query fails.
func (r *UserRepoMongo) FindNear(ctx context.Context, lon, lat, maxDistanceMeters float64) ([]user.User, error) {
	filter := bson.M{
		"loc": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        geo.PointType,
					"coordinates": []float64{lon, lat},
				},
				"$maxDistance": maxDistanceMeters,
			},
		},
	}

	cursor, err := r.users.Find(ctx,
		filter,
		options.Find().SetProjection(readProjection()),
	)
	if err != nil {
		r.log.Error("near query failed",
			zap.Float64("lon", lon), zap.Float64("lat", lat),
			zap.Float64("max_distance_m", maxDistanceMeters), zap.Error(err))
		return nil, pkgerrors.NewUnavailableError("near query failed", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.log.Error("failed to decode near results", zap.Error(err))
		return nil, pkgerrors.NewUnavailableError("failed to decode near results", err)
	}

	users := make([]user.User, len(docs))
	for i, doc := range docs {
		users[i] = toEntity(doc)
	}
	return users, nil
}

// UpdateByUID merges the given fields into the user document as a single
// atomic $set. The uid itself is structurally absent from a Patch, so an
// update can never reassign an identifier.
func (r *UserRepoMongo) UpdateByUID(ctx context.Context, uid int64, patch user.Patch) error {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.PasswordHash != nil {
		set["pass"] = *patch.PasswordHash
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}
	if patch.Gender != nil {
		set["gender"] = string(*patch.Gender)
	}
	if patch.LookingForM != nil {
		set["looking_for_m"] = *patch.LookingForM
	}
	if patch.LookingForF != nil {
		set["looking_for_f"] = *patch.LookingForF
	}
	if patch.Location != nil {
		set["loc"] = *patch.Location
	}

	if len(set) == 0 {
		return pkgerrors.NewValidationError("", "no fields to update")
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"uid": uid}, bson.M{"$set": set})
	if err != nil {
		r.log.Error("failed to update user", zap.Int64("uid", uid), zap.Error(err))
		return pkgerrors.NewUnavailableError("failed to update user", err)
	}
	if res.MatchedCount == 0 {
		r.log.Warn("user not found for update", zap.Int64("uid", uid))
		return pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: uid=%d", uid))
	}

	r.log.Info("user updated", zap.Int64("uid", uid))
	return nil
}

// FindByCredentials looks a user up by name and password digest. A miss
// returns (nil, nil) rather than an error: absence is an expected branch
// of the create-or-update flow, not a failure.
func (r *UserRepoMongo) FindByCredentials(ctx context.Context, name, passwordHash string) (*user.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx,
		bson.M{"name": name, "pass": passwordHash},
		options.FindOne().SetProjection(readProjection()),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("no user for credentials", zap.String("name", name))
			return nil, nil
		}
		r.log.Error("failed to query user by credentials", zap.String("name", name), zap.Error(err))
		return nil, pkgerrors.NewUnavailableError("failed to query user by credentials", err)
	}

	u := toEntity(doc)
	return &u, nil
}

// ClearAll removes every user document and drops the collection indexes.
// The geospatial index must be recreated with EnsureGeoIndex before any
// subsequent near query. Used only by the seed maintenance flow.
func (r *UserRepoMongo) ClearAll(ctx context.Context) error {
	if _, err := r.users.Indexes().DropAll(ctx); err != nil {
		// A collection that never existed has no indexes to drop.
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != 26 { // NamespaceNotFound
			r.log.Error("failed to drop user indexes", zap.Error(err))
			return pkgerrors.NewUnavailableError("failed to drop user indexes", err)
		}
	}

	if _, err := r.users.DeleteMany(ctx, bson.M{}); err != nil {
		r.log.Error("failed to clear users", zap.Error(err))
		return pkgerrors.NewUnavailableError("failed to clear users", err)
	}

	r.log.Info("user collection cleared")
	return nil
}

// EnsureGeoIndex creates the 2dsphere index on loc. Safe to call
// repeatedly; MongoDB treats an identical existing index as a no-op.
func (r *UserRepoMongo) EnsureGeoIndex(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "loc", Value: "2dsphere"}},
	})
	if err != nil {
		r.log.Error("failed to create geo index", zap.Error(err))
		return pkgerrors.NewUnavailableError("failed to create geo index", err)
	}
	return nil
}
