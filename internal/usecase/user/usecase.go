package user

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	domain "proximity-service/internal/domain/user"
	pkgerrors "proximity-service/pkg/errors"
	"proximity-service/pkg/geo"
	"proximity-service/pkg/hash"

	"github.com/go-playground/validator/v10"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer; the production implementation lives in
// internal/adapter/db/mongodb. Implementations must sanitize on read:
// no password digest, no store-internal id.
type Repository interface {
	Insert(ctx context.Context, u *domain.User) (int64, error)                          // Store a new user document
	FindByUID(ctx context.Context, uid int64) (*domain.User, error)                     // Retrieve user by uid
	FindAll(ctx context.Context) ([]domain.User, error)                                 // Retrieve all users
	FindNear(ctx context.Context, lon, lat, maxDistanceMeters float64) ([]domain.User, error) // Geospatial near query, store-ordered
	UpdateByUID(ctx context.Context, uid int64, patch domain.Patch) error               // Atomic partial update
	FindByCredentials(ctx context.Context, name, passwordHash string) (*domain.User, error) // (nil, nil) on miss
	ClearAll(ctx context.Context) error                                                 // Remove all users and their indexes
	EnsureGeoIndex(ctx context.Context) error                                           // Idempotent 2dsphere index creation
}

// Sequence defines the interface for uid allocation.
type Sequence interface {
	NextUID(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// Config carries the deployment constants the usecase depends on.
type Config struct {
	DefaultRadiusMeters float64 // radius applied to proximity queries
	AllowCustomRadius   bool    // whether a caller-supplied radius is honored (dev only)
}

// usecase implements the business logic for user management operations.
type usecase struct {
	repo     Repository
	seq      Sequence
	cfg      Config
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new user Usecase with the provided repository, sequence
// allocator, configuration and logger.
func New(r Repository, s Sequence, cfg Config, log *zap.Logger) Usecase {
	return &usecase{repo: r, seq: s, cfg: cfg, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a human-readable error.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		case "len":
			messages = append(messages, fmt.Sprintf("%s must have exactly %s elements", e.Field(), e.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		case "gt", "gte":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "lte":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
}

// toDTO converts a stored user into the sanitized external representation,
// translating the GeoJSON point back into a bare [lon, lat] pair.
func toDTO(u *domain.User) (*User, error) {
	coords, err := u.Location.Coords()
	if err != nil {
		return nil, err
	}
	return &User{
		UID:         u.UID,
		Name:        u.Name,
		Age:         u.Age,
		Gender:      string(u.Gender),
		LookingForM: u.LookingForM,
		LookingForF: u.LookingForF,
		Loc:         coords,
	}, nil
}

// CreateUser resolves the create-or-update decision table and returns the
// re-fetched, sanitized user.
//
//	uid supplied                    -> update that user
//	name+password match an existing -> update the matched user
//	otherwise                       -> allocate a uid and create
//
// The second branch makes re-registration with the same credentials
// idempotent: it updates the existing user instead of duplicating it.
func (uc *usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	uc.log.Info("creating or updating user", zap.Int64("uid", in.UID), zap.String("name", in.Name))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	targetUID := in.UID
	if targetUID == 0 && in.Name != "" && in.Password != "" {
		existing, err := uc.repo.FindByCredentials(ctx, in.Name, hash.Sum(in.Password))
		if err != nil {
			uc.log.Error("failed to resolve user by credentials", zap.String("name", in.Name), zap.Error(err))
			return nil, err
		}
		if existing != nil {
			uc.log.Info("credentials match existing user, updating instead",
				zap.String("name", in.Name), zap.Int64("uid", existing.UID))
			targetUID = existing.UID
		}
	}

	if targetUID != 0 {
		patch, err := buildPatch(in.Name, in.Password, in.Age, in.Gender, in.LookingForM, in.LookingForF, in.Loc)
		if err != nil {
			return nil, err
		}
		if !patch.IsEmpty() {
			if err := uc.repo.UpdateByUID(ctx, targetUID, patch); err != nil {
				return nil, err
			}
		}
		return uc.GetUser(ctx, targetUID)
	}

	// Plain creation: the full profile is required.
	if in.Name == "" {
		return nil, pkgerrors.NewValidationError("name", "name is required")
	}
	if len(in.Loc) == 0 {
		return nil, pkgerrors.NewValidationError("loc", "loc is required")
	}
	point, err := geo.PointFromCoords(in.Loc)
	if err != nil {
		return nil, err
	}

	uid, err := uc.seq.NextUID(ctx)
	if err != nil {
		uc.log.Error("failed to allocate uid", zap.Error(err))
		return nil, err
	}

	u := &domain.User{
		UID:      uid,
		Name:     in.Name,
		Location: point,
	}
	if in.Password != "" {
		u.PasswordHash = hash.Sum(in.Password)
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
	if in.Gender != nil {
		u.Gender = domain.Gender(*in.Gender)
	}
	if in.LookingForM != nil {
		u.LookingForM = *in.LookingForM
	}
	if in.LookingForF != nil {
		u.LookingForF = *in.LookingForF
	}

	if _, err := uc.repo.Insert(ctx, u); err != nil {
		return nil, err
	}

	uc.log.Info("user created", zap.Int64("uid", uid))
	return uc.GetUser(ctx, uid)
}

// UpdateUser merges the supplied fields into an existing user and returns
// the re-fetched, sanitized result. A uid in the payload can never change
// the identifier: the patch structurally has no uid field.
func (uc *usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	uc.log.Info("updating user", zap.Int64("uid", in.UID))

	if in.UID <= 0 {
		return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: uid=%d", in.UID))
	}

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	name, password := "", ""
	if in.Name != nil {
		name = *in.Name
	}
	if in.Password != nil {
		password = *in.Password
	}
	patch, err := buildPatch(name, password, in.Age, in.Gender, in.LookingForM, in.LookingForF, in.Loc)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, pkgerrors.NewValidationError("", "no fields to update")
	}

	if err := uc.repo.UpdateByUID(ctx, in.UID, patch); err != nil {
		return nil, err
	}

	return uc.GetUser(ctx, in.UID)
}

// buildPatch assembles a partial update from the supplied fields. The
// location is re-converted to storage form on every update.
func buildPatch(name, password string, age *int, gender *string, lookingForM, lookingForF *bool, loc []float64) (domain.Patch, error) {
	var patch domain.Patch
	if name != "" {
		patch.Name = &name
	}
	if password != "" {
		digest := hash.Sum(password)
		patch.PasswordHash = &digest
	}
	patch.Age = age
	if gender != nil {
		g := domain.Gender(*gender)
		patch.Gender = &g
	}
	patch.LookingForM = lookingForM
	patch.LookingForF = lookingForF
	if len(loc) > 0 {
		point, err := geo.PointFromCoords(loc)
		if err != nil {
			return domain.Patch{}, err
		}
		patch.Location = &point
	}
	return patch, nil
}

// GetUser retrieves a single sanitized user by uid. Uids are issued by
// the allocator starting at 1, so a non-positive uid can never exist and
// is answered as absent without a store round trip.
func (uc *usecase) GetUser(ctx context.Context, uid int64) (*User, error) {
	if uid <= 0 {
		uc.log.Warn("get user for uid that can never exist", zap.Int64("uid", uid))
		return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: uid=%d", uid))
	}

	u, err := uc.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	return toDTO(u)
}

// ListUsers retrieves every user, sanitized.
func (uc *usecase) ListUsers(ctx context.Context) ([]User, error) {
	stored, err := uc.repo.FindAll(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, 0, len(stored))
	for i := range stored {
		dto, err := toDTO(&stored[i])
		if err != nil {
			return nil, err
		}
		users = append(users, *dto)
	}
	return users, nil
}

// FindUsersNear resolves the subject's location and asks the store for
// users within the deployment radius, in the store's ascending-distance
// order. The subject never appears in its own result.
func (uc *usecase) FindUsersNear(ctx context.Context, in FindUsersNearRequest) ([]User, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	if in.UID <= 0 {
		uc.log.Warn("near query for uid that can never exist", zap.Int64("uid", in.UID))
		return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: uid=%d", in.UID))
	}

	subject, err := uc.repo.FindByUID(ctx, in.UID)
	if err != nil {
		return nil, err
	}
	coords, err := subject.Location.Coords()
	if err != nil {
		return nil, err
	}

	radius := uc.cfg.DefaultRadiusMeters
	if in.RadiusMeters > 0 && uc.cfg.AllowCustomRadius {
		radius = in.RadiusMeters
	}

	uc.log.Info("finding users near",
		zap.Int64("uid", in.UID),
		zap.Float64("lon", coords[0]), zap.Float64("lat", coords[1]),
		zap.Float64("radius_m", radius))

	nearby, err := uc.repo.FindNear(ctx, coords[0], coords[1], radius)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(nearby))
	for i := range nearby {
		if nearby[i].UID == subject.UID {
			continue
		}
		dto, err := toDTO(&nearby[i])
		if err != nil {
			return nil, err
		}
		users = append(users, *dto)
	}
	return users, nil
}

// SeedSampleData clears the store, recreates the geo index and inserts
// count synthetic users clustered around the given centers. Maintenance
// and demo bootstrapping only; not part of the production contract.
func (uc *usecase) SeedSampleData(ctx context.Context, count int, centers [][]float64) ([]User, error) {
	if count <= 0 {
		return nil, pkgerrors.NewValidationError("count", "count must be positive")
	}
	if len(centers) == 0 {
		return nil, pkgerrors.NewValidationError("centers", "at least one center is required")
	}
	for _, c := range centers {
		if len(c) != 2 {
			return nil, pkgerrors.NewValidationError("centers", "each center must be a [longitude, latitude] pair")
		}
	}

	uc.log.Info("seeding sample data", zap.Int("count", count), zap.Int("centers", len(centers)))

	if err := uc.repo.ClearAll(ctx); err != nil {
		return nil, err
	}
	if err := uc.seq.Reset(ctx); err != nil {
		return nil, err
	}
	if err := uc.repo.EnsureGeoIndex(ctx); err != nil {
		return nil, err
	}

	for i := 0; i < count; i++ {
		center := centers[i%len(centers)]
		// Spread users up to roughly 2 km around the center.
		lon := center[0] + (rand.Float64()-0.5)*0.04
		lat := center[1] + (rand.Float64()-0.5)*0.02

		gender := domain.GenderMale
		if rand.Intn(2) == 1 {
			gender = domain.GenderFemale
		}

		uid, err := uc.seq.NextUID(ctx)
		if err != nil {
			return nil, err
		}

		u := &domain.User{
			UID:          uid,
			Name:         fmt.Sprintf("TestUser%d", i+1),
			PasswordHash: hash.Sum(fmt.Sprintf("pass%d", i+1)),
			Age:          18 + rand.Intn(30),
			Gender:       gender,
			LookingForM:  rand.Intn(2) == 1,
			LookingForF:  rand.Intn(2) == 1,
			Location:     geo.Point{Type: geo.PointType, Coordinates: []float64{lon, lat}},
		}
		if _, err := uc.repo.Insert(ctx, u); err != nil {
			return nil, err
		}
	}

	return uc.ListUsers(ctx)
}
