package user

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	domain "proximity-service/internal/domain/user"
	pkgerrors "proximity-service/pkg/errors"
	"proximity-service/pkg/geo"
	"proximity-service/pkg/hash"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Insert(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) FindByUID(ctx context.Context, uid int64) (*domain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) FindNear(ctx context.Context, lon, lat, maxDistanceMeters float64) ([]domain.User, error) {
	args := m.Called(ctx, lon, lat, maxDistanceMeters)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) UpdateByUID(ctx context.Context, uid int64, patch domain.Patch) error {
	args := m.Called(ctx, uid, patch)
	return args.Error(0)
}

func (m *MockRepository) FindByCredentials(ctx context.Context, name, passwordHash string) (*domain.User, error) {
	args := m.Called(ctx, name, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) EnsureGeoIndex(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSequence is a mock implementation of the Sequence interface
type MockSequence struct {
	mock.Mock
}

func (m *MockSequence) NextUID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSequence) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupTestUsecase(t *testing.T) (Usecase, *MockRepository, *MockSequence) {
	mockRepo := new(MockRepository)
	mockSeq := new(MockSequence)
	logger := zaptest.NewLogger(t)
	uc := New(mockRepo, mockSeq, Config{DefaultRadiusMeters: 10000, AllowCustomRadius: false}, logger)
	return uc, mockRepo, mockSeq
}

func storedUser(uid int64, lon, lat float64) *domain.User {
	return &domain.User{
		UID:         uid,
		Name:        "Jos",
		Age:         23,
		Gender:      domain.GenderMale,
		LookingForF: true,
		Location:    geo.Point{Type: geo.PointType, Coordinates: []float64{lon, lat}},
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

// ==================== CREATE USER TESTS ====================

func TestCreateUser_CreatesNewUser(t *testing.T) {
	uc, mockRepo, mockSeq := setupTestUsecase(t)
	ctx := context.Background()

	req := CreateUserRequest{
		Name:        "Jos",
		Password:    "secret",
		Age:         intPtr(23),
		Gender:      strPtr("m"),
		LookingForF: boolPtr(true),
		Loc:         []float64{3.91, 51.01},
	}

	mockRepo.On("FindByCredentials", ctx, "Jos", hash.Sum("secret")).Return(nil, nil)
	mockSeq.On("NextUID", ctx).Return(int64(1), nil)
	mockRepo.On("Insert", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.UID == 1 &&
			u.Name == "Jos" &&
			u.PasswordHash == hash.Sum("secret") &&
			u.PasswordHash != "secret" &&
			u.Location.Type == geo.PointType &&
			u.Location.Coordinates[0] == 3.91 && u.Location.Coordinates[1] == 51.01
	})).Return(int64(1), nil)
	mockRepo.On("FindByUID", ctx, int64(1)).Return(storedUser(1, 3.91, 51.01), nil)

	resp, err := uc.CreateUser(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.UID)
	assert.Equal(t, []float64{3.91, 51.01}, resp.Loc)

	mockRepo.AssertExpectations(t)
	mockSeq.AssertExpectations(t)
}

func TestCreateUser_MatchingCredentialsUpdateInsteadOfDuplicate(t *testing.T) {
	uc, mockRepo, mockSeq := setupTestUsecase(t)
	ctx := context.Background()

	req := CreateUserRequest{
		Name:     "Jos",
		Password: "secret",
		Age:      intPtr(24),
		Loc:      []float64{3.92, 51.02},
	}

	mockRepo.On("FindByCredentials", ctx, "Jos", hash.Sum("secret")).
		Return(storedUser(7, 3.91, 51.01), nil)
	mockRepo.On("UpdateByUID", ctx, int64(7), mock.MatchedBy(func(p domain.Patch) bool {
		return p.Age != nil && *p.Age == 24 && p.Location != nil
	})).Return(nil)
	mockRepo.On("FindByUID", ctx, int64(7)).Return(storedUser(7, 3.92, 51.02), nil)

	resp, err := uc.CreateUser(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), resp.UID)

	// No new uid was allocated and nothing was inserted.
	mockSeq.AssertNotCalled(t, "NextUID", mock.Anything)
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_WithUIDUpdatesExisting(t *testing.T) {
	uc, mockRepo, mockSeq := setupTestUsecase(t)
	ctx := context.Background()

	req := CreateUserRequest{
		UID:  3,
		Name: "Jef",
		Loc:  []float64{4.0, 52.0},
	}

	mockRepo.On("UpdateByUID", ctx, int64(3), mock.Anything).Return(nil)
	mockRepo.On("FindByUID", ctx, int64(3)).Return(storedUser(3, 4.0, 52.0), nil)

	resp, err := uc.CreateUser(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), resp.UID)

	mockSeq.AssertNotCalled(t, "NextUID", mock.Anything)
	mockRepo.AssertNotCalled(t, "FindByCredentials", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_WithUIDNotFound(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	notFound := pkgerrors.NewNotFoundError("user", "user not found: uid=99")
	mockRepo.On("UpdateByUID", ctx, int64(99), mock.Anything).Return(notFound)

	resp, err := uc.CreateUser(ctx, CreateUserRequest{UID: 99, Name: "Ghost"})

	assert.Error(t, err)
	assert.Nil(t, resp)

	var nferr *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

func TestCreateUser_InvalidLocation(t *testing.T) {
	uc, _, _ := setupTestUsecase(t)
	ctx := context.Background()

	resp, err := uc.CreateUser(ctx, CreateUserRequest{
		Name: "Jos",
		Loc:  []float64{3.91, 51.01, 7.0},
	})

	assert.Error(t, err)
	assert.Nil(t, resp)

	var verr *pkgerrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateUser_MissingName(t *testing.T) {
	uc, _, _ := setupTestUsecase(t)
	ctx := context.Background()

	resp, err := uc.CreateUser(ctx, CreateUserRequest{Loc: []float64{3.91, 51.01}})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestCreateUser_AllocatorFailure(t *testing.T) {
	uc, mockRepo, mockSeq := setupTestUsecase(t)
	ctx := context.Background()

	mockSeq.On("NextUID", ctx).
		Return(int64(0), pkgerrors.NewUnavailableError("failed to allocate uid", nil))

	resp, err := uc.CreateUser(ctx, CreateUserRequest{
		Name: "Jos",
		Loc:  []float64{3.91, 51.01},
	})

	assert.Error(t, err)
	assert.Nil(t, resp)

	var uerr *pkgerrors.UnavailableError
	assert.ErrorAs(t, err, &uerr)

	// No id was fabricated, nothing was stored.
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// ==================== UPDATE USER TESTS ====================

func TestUpdateUser_Success(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("UpdateByUID", ctx, int64(1), mock.MatchedBy(func(p domain.Patch) bool {
		return p.Name != nil && *p.Name == "Updated" &&
			p.PasswordHash != nil && *p.PasswordHash == hash.Sum("newpass") &&
			p.Location != nil && p.Location.Coordinates[0] == 3.92
	})).Return(nil)
	mockRepo.On("FindByUID", ctx, int64(1)).Return(storedUser(1, 3.92, 51.02), nil)

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{
		UID:      1,
		Name:     strPtr("Updated"),
		Password: strPtr("newpass"),
		Loc:      []float64{3.92, 51.02},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), resp.UID)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_NotFound(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	notFound := pkgerrors.NewNotFoundError("user", "user not found: uid=999")
	mockRepo.On("UpdateByUID", ctx, int64(999), mock.Anything).Return(notFound)

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{UID: 999, Age: intPtr(30)})

	assert.Error(t, err)
	assert.Nil(t, resp)

	var nferr *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

func TestUpdateUser_EmptyPatch(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{UID: 1})

	assert.Error(t, err)
	assert.Nil(t, resp)

	var verr *pkgerrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	mockRepo.AssertNotCalled(t, "UpdateByUID", mock.Anything, mock.Anything, mock.Anything)
}

// ==================== GET / LIST TESTS ====================

func TestGetUser_NotFound(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	notFound := pkgerrors.NewNotFoundError("user", "user not found: uid=999")
	mockRepo.On("FindByUID", ctx, int64(999)).Return(nil, notFound)

	resp, err := uc.GetUser(ctx, 999)

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestGetUser_UIDNeverIssued(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	// Uids start at 1, so zero and negative values are absent by
	// construction and answered without hitting the store.
	for _, uid := range []int64{0, -3} {
		resp, err := uc.GetUser(ctx, uid)

		assert.Nil(t, resp)
		var nferr *pkgerrors.NotFoundError
		assert.ErrorAs(t, err, &nferr)
	}

	mockRepo.AssertNotCalled(t, "FindByUID", mock.Anything, mock.Anything)
}

func TestUpdateUser_UIDNeverIssued(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{UID: 0, Age: intPtr(30)})

	assert.Nil(t, resp)
	var nferr *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nferr)
	mockRepo.AssertNotCalled(t, "UpdateByUID", mock.Anything, mock.Anything, mock.Anything)
}

func TestListUsers_ConvertsLocations(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("FindAll", ctx).Return([]domain.User{
		*storedUser(1, 3.91, 51.01),
		*storedUser(2, 4.0, 52.0),
	}, nil)

	users, err := uc.ListUsers(ctx)

	assert.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, []float64{3.91, 51.01}, users[0].Loc)
	assert.Equal(t, []float64{4.0, 52.0}, users[1].Loc)
}

// ==================== FIND USERS NEAR TESTS ====================

func TestFindUsersNear_ExcludesSubject(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	subject := storedUser(1, 3.91, 51.01)
	neighbor := storedUser(2, 3.915, 51.012)

	mockRepo.On("FindByUID", ctx, int64(1)).Return(subject, nil)
	// The store may echo the subject back; it must be filtered out.
	mockRepo.On("FindNear", ctx, 3.91, 51.01, 10000.0).
		Return([]domain.User{*subject, *neighbor}, nil)

	users, err := uc.FindUsersNear(ctx, FindUsersNearRequest{UID: 1})

	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int64(2), users[0].UID)
	assert.Equal(t, []float64{3.915, 51.012}, users[0].Loc)
}

func TestFindUsersNear_SubjectNotFound(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	notFound := pkgerrors.NewNotFoundError("user", "user not found: uid=999")
	mockRepo.On("FindByUID", ctx, int64(999)).Return(nil, notFound)

	users, err := uc.FindUsersNear(ctx, FindUsersNearRequest{UID: 999})

	assert.Error(t, err)
	assert.Nil(t, users)
	mockRepo.AssertNotCalled(t, "FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFindUsersNear_UIDNeverIssued(t *testing.T) {
	uc, mockRepo, _ := setupTestUsecase(t)
	ctx := context.Background()

	users, err := uc.FindUsersNear(ctx, FindUsersNearRequest{UID: 0})

	assert.Nil(t, users)
	var nferr *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nferr)
	mockRepo.AssertNotCalled(t, "FindByUID", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFindUsersNear_CustomRadiusIgnoredInProduction(t *testing.T) {
	mockRepo := new(MockRepository)
	mockSeq := new(MockSequence)
	uc := New(mockRepo, mockSeq, Config{DefaultRadiusMeters: 10000, AllowCustomRadius: false}, zaptest.NewLogger(t))
	ctx := context.Background()

	mockRepo.On("FindByUID", ctx, int64(1)).Return(storedUser(1, 3.91, 51.01), nil)
	// The configured radius applies even though the caller asked for 500m.
	mockRepo.On("FindNear", ctx, 3.91, 51.01, 10000.0).Return([]domain.User{}, nil)

	_, err := uc.FindUsersNear(ctx, FindUsersNearRequest{UID: 1, RadiusMeters: 500})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestFindUsersNear_CustomRadiusHonoredInDevelopment(t *testing.T) {
	mockRepo := new(MockRepository)
	mockSeq := new(MockSequence)
	uc := New(mockRepo, mockSeq, Config{DefaultRadiusMeters: 10000, AllowCustomRadius: true}, zaptest.NewLogger(t))
	ctx := context.Background()

	mockRepo.On("FindByUID", ctx, int64(1)).Return(storedUser(1, 3.91, 51.01), nil)
	mockRepo.On("FindNear", ctx, 3.91, 51.01, 2000.0).Return([]domain.User{}, nil)

	_, err := uc.FindUsersNear(ctx, FindUsersNearRequest{UID: 1, RadiusMeters: 2000})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// ==================== SEED TESTS ====================

func TestSeedSampleData_ResetsAndInserts(t *testing.T) {
	uc, mockRepo, mockSeq := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("ClearAll", ctx).Return(nil)
	mockSeq.On("Reset", ctx).Return(nil)
	mockRepo.On("EnsureGeoIndex", ctx).Return(nil)

	mockSeq.On("NextUID", ctx).Return(int64(1), nil).Once()
	mockSeq.On("NextUID", ctx).Return(int64(2), nil).Once()
	mockSeq.On("NextUID", ctx).Return(int64(3), nil).Once()

	var inserted []domain.User
	mockRepo.On("Insert", ctx, mock.AnythingOfType("*user.User")).
		Run(func(args mock.Arguments) {
			inserted = append(inserted, *args.Get(1).(*domain.User))
		}).
		Return(int64(0), nil)
	mockRepo.On("FindAll", ctx).Return([]domain.User{}, nil)

	_, err := uc.SeedSampleData(ctx, 3, [][]float64{{3.91, 51.01}})

	assert.NoError(t, err)
	assert.Len(t, inserted, 3)

	for i, u := range inserted {
		assert.Equal(t, int64(i+1), u.UID)
		assert.Equal(t, fmt.Sprintf("TestUser%d", i+1), u.Name)
		// Stored digest never equals the plaintext seed password.
		assert.NotEqual(t, fmt.Sprintf("pass%d", i+1), u.PasswordHash)
		assert.Len(t, u.PasswordHash, 64)
		assert.Equal(t, geo.PointType, u.Location.Type)
		assert.InDelta(t, 3.91, u.Location.Coordinates[0], 0.1)
		assert.InDelta(t, 51.01, u.Location.Coordinates[1], 0.1)
	}

	mockRepo.AssertExpectations(t)
	mockSeq.AssertExpectations(t)
}

func TestSeedSampleData_InvalidArguments(t *testing.T) {
	uc, _, _ := setupTestUsecase(t)
	ctx := context.Background()

	_, err := uc.SeedSampleData(ctx, 0, [][]float64{{3.91, 51.01}})
	assert.Error(t, err)

	_, err = uc.SeedSampleData(ctx, 5, nil)
	assert.Error(t, err)

	_, err = uc.SeedSampleData(ctx, 5, [][]float64{{3.91}})
	assert.Error(t, err)
}
