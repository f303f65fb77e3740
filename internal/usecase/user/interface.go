package user

import "context"

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*User, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error)
	GetUser(ctx context.Context, uid int64) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	FindUsersNear(ctx context.Context, in FindUsersNearRequest) ([]User, error)
	SeedSampleData(ctx context.Context, count int, centers [][]float64) ([]User, error)
}
