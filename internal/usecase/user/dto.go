package user

// CreateUserRequest represents the payload for the create-or-update
// operation. Apart from the decision fields (UID, Name, Password) every
// field is optional: when the request resolves to an update only the
// fields that were supplied are merged.
type CreateUserRequest struct {
	UID         int64     `validate:"gte=0"` // 0 means "not supplied"
	Name        string    `validate:"omitempty,max=100"`
	Password    string    `validate:"omitempty,max=200"`
	Age         *int      `validate:"omitempty,gte=0,lte=150"`
	Gender      *string   `validate:"omitempty,oneof=m f"`
	LookingForM *bool
	LookingForF *bool
	Loc         []float64 `validate:"omitempty,len=2"`
}

// UpdateUserRequest represents the payload for a partial update of an
// existing user. Nil fields are left untouched. A uid that was never
// issued, non-positive ones included, surfaces as a not-found result.
type UpdateUserRequest struct {
	UID         int64
	Name        *string   `validate:"omitempty,max=100"`
	Password    *string   `validate:"omitempty,max=200"`
	Age         *int      `validate:"omitempty,gte=0,lte=150"`
	Gender      *string   `validate:"omitempty,oneof=m f"`
	LookingForM *bool
	LookingForF *bool
	Loc         []float64 `validate:"omitempty,len=2"`
}

// FindUsersNearRequest represents the payload for a proximity query.
// A uid that was never issued is a not-found result, not a validation
// failure. RadiusMeters is honored only when the deployment allows a
// caller-supplied radius; otherwise the configured constant applies.
type FindUsersNearRequest struct {
	UID          int64
	RadiusMeters float64 `validate:"gte=0"` // 0 means "use the configured radius"
}

// User represents the sanitized user DTO returned to callers. It carries
// the external [lon, lat] coordinate pair and never a password field or
// a store-internal identifier.
type User struct {
	UID         int64
	Name        string
	Age         int
	Gender      string
	LookingForM bool
	LookingForF bool
	Loc         []float64
}
