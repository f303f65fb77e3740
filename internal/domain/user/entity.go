package user

import "proximity-service/pkg/geo"

// Gender is the enumerated gender value stored on a user document.
type Gender string

// Gender values as persisted in the store.
const (
	GenderMale   Gender = "m"
	GenderFemale Gender = "f"
)

// User represents a user entity in the system.
//
// UID is assigned once at creation from the persisted sequence and never
// changes afterwards. PasswordHash is the stored credential digest; it is
// projected away on every repository read and must never appear in an
// outward-facing representation.
type User struct {
	UID          int64     // UID is the unique, immutable identifier for the user
	Name         string    // Name is the display name of the user
	PasswordHash string    // PasswordHash is the SHA-256 digest of the user's secret
	Age          int       // Age in years
	Gender       Gender    // Gender of the user
	LookingForM  bool      // LookingForM reports whether the user seeks men
	LookingForF  bool      // LookingForF reports whether the user seeks women
	Location     geo.Point // Location as a GeoJSON point, [longitude, latitude]
}

// Patch describes a partial update of a user document. Nil fields are
// left untouched. There is intentionally no UID field: the identifier
// can never be overwritten through an update.
type Patch struct {
	Name         *string
	PasswordHash *string
	Age          *int
	Gender       *Gender
	LookingForM  *bool
	LookingForF  *bool
	Location     *geo.Point
}

// IsEmpty reports whether the patch carries no fields at all.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.PasswordHash == nil && p.Age == nil &&
		p.Gender == nil && p.LookingForM == nil && p.LookingForF == nil &&
		p.Location == nil
}
