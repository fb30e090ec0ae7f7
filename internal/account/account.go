package account

import (
	"errors"
)

// Role selects the collection an account lives in; the student and
// instructor namespaces are disjoint.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// Institutes recognized by the school.
var Institutes = []string{"ICS", "IBE", "ITE"}

var (
	ErrNotFound      = errors.New("account not found")
	ErrBadCredential = errors.New("incorrect password")
	ErrIDExists      = errors.New("an account with this id number already exists")
	ErrEmailExists   = errors.New("an account with this email already exists")
	ErrWeakPassword  = errors.New("password must be at least 8 characters long and include at least one number")
)

// Account is the profile record stored at students/{id} or
// instructors/{id}. PasswordHash replaces the plaintext password field the
// legacy records carried; it never leaves the service.
type Account struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Institute    string `json:"institute"`
	Role         Role   `json:"role"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
}

// Public returns a copy safe to hand to clients and the session cache.
func (a Account) Public() Account {
	a.PasswordHash = ""
	return a
}

// NewAccount is the registration input.
type NewAccount struct {
	FirstName       string
	LastName        string
	ID              string
	Email           string
	Password        string
	ConfirmPassword string
	Institute       string
	Role            Role
}

// CollectionFor maps a role to its tree store collection.
func CollectionFor(role Role) string {
	if role == RoleInstructor {
		return "instructors"
	}
	return "students"
}

// PathFor returns the tree store path of an account record.
func PathFor(role Role, id string) string {
	return CollectionFor(role) + "/" + id
}

// ParseRole accepts the role segments used in the API surface.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "student", "students":
		return RoleStudent, true
	case "instructor", "instructors":
		return RoleInstructor, true
	}
	return "", false
}
