package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// User is the persisted storefront account.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Phone        string
	Role         Role
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the credential-free projection of the account.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

// Identity is the account bound to a request after authentication.
// It never carries the password hash.
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"isVerified"`
}
