package users

import "time"

// User is an account as shown by the administration screens. The password
// hash never leaves the repository except through PasswordHash.
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Roles           []RoleRef  `json:"roles"`
}

// RoleRef is the slice of a role shown alongside users.
type RoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewUser carries the columns of an insert.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// ProfileChange carries the columns of a name/email update.
type ProfileChange struct {
	Name  string
	Email string
	// ResetVerification clears email_verified_at.
	ResetVerification bool
}
