package model

import (
	"time"
)

// UserDatabaseVersion is the supported on-disk format version of the
// credentials document. Loading any other version is a corruption error,
// never a silent migration.
const UserDatabaseVersion = 1

type User struct {
	Username             string     `json:"username"`
	PasswordHash         string     `json:"passwordHash"`
	Salt                 [16]byte   `json:"salt"`
	Admin                bool       `json:"admin"`
	LoginDisabled        bool       `json:"loginDisabled"`
	ForcePasswordChange  bool       `json:"forcePasswordChange"`
	PasswordChangeByDate *time.Time `json:"passwordChangeByDate,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	LastLogin            time.Time  `json:"lastLogin"`
}

// UserDatabase is the whole credentials document: every registered user,
// keyed by username. It is always read and replaced as a unit.
type UserDatabase struct {
	Version int              `json:"version"`
	Users   map[string]*User `json:"users"`
}

func NewUserDatabase() *UserDatabase {
	return &UserDatabase{
		Version: UserDatabaseVersion,
		Users:   make(map[string]*User),
	}
}

// UserOptions carries the optional attributes of a newly created user.
type UserOptions struct {
	Admin               bool
	LoginDisabled       bool
	ForcePasswordChange bool
	GracePeriod         time.Duration
}

// UserUpdate is a partial update of a user's mutable fields.
// Nil pointers mean "leave unchanged".
type UserUpdate struct {
	Password            *string
	Admin               *bool
	LoginDisabled       *bool
	ForcePasswordChange *bool
	GracePeriod         *time.Duration
}

type UserResponse struct {
	Username            string    `json:"username"`
	Admin               bool      `json:"admin"`
	LoginDisabled       bool      `json:"loginDisabled"`
	ForcePasswordChange bool      `json:"forcePasswordChange"`
	CreatedAt           time.Time `json:"createdAt"`
	LastLogin           time.Time `json:"lastLogin"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		Username:            u.Username,
		Admin:               u.Admin,
		LoginDisabled:       u.LoginDisabled,
		ForcePasswordChange: u.ForcePasswordChange,
		CreatedAt:           u.CreatedAt,
		LastLogin:           u.LastLogin,
	}
}
