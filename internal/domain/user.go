package domain

import (
	"slices"
	"time"
)

// Role is the marketplace role of an account.
type Role string

const (
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleProducer, RoleConsumer, RoleAdmin:
		return true
	}
	return false
}

// In reports whether r is one of roles. An empty list matches every role.
func (r Role) In(roles ...Role) bool {
	return len(roles) == 0 || slices.Contains(roles, r)
}

// User is the identity snapshot returned by the authentication endpoints.
// Producer accounts additionally carry the farm fields.
type User struct {
	ID              int64     `json:"id" validate:"required"`
	Email           string    `json:"email" validate:"required,email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Role            Role      `json:"role" validate:"required,oneof=producer consumer admin"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	ProfilePicture  string    `json:"profile_picture,omitempty"`
	IsActive        bool      `json:"is_active"`
	IsStaff         bool      `json:"is_staff"`
	VerifiedEmail   bool      `json:"verified_email"`
	FarmName        string    `json:"farm_name,omitempty"`
	FarmAddress     string    `json:"farm_address,omitempty"`
	FarmDescription string    `json:"farm_description,omitempty"`
	DateJoined      time.Time `json:"date_joined,omitzero"`
}

// DisplayName returns the first name when set, the email otherwise.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// Credentials is the bearer token pair issued by the backend.
type Credentials struct {
	Access  string `json:"access" validate:"required"`
	Refresh string `json:"refresh"`
}

// LoginResponse is the body of a successful login or OAuth code exchange.
type LoginResponse struct {
	Access  string `json:"access" validate:"required"`
	Refresh string `json:"refresh" validate:"required"`
	User    *User  `json:"user" validate:"required"`
}

// SignUpInput is the registration form.
type SignUpInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Role            Role   `json:"role" validate:"required,oneof=producer consumer"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	FarmName        string `json:"farm_name,omitempty" validate:"required_if=Role producer"`
	FarmAddress     string `json:"farm_address,omitempty"`
	FarmDescription string `json:"farm_description,omitempty"`
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched
// by the backend.
type ProfileUpdate struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	FarmName        *string `json:"farm_name,omitempty"`
	FarmAddress     *string `json:"farm_address,omitempty"`
	FarmDescription *string `json:"farm_description,omitempty"`
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.PhoneNumber == nil &&
		p.FarmName == nil && p.FarmAddress == nil && p.FarmDescription == nil
}
