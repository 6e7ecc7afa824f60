package transport

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/fastygo/accounts/domain"
)

const (
	maxEmailLength    = 255
	maxHandleLength   = 150
	maxPasswordLength = 128
)

var roleRule = validation.In(string(domain.RoleAdmin), string(domain.RoleUser))

type RegisterRequest struct {
	Email    string  `json:"email"`
	Username *string `json:"username"`
	Password string  `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, maxEmailLength), is.Email),
		validation.Field(&r.Username, validation.Length(0, maxHandleLength)),
		validation.Field(&r.Password, validation.Required, validation.Length(0, maxPasswordLength)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(0, maxPasswordLength)),
	)
}

// ProfileUpdateRequest only carries the writable profile fields; a role in
// the body is ignored.
type ProfileUpdateRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
}

func (r ProfileUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, maxEmailLength), is.Email),
		validation.Field(&r.Username, validation.Length(0, maxHandleLength)),
	)
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(0, maxPasswordLength)),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

type AdminCreateUserRequest struct {
	Email    string  `json:"email"`
	Username *string `json:"username"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	IsActive *bool   `json:"is_active"`
	IsStaff  bool    `json:"is_staff"`
}

func (r AdminCreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, maxEmailLength), is.Email),
		validation.Field(&r.Username, validation.Length(0, maxHandleLength)),
		validation.Field(&r.Password, validation.Required, validation.Length(0, maxPasswordLength)),
		validation.Field(&r.Role, roleRule),
	)
}

// AdminUpdateUserRequest is used for PUT and PATCH alike; absent fields are
// left untouched.
type AdminUpdateUserRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	IsStaff  *bool   `json:"is_staff"`
	Password *string `json:"password"`
}

func (r AdminUpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, maxEmailLength), is.Email),
		validation.Field(&r.Username, validation.Length(0, maxHandleLength)),
		validation.Field(&r.Role, validation.NilOrNotEmpty, roleRule),
		validation.Field(&r.Password, validation.Length(0, maxPasswordLength)),
	)
}
