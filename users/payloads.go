package users

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	auth "github.com/tickethub/go-auth-hub"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var roleValues = []any{string(auth.RoleAdmin), string(auth.RoleUser)}

var priorityValues = []any{
	string(auth.PriorityLow),
	string(auth.PriorityMedium),
	string(auth.PriorityHigh),
	string(auth.PriorityUrgent),
}

// CreateAccountRequest is the admin payload for provisioning an account
type CreateAccountRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Phone           string `json:"phone"`
	Department      string `json:"department"`
	Role            string `json:"role"`
	DefaultPriority string `json:"defaultPriority"`

	phoneRegion string
}

// Validate will run validation rules
func (r CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.Phone, validation.By(phoneRule(r.phoneRegion))),
		validation.Field(&r.Department, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.Required, validation.In(roleValues...)),
		validation.Field(&r.DefaultPriority, validation.In(priorityValues...)),
	)
}

// UpdateAccountRequest carries the fields to change; nil means untouched.
type UpdateAccountRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	Phone           *string `json:"phone"`
	Department      *string `json:"department"`
	Role            *string `json:"role"`
	Status          *string `json:"status"`
	DefaultPriority *string `json:"defaultPriority"`

	phoneRegion string
}

// Validate will run validation rules
func (r UpdateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(2, 200)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(6, 72)),
		validation.Field(&r.Phone, validation.By(phoneRule(r.phoneRegion))),
		validation.Field(&r.Department, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.In(roleValues...)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(StatusActive, StatusInactive)),
		validation.Field(&r.DefaultPriority, validation.NilOrNotEmpty, validation.In(priorityValues...)),
	)
}

// ChangesRoleOrStatus reports whether the payload touches admin-only fields.
func (r UpdateAccountRequest) ChangesRoleOrStatus() bool {
	return r.Role != nil || r.Status != nil
}
