package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is a Ticket Hub principal
type Account struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name            string     `bun:"name,notnull" json:"name"`
	Email           string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash    string     `bun:"password_hash,notnull" json:"-"`
	Phone           string     `bun:"phone" json:"phone,omitempty"`
	Department      string     `bun:"department,notnull" json:"department"`
	Avatar          string     `bun:"avatar" json:"avatar,omitempty"`
	Role            Role       `bun:"role,notnull" json:"role"`
	DefaultPriority Priority   `bun:"default_priority,notnull,default:'media'" json:"defaultPriority"`
	IsActive        bool       `bun:"is_active,notnull" json:"isActive"`
	LastLoginAt     *time.Time `bun:"last_login_at,nullzero" json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Status renders the active flag the way clients expect it.
func (a *Account) Status() string {
	if a.IsActive {
		return "active"
	}
	return "inactive"
}

// AccountView is the client facing shape of an Account. It never carries
// the password hash.
type AccountView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone,omitempty"`
	Department      string   `json:"department"`
	Avatar          string   `json:"avatar,omitempty"`
	Role            Role     `json:"role"`
	DefaultPriority Priority `json:"defaultPriority"`
	Status          string   `json:"status"`
	JoinDate        string   `json:"joinDate"`
	LastLogin       *string  `json:"lastLogin"`
}

// View builds the client facing representation.
func (a *Account) View() AccountView {
	if a == nil {
		return AccountView{}
	}

	view := AccountView{
		ID:              a.ID.String(),
		Name:            a.Name,
		Email:           a.Email,
		Phone:           a.Phone,
		Department:      a.Department,
		Avatar:          a.Avatar,
		Role:            a.Role,
		DefaultPriority: a.DefaultPriority,
		Status:          a.Status(),
		JoinDate:        a.CreatedAt.UTC().Format(time.DateOnly),
	}

	if a.LastLoginAt != nil {
		last := a.LastLoginAt.UTC().Format(time.RFC3339)
		view.LastLogin = &last
	}

	return view
}

// AccountStats is the admin overview of the account table.
type AccountStats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Inactive     int `json:"inactive"`
	Admins       int `json:"admins"`
	Regular      int `json:"regular"`
	NewThisMonth int `json:"newThisMonth"`
}
