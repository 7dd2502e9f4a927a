package account

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/validation"
)

// User maps to the users table.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	DateJoined   time.Time  `db:"date_joined" json:"date_joined"`
	LastLogin    *time.Time `db:"last_login" json:"-"`
}

// FullName returns "First Last", or "" when neither is set.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, falling back to the username.
func (u *User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Username
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

const usernameHelp = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."

// Validate checks field formats and the full password policy. Username
// availability is checked by the service.
func (r *RegisterRequest) Validate() validation.Errors {
	errs := validation.Errors{}

	errs.Required("username", r.Username)
	errs.MaxLength("username", r.Username, 150)
	if r.Username != "" && !usernamePattern.MatchString(r.Username) {
		errs.Add("username", usernameHelp)
	}
	errs.Email("email", r.Email)
	errs.MaxLength("first_name", r.FirstName, 150)
	errs.MaxLength("last_name", r.LastName, 150)

	errs.Required("password", r.Password)
	errs.Required("password_confirm", r.PasswordConfirm)
	if r.Password != "" {
		for _, msg := range auth.ValidatePasswordStrength(r.Password, r.Username, r.Email, r.FirstName, r.LastName) {
			errs.Add("password", msg)
		}
	}
	if r.Password != "" && r.PasswordConfirm != "" && r.Password != r.PasswordConfirm {
		errs.Add("password_confirm", "Passwords don't match")
	}
	return errs
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}
