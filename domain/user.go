package domain

import (
	"net/mail"
	"regexp"
	"strings"
)

// User is the account record returned by the backend. Only IsAdmin drives
// client behaviour; the rest is carried for display.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Credentials identify an account by email or username.
type Credentials struct {
	Login    string
	Password string
}

// Registration carries the fields required to create an account.
type Registration struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	FullName        string `json:"full_name,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)
	passwordSpecial = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Validate mirrors the backend's account rules.
func (r Registration) Validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return NewError(ErrCodeValidation, "a valid e-mail address is required")
	}
	if !usernamePattern.MatchString(r.Username) {
		return NewError(ErrCodeValidation, "username must have 3 to 50 letters, digits or underscores")
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return NewError(ErrCodeValidation, "passwords do not match")
	}
	return nil
}

func validatePassword(pw string) error {
	switch {
	case len(pw) < 8 || len(pw) > 100:
		return NewError(ErrCodeValidation, "password must have 8 to 100 characters")
	case strings.ToLower(pw) == pw:
		return NewError(ErrCodeValidation, "password needs an uppercase letter")
	case strings.ToUpper(pw) == pw:
		return NewError(ErrCodeValidation, "password needs a lowercase letter")
	case !strings.ContainsAny(pw, "0123456789"):
		return NewError(ErrCodeValidation, "password needs a digit")
	case !passwordSpecial.MatchString(pw):
		return NewError(ErrCodeValidation, "password needs a special character")
	}
	return nil
}

// ProfileUpdate holds the mutable profile fields. Empty values are left unchanged.
type ProfileUpdate struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// AuthResult is the token pair issued on login or refresh.
type AuthResult struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	TokenType        string `json:"token_type,omitempty"`
	ExpiresIn        int    `json:"expires_in,omitempty"`
	RefreshExpiresIn int    `json:"refresh_expires_in,omitempty"`
	User             *User  `json:"user,omitempty"`
}
