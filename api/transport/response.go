package transport

import (
	"encoding/json"

	"github.com/fastygo/storefront/domain"
)

// TokenResponse is returned by login and refresh. Refresh omits the user.
type TokenResponse struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token,omitempty"`
	TokenType        string       `json:"token_type"`
	ExpiresIn        int          `json:"expires_in"`
	RefreshExpiresIn int          `json:"refresh_expires_in"`
	User             *domain.User `json:"user,omitempty"`
}

// AuthResult converts the wire payload into the domain token pair.
func (r TokenResponse) AuthResult() *domain.AuthResult {
	return &domain.AuthResult{
		AccessToken:      r.AccessToken,
		RefreshToken:     r.RefreshToken,
		TokenType:        r.TokenType,
		ExpiresIn:        r.ExpiresIn,
		RefreshExpiresIn: r.RefreshExpiresIn,
		User:             r.User,
	}
}

// ErrorResponse is the backend error body. Detail is either a string or a
// list of validation issues.
type ErrorResponse struct {
	Detail  json.RawMessage `json:"detail,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ValidationIssue is one entry of a list-valued detail.
type ValidationIssue struct {
	Loc  []any  `json:"loc,omitempty"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// MessageResponse is returned by mutations that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewDetail builds a string-detail error body.
func NewDetail(message string) ErrorResponse {
	raw, _ := json.Marshal(message)
	return ErrorResponse{Detail: raw}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorResponse) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// CategoryOption is one entry of the remote category list.
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DeleteItemResponse reports whether an item was removed or only
// deactivated because past orders still reference it.
type DeleteItemResponse struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}
