package domain

import "time"

// Session is the client's view of the current authentication state.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
	LastActivity time.Time
}

// IsAuthenticated holds exactly when both an access token and a user record are present.
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != "" && s.User != nil
}

func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin
}
