package session

// Keys lists the storage keys the session is written under. Several
// aliases per value are kept so older pages sharing the origin keep working;
// reads take the first usable alias in order.
type Keys struct {
	Token        []string
	Refresh      []string
	User         []string
	LastActivity string
}

// DefaultKeys returns the key layout used by every storefront release so far.
func DefaultKeys() Keys {
	return Keys{
		Token:        []string{"hashtag_pizzaria_token", "access_token", "authToken", "token"},
		Refresh:      []string{"hashtag_pizzaria_refresh", "refresh_token"},
		User:         []string{"hashtag_pizzaria_user", "user_data", "currentUser"},
		LastActivity: "hashtag_pizzaria_last_activity",
	}
}

func (k Keys) all() []string {
	keys := make([]string, 0, len(k.Token)+len(k.Refresh)+len(k.User)+1)
	keys = append(keys, k.Token...)
	keys = append(keys, k.Refresh...)
	keys = append(keys, k.User...)
	return append(keys, k.LastActivity)
}

// authKey reports whether key carries the token, refresh token or user.
func (k Keys) authKey(key string) bool {
	for _, group := range [][]string{k.Token, k.Refresh, k.User} {
		for _, candidate := range group {
			if candidate == key {
				return true
			}
		}
	}
	return false
}
