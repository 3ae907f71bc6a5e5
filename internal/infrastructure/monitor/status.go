package monitor

import "time"

type Status struct {
	API         bool          `json:"api"`
	APIError    string        `json:"api_error,omitempty"`
	APILatency  time.Duration `json:"api_latency"`
	Storage     bool          `json:"storage"`
	StorageKeys int           `json:"storage_keys"`
	LastCheck   time.Time     `json:"last_check"`
}

// Online reports whether both the backend and the local storage answered.
func (s Status) Online() bool {
	return s.API && s.Storage
}
