package monitor

import (
	"errors"
	"time"
)

var errNotConfigured = errors.New("dependency not configured")

// Status is the last observed state of the service dependencies.
type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether the service can serve requests: the store of
// record is reachable. Redis and the buffer only degrade it.
func (s Status) Healthy() bool {
	return s.PostgreSQL
}
