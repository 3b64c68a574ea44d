package session

import (
	"crypto/subtle"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/enums"
)

// Record is the stored identity of a signed-in user. TokenDigest binds the
// record to the auth token it was issued for.
type Record struct {
	UserID      string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	SessionID   string    `json:"sessionId"`
	TokenDigest string    `json:"tokenDigest,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (r Record) valid() bool {
	return r.UserID != "" && r.SessionID != ""
}

// issuedFor reports whether the record belongs to the token with digest.
func (r Record) issuedFor(digest string) bool {
	return r.TokenDigest != "" && subtle.ConstantTimeCompare([]byte(r.TokenDigest), []byte(digest)) == 1
}

// Event is broadcast to every instance when a session logs in or out.
// Timestamp is unix milliseconds.
type Event struct {
	Type      enums.SessionEventType `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	SessionID string                 `json:"sessionId"`
}
