package enums

import "fmt"

// SessionEventType is the kind of a session broadcast.
type SessionEventType string

const (
	SessionEventLogin  SessionEventType = "login"
	SessionEventLogout SessionEventType = "logout"
)

var validSessionEventTypes = []SessionEventType{
	SessionEventLogin,
	SessionEventLogout,
}

// String implements fmt.Stringer.
func (s SessionEventType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SessionEventType.
func (s SessionEventType) IsValid() bool {
	for _, candidate := range validSessionEventTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSessionEventType converts raw input into a SessionEventType.
func ParseSessionEventType(value string) (SessionEventType, error) {
	for _, candidate := range validSessionEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session event type %q", value)
}
