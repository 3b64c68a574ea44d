package instance

import "os"

// GetID returns the identifier of this api instance. Platform dyno names win
// over the container hostname.
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
