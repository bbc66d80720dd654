package ids

import "github.com/google/uuid"

// MessageID returns a server-assigned message id. UUIDs are fine here:
// ordering comes from server timestamps, not from the id.
func MessageID() string {
	return uuid.NewString()
}
