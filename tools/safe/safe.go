package safe

import (
	"fmt"

	"CareGene/logger"
)

// DefaultString returns the dereferenced value of a string pointer,
// or the fallback if the pointer is nil.
func DefaultString(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// Go starts a goroutine that recovers from panics so a misbehaving
// consumer or push loop cannot take the process down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(fmt.Sprintf("panic recovered: %v", r))
			}
		}()
		f()
	}()
}
