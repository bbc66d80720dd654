package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Error interface {
	Is(err error) bool
	Wrap() error
	WrapMsg(msg string, kv ...any) error
	error
}

func New(s string, kv ...any) Error {
	return &primitiveError{s: toString(s, kv)}
}

type primitiveError struct {
	s string
}

func (e *primitiveError) Error() string {
	return e.s
}

func (e *primitiveError) Is(err error) bool {
	if err == nil {
		return false
	}
	var t *primitiveError
	if !errors.As(err, &t) {
		return false
	}
	return e.s == t.s
}

func (e *primitiveError) Wrap() error {
	return errors.WithStack(e)
}

func (e *primitiveError) WrapMsg(msg string, kv ...any) error {
	return errors.WithStack(errors.WithMessage(e, toString(msg, kv)))
}

// Wrap attaches a call stack to err, once.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(errors.WithMessage(err, toString(msg, kv)))
}

// Unwrap walks to the innermost error.
func Unwrap(err error) error {
	for err != nil {
		unwrap, ok := err.(interface {
			error
			Unwrap() error
		})
		if !ok {
			break
		}
		next := unwrap.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
	return err
}

func toString(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprintf(" %v=%v", kv[i], kv[i+1]))
		} else {
			sb.WriteString(fmt.Sprintf(" %v", kv[i]))
		}
	}
	return sb.String()
}
