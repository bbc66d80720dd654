package errs

import "net/http"

// Error codes grouped by family: 10xx generic, 11xx authorization,
// 12xx state conflicts, 13xx infrastructure.
const (
	UnclassifiedCode        = 1000
	ValidationCode          = 1001
	MalformedIDCode         = 1002
	MissingIdentityCode     = 1003
	ForbiddenCode           = 1101
	NotFoundCode            = 1102
	NotAParticipantCode     = 1104
	ConflictCode            = 1201
	InvalidTransitionCode   = 1202
	InvalidParticipantsCode = 1203
	SelfRequestCode         = 1204
	TimeoutCode             = 1301
)

var (
	ErrUnclassified        = NewCodeError(UnclassifiedCode, "internal error")
	ErrValidation          = NewCodeError(ValidationCode, "validation failed")
	ErrMalformedID         = NewCodeError(MalformedIDCode, "malformed identifier")
	ErrMissingIdentity     = NewCodeError(MissingIdentityCode, "missing identity")
	ErrForbidden           = NewCodeError(ForbiddenCode, "forbidden")
	ErrNotFound            = NewCodeError(NotFoundCode, "not found")
	ErrNotAParticipant     = NewCodeError(NotAParticipantCode, "not a participant")
	ErrAlreadyExists       = NewCodeError(ConflictCode, "already exists")
	ErrInvalidTransition   = NewCodeError(InvalidTransitionCode, "invalid transition")
	ErrInvalidParticipants = NewCodeError(InvalidParticipantsCode, "invalid participants")
	ErrSelfRequest         = NewCodeError(SelfRequestCode, "self request")
	ErrTimeout             = NewCodeError(TimeoutCode, "operation timed out")
)

// HTTPStatus maps an error code to its transport status.
func HTTPStatus(code int) int {
	switch code {
	case ValidationCode, MalformedIDCode, InvalidParticipantsCode, SelfRequestCode:
		return http.StatusBadRequest
	case MissingIdentityCode:
		return http.StatusUnauthorized
	case ForbiddenCode, NotAParticipantCode:
		return http.StatusForbidden
	case NotFoundCode:
		return http.StatusNotFound
	case ConflictCode, InvalidTransitionCode:
		return http.StatusConflict
	case TimeoutCode:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
