package specialerror

import (
	"context"
	"errors"

	"CareGene/tools/errs"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var handlers []func(err error) *errs.CodeError

// AddErrHandler appends a classifier to the chain. Order matters: the
// first handler returning non-nil wins.
func AddErrHandler(h func(err error) *errs.CodeError) error {
	if h == nil {
		return errs.New("nil handler").Wrap()
	}
	handlers = append(handlers, h)
	return nil
}

func init() {
	_ = AddErrHandler(handleCodeError)
	_ = AddErrHandler(handleMalformedID)
	_ = AddErrHandler(handleDuplicateKey)
	_ = AddErrHandler(handleDeadline)
}

// Classify maps any error to a CodeError. A single underlying failure may
// match several shallow checks, so the chain order is fixed: domain code
// errors first, then malformed identifiers, then uniqueness conflicts,
// then deadlines, and everything else falls through to Unclassified.
func Classify(err error) errs.CodeError {
	for _, h := range handlers {
		if ce := h(err); ce != nil {
			return *ce
		}
	}
	return errs.ErrUnclassified.WithDetail(err.Error())
}

func handleCodeError(err error) *errs.CodeError {
	var codeErr errs.CodeError
	if errors.As(err, &codeErr) {
		return &codeErr
	}
	return nil
}

func handleMalformedID(err error) *errs.CodeError {
	if errors.Is(err, primitive.ErrInvalidHex) {
		ce := errs.ErrMalformedID.WithDetail(err.Error())
		return &ce
	}
	return nil
}

func handleDuplicateKey(err error) *errs.CodeError {
	if mongo.IsDuplicateKeyError(err) {
		ce := errs.ErrAlreadyExists.WithDetail("duplicate key")
		return &ce
	}
	return nil
}

func handleDeadline(err error) *errs.CodeError {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		ce := errs.ErrTimeout.WithDetail(err.Error())
		return &ce
	}
	return nil
}
