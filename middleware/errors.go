package middleware

import (
	"CareGene/global"
	"CareGene/logger"
	"CareGene/tools/errs"
	"CareGene/tools/specialerror"
	"CareGene/validation"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrorEnvelope is the uniform failure shape every route returns.
type ErrorEnvelope struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
	Field   string   `json:"field,omitempty"`
}

// WriteError is the single place failures become a response. Validation
// errors keep their full violation list; everything else goes through
// the classifier chain.
func WriteError(c *gin.Context, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		c.AbortWithStatusJSON(errs.HTTPStatus(errs.ValidationCode), ErrorEnvelope{
			Error:   errs.ErrValidation.Msg,
			Details: vErr.Details(),
			Field:   vErr.Field(),
		})
		return
	}

	ce := specialerror.Classify(err)
	status := errs.HTTPStatus(ce.Code)

	if ce.Code == errs.UnclassifiedCode {
		logger.Error("unclassified error", zap.Error(err))
		if global.Conf().IsProduction() {
			// never leak raw internals in production
			c.AbortWithStatusJSON(status, ErrorEnvelope{Error: errs.ErrUnclassified.Msg})
			return
		}
		c.AbortWithStatusJSON(status, ErrorEnvelope{Error: errs.ErrUnclassified.Msg, Details: []string{err.Error()}})
		return
	}

	env := ErrorEnvelope{Error: ce.Msg}
	if ce.Detail != "" {
		env.Details = []string{ce.Detail}
	}
	c.AbortWithStatusJSON(status, env)
}

// HandlerE is a gin handler that reports failure by returning an error.
type HandlerE func(c *gin.Context) error

// WrapE adapts HandlerE to gin, funneling every failure through
// WriteError.
func WrapE(h HandlerE) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {
			WriteError(c, err)
		}
	}
}
