package security

import (
	"net/http"
	"strings"

	"CareGene/global"
	"CareGene/tools/security"

	"github.com/gin-gonic/gin"
)

// Gateway trust check: identity headers are only honored when the
// request carries a token signed by the upstream gateway. Without it a
// caller could impersonate anyone by setting X-User-Id directly.
const (
	HeaderGatewayToken = "X-Gateway-Token"
)

type Options struct {
	HeaderToken               string
	EnableAuthorizationBearer bool
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               HeaderGatewayToken,
		EnableAuthorizationBearer: true,
	}
}

func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		secret := global.Conf().Gateway.Secret
		if secret == "" {
			// no shared secret configured: local development
			c.Next()
			return
		}

		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing gateway token"})
			return
		}
		if _, err := security.Verify(security.DefaultOptions([]byte(secret)), token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid gateway token"})
			return
		}
		c.Next()
	}
}
