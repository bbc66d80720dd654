package middleware

import (
	midsec "CareGene/middleware/security"

	"github.com/gin-gonic/gin"
)

// RouteOpt controls the chain mounted in front of a handler.
type RouteOpt struct {
	// RequireIdentity gates the route behind gateway trust + identity
	// extraction. Almost every route wants this.
	RequireIdentity bool
}

func chain(opt RouteOpt, handler HandlerE) []gin.HandlerFunc {
	if !opt.RequireIdentity {
		return []gin.HandlerFunc{WrapE(handler)}
	}
	return []gin.HandlerFunc{
		midsec.Middleware(midsec.DefaultOptions()),
		Identity(),
		WrapE(handler),
	}
}

func POST(r gin.IRoutes, path string, handler HandlerE, opt RouteOpt) {
	r.POST(path, chain(opt, handler)...)
}

func GET(r gin.IRoutes, path string, handler HandlerE, opt RouteOpt) {
	r.GET(path, chain(opt, handler)...)
}

func PATCH(r gin.IRoutes, path string, handler HandlerE, opt RouteOpt) {
	r.PATCH(path, chain(opt, handler)...)
}

func DELETE(r gin.IRoutes, path string, handler HandlerE, opt RouteOpt) {
	r.DELETE(path, chain(opt, handler)...)
}
