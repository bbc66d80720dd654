package api

import (
	"context"
	"net/http"
	"time"

	mongoutil "CareGene/data/database/mgo/mongoutil"
	"CareGene/middleware"
	"CareGene/module/community"
	"CareGene/module/feed"
	"CareGene/module/messaging"
	"CareGene/module/social"
	"CareGene/service/mgo"
	"CareGene/service/ws"
	"CareGene/tools/errs"

	"github.com/gin-gonic/gin"
)

var authed = middleware.RouteOpt{RequireIdentity: true}

const readyProbeTimeout = 3 * time.Second

// Server wires the domain services onto the gin engine.
type Server struct {
	Messaging   *messaging.Service
	Social      *social.Service
	Communities *community.Service
	Feed        *feed.Service
	Hub         *ws.Hub
	MongoCfg    *mongoutil.Config
}

func (s *Server) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", s.readyz)

	api := r.Group("/api")
	s.registerMessaging(api)
	s.registerSocial(api)
	s.registerCommunities(api)
	s.registerFeed(api)

	middleware.GET(r, "/ws", func(c *gin.Context) error {
		ws.ServeWS(s.Hub)(c)
		return nil
	}, authed)
}

// readyz reports whether the service can take traffic: the async mongo
// manager must hold a client, and the store must answer a fresh ping.
func (s *Server) readyz(c *gin.Context) {
	if _, ok := mgo.TryGetDB(); !ok {
		resp := gin.H{"status": "connecting"}
		if err := mgo.Err(); err != nil {
			resp["error"] = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyProbeTimeout)
	defer cancel()
	if err := mongoutil.Check(ctx, s.MongoCfg); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindJSON decodes the body, translating decode failures into the
// validation error code so clients get a 400 instead of a 500.
func bindJSON(c *gin.Context, out any) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return errs.ErrValidation.WrapMsg("malformed request body", "cause", err.Error())
	}
	return nil
}
