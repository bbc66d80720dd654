package api

import (
	"net/http"
	"strconv"
	"time"

	"CareGene/middleware"
	"CareGene/module/community/model"
	"CareGene/validation"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerCommunities(r gin.IRoutes) {
	middleware.POST(r, "/communities", s.createCommunity, authed)
	middleware.GET(r, "/communities", s.listCommunities, authed)
	middleware.GET(r, "/communities/:slug", s.getCommunity, authed)
	middleware.POST(r, "/communities/:slug/join", s.joinCommunity, authed)
	middleware.POST(r, "/communities/:slug/leave", s.leaveCommunity, authed)
	middleware.DELETE(r, "/communities/:slug", s.deleteCommunity, authed)
}

func currentMember(c *gin.Context) model.Member {
	u, _ := middleware.CurrentUser(c)
	return model.Member{ID: u.ID, Name: u.Name, Avatar: u.Avatar, JoinedAt: time.Now()}
}

func (s *Server) createCommunity(c *gin.Context) error {
	var payload validation.CommunityPayload
	if err := bindJSON(c, &payload); err != nil {
		return err
	}
	out, err := s.Communities.Create(c.Request.Context(), currentMember(c), &payload)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, out)
	return nil
}

func (s *Server) listCommunities(c *gin.Context) error {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	out, err := s.Communities.List(c.Request.Context(), c.Query("region"), c.Query("tag"), limit)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, gin.H{"communities": out})
	return nil
}

func (s *Server) getCommunity(c *gin.Context) error {
	out, err := s.Communities.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, out)
	return nil
}

func (s *Server) joinCommunity(c *gin.Context) error {
	if err := s.Communities.Join(c.Request.Context(), c.Param("slug"), currentMember(c)); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (s *Server) leaveCommunity(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	if err := s.Communities.Leave(c.Request.Context(), c.Param("slug"), u.ID); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (s *Server) deleteCommunity(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	if err := s.Communities.Delete(c.Request.Context(), c.Param("slug"), u.ID); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}
