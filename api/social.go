package api

import (
	"net/http"

	"CareGene/middleware"
	"CareGene/module/social"
	"CareGene/module/social/model"
	"CareGene/service/storage"
	"CareGene/tools/errs"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerSocial(r gin.IRoutes) {
	middleware.POST(r, "/friends/requests", s.requestFriend, authed)
	middleware.POST(r, "/friends/requests/:id/respond", s.respondFriend, authed)
	middleware.POST(r, "/friends/:id/block", s.blockFriend, authed)
	middleware.GET(r, "/friends", s.listFriends, authed)
	middleware.GET(r, "/presence/:id", s.presenceStatus, authed)
}

// presenceStatus reports whether the user holds a live socket on any
// node, from the redis presence keys the socket loop maintains.
func (s *Server) presenceStatus(c *gin.Context) error {
	online, err := storage.PresenceLookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, gin.H{"userId": c.Param("id"), "online": online})
	return nil
}

func (s *Server) requestFriend(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	requester := model.Party{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
	var body struct {
		Recipient userRefBody `json:"recipient"`
		Notes     string      `json:"notes,omitempty"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	recipient := model.Party{
		ID:     body.Recipient.ID,
		Name:   body.Recipient.Name,
		Email:  body.Recipient.Email,
		Avatar: body.Recipient.Avatar,
	}
	fr, err := s.Social.Request(c.Request.Context(), requester, recipient, body.Notes)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, fr)
	return nil
}

func (s *Server) respondFriend(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	var body struct {
		Decision social.Decision `json:"decision"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	switch body.Decision {
	case social.DecisionAccept, social.DecisionBlock:
	default:
		return errs.ErrValidation.WrapMsg("decision must be accept or block", "decision", string(body.Decision))
	}
	fr, err := s.Social.Respond(c.Request.Context(), c.Param("id"), u.ID, body.Decision)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, fr)
	return nil
}

func (s *Server) blockFriend(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	fr, err := s.Social.Block(c.Request.Context(), c.Param("id"), u.ID)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, fr)
	return nil
}

func (s *Server) listFriends(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	status := model.FriendshipStatus(c.Query("status"))
	out, err := s.Social.ListForUser(c.Request.Context(), u.ID, status)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, gin.H{"friendships": out})
	return nil
}
