package api

import (
	"net/http"
	"strconv"

	"CareGene/middleware"
	"CareGene/module/feed/model"
	"CareGene/validation"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerFeed(r gin.IRoutes) {
	middleware.POST(r, "/posts", s.createPost, authed)
	middleware.GET(r, "/posts/:id/comments", s.listComments, authed)
	middleware.POST(r, "/comments", s.createComment, authed)
	middleware.PATCH(r, "/comments/:id", s.editComment, authed)
	middleware.POST(r, "/comments/:id/reactions", s.reactToComment, authed)
}

func currentAuthor(c *gin.Context) model.Author {
	u, _ := middleware.CurrentUser(c)
	return model.Author{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

func (s *Server) createPost(c *gin.Context) error {
	var payload validation.PostPayload
	if err := bindJSON(c, &payload); err != nil {
		return err
	}
	out, err := s.Feed.CreatePost(c.Request.Context(), currentAuthor(c), &payload)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, out)
	return nil
}

func (s *Server) createComment(c *gin.Context) error {
	var payload validation.CommentPayload
	if err := bindJSON(c, &payload); err != nil {
		return err
	}
	out, err := s.Feed.CreateComment(c.Request.Context(), currentAuthor(c), &payload)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, out)
	return nil
}

func (s *Server) editComment(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	var body struct {
		Content string `json:"content"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	out, err := s.Feed.EditComment(c.Request.Context(), c.Param("id"), u.ID, body.Content)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, out)
	return nil
}

func (s *Server) reactToComment(c *gin.Context) error {
	u, _ := middleware.CurrentUser(c)
	var body struct {
		Type model.ReactionType `json:"type"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	out, err := s.Feed.React(c.Request.Context(), c.Param("id"), u.ID, body.Type)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, out)
	return nil
}

func (s *Server) listComments(c *gin.Context) error {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	out, err := s.Feed.ListByPost(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
	return nil
}
