package api

import (
	"net/http"
	"strconv"
	"time"

	"CareGene/middleware"
	"CareGene/module/messaging"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRefBody struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

func (u userRefBody) snapshot() messaging.UserSnapshot {
	return messaging.UserSnapshot{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

func actorSnapshot(c *gin.Context) (messaging.UserSnapshot, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return messaging.UserSnapshot{}, false
	}
	return messaging.UserSnapshot{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}, ok
}

func (s *Server) registerMessaging(r gin.IRoutes) {
	middleware.POST(r, "/conversations/direct", s.createDirect, authed)
	middleware.POST(r, "/conversations/group", s.createGroup, authed)
	middleware.GET(r, "/conversations", s.listConversations, authed)
	middleware.POST(r, "/conversations/:id/messages", s.recordMessage, authed)
	middleware.PATCH(r, "/conversations/:id/settings", s.updateSettings, authed)
	middleware.POST(r, "/conversations/:id/read", s.markRead, authed)
	middleware.POST(r, "/conversations/:id/participants", s.addParticipants, authed)
	middleware.POST(r, "/conversations/:id/leave", s.leaveConversation, authed)
}

func (s *Server) createDirect(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	var body struct {
		User userRefBody `json:"user"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	conv, created, err := s.Messaging.FindOrCreateDirect(c.Request.Context(), actor, body.User.snapshot())
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, conv)
	return nil
}

func (s *Server) createGroup(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	var body struct {
		Name         string        `json:"name"`
		Participants []userRefBody `json:"participants"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	others := make([]messaging.UserSnapshot, 0, len(body.Participants))
	for _, p := range body.Participants {
		others = append(others, p.snapshot())
	}
	conv, err := s.Messaging.CreateGroup(c.Request.Context(), actor, others, body.Name)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, conv)
	return nil
}

func (s *Server) listConversations(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	includeArchived := c.Query("includeArchived") == "true"
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	var cur messaging.Cursor
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err == nil {
			cur.Before = t
		}
	}
	if raw := c.Query("beforeId"); raw != "" {
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			cur.BeforeID = oid
		}
	}
	convs, next, err := s.Messaging.ListForUser(c.Request.Context(), actor.ID, includeArchived, cur, limit)
	if err != nil {
		return err
	}
	resp := gin.H{"conversations": convs}
	if !next.IsZero() {
		resp["nextBefore"] = next.Before.Format(time.RFC3339Nano)
		resp["nextBeforeId"] = next.BeforeID.Hex()
	}
	c.JSON(http.StatusOK, resp)
	return nil
}

func (s *Server) recordMessage(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	var in messaging.IncomingMessage
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	lm, err := s.Messaging.RecordMessage(c.Request.Context(), c.Param("id"), actor, in)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, gin.H{"lastMessage": lm})
	return nil
}

func (s *Server) updateSettings(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	var patch messaging.SettingsPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	if err := s.Messaging.UpdateSettings(c.Request.Context(), c.Param("id"), actor.ID, patch); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (s *Server) markRead(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	if err := s.Messaging.MarkRead(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (s *Server) addParticipants(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	var body struct {
		Participants []userRefBody `json:"participants"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	users := make([]messaging.UserSnapshot, 0, len(body.Participants))
	for _, p := range body.Participants {
		users = append(users, p.snapshot())
	}
	if err := s.Messaging.AddParticipants(c.Request.Context(), c.Param("id"), actor.ID, users); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (s *Server) leaveConversation(c *gin.Context) error {
	actor, _ := actorSnapshot(c)
	if err := s.Messaging.Leave(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}
