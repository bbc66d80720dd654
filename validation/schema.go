// Package validation rejects structurally invalid payloads before they
// reach persistence, returning the complete ordered list of violations
// rather than stopping at the first.
package validation

import (
	"fmt"
	"strings"
)

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every violation found in one pass.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Details returns the ordered human-readable messages.
func (e *Error) Details() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Message)
	}
	return out
}

// Field returns the first offending field.
func (e *Error) Field() string {
	if len(e.Violations) == 0 {
		return ""
	}
	return e.Violations[0].Field
}

type collector struct {
	violations []Violation
}

func (c *collector) add(field, format string, args ...any) {
	c.violations = append(c.violations, Violation{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &Error{Violations: c.violations}
}

type CommentPayload struct {
	Content         string  `json:"content"`
	PostID          string  `json:"postId"`
	ParentCommentID *string `json:"parentCommentId,omitempty"`
}

type LocationPayload struct {
	Region string `json:"region"`
	State  string `json:"state,omitempty"`
}

type CommunitySettingsPayload struct {
	AllowMemberPosts   *bool `json:"allowMemberPosts,omitempty"`
	AllowMemberInvites *bool `json:"allowMemberInvites,omitempty"`
	RequireApproval    *bool `json:"requireApproval,omitempty"`
}

type CommunityPayload struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Tags        []string                  `json:"tags"`
	Location    LocationPayload           `json:"location"`
	IsPrivate   bool                      `json:"isPrivate,omitempty"`
	Settings    *CommunitySettingsPayload `json:"settings,omitempty"`
}

type PostPayload struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	CommunityID string   `json:"communityId"`
	Tags        []string `json:"tags,omitempty"`
	Images      []string `json:"images,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// Validate checks payload against the named schema. An unknown schema
// name is a programmer error and panics; expected validation failures
// come back as *Error.
func Validate(schema string, payload any) error {
	switch schema {
	case "comment":
		return validateComment(payload.(*CommentPayload))
	case "community":
		return validateCommunity(payload.(*CommunityPayload))
	case "post":
		return validatePost(payload.(*PostPayload))
	default:
		panic(fmt.Sprintf("validation: unknown schema %q", schema))
	}
}

func validateComment(p *CommentPayload) error {
	c := &collector{}
	n := len([]rune(strings.TrimSpace(p.Content)))
	if n < 1 {
		c.add("content", "content is required")
	} else if n > 1000 {
		c.add("content", "content must be at most 1000 characters")
	}
	if strings.TrimSpace(p.PostID) == "" {
		c.add("postId", "postId is required")
	}
	if p.ParentCommentID != nil && strings.TrimSpace(*p.ParentCommentID) == "" {
		c.add("parentCommentId", "parentCommentId must not be empty when present")
	}
	return c.err()
}

func validateCommunity(p *CommunityPayload) error {
	c := &collector{}
	title := len([]rune(strings.TrimSpace(p.Title)))
	if title < 3 {
		c.add("title", "title must be at least 3 characters")
	} else if title > 100 {
		c.add("title", "title must be at most 100 characters")
	}
	desc := len([]rune(strings.TrimSpace(p.Description)))
	if desc < 10 {
		c.add("description", "description must be at least 10 characters")
	} else if desc > 500 {
		c.add("description", "description must be at most 500 characters")
	}
	if len(p.Tags) < 1 {
		c.add("tags", "at least 1 tag is required")
	} else if len(p.Tags) > 10 {
		c.add("tags", "at most 10 tags are allowed")
	}
	for i, t := range p.Tags {
		if strings.TrimSpace(t) == "" {
			c.add("tags", "tag %d must not be empty", i)
		} else if len([]rune(t)) > 50 {
			c.add("tags", "tag %q must be at most 50 characters", t)
		}
	}
	if strings.TrimSpace(p.Location.Region) == "" {
		c.add("location.region", "location.region is required")
	}
	return c.err()
}

func validatePost(p *PostPayload) error {
	c := &collector{}
	if strings.TrimSpace(p.Title) == "" {
		c.add("title", "title is required")
	} else if len([]rune(p.Title)) > 200 {
		c.add("title", "title must be at most 200 characters")
	}
	if strings.TrimSpace(p.Content) == "" {
		c.add("content", "content is required")
	}
	if strings.TrimSpace(p.CommunityID) == "" {
		c.add("communityId", "communityId is required")
	}
	if len(p.Tags) > 10 {
		c.add("tags", "at most 10 tags are allowed")
	}
	return c.err()
}
