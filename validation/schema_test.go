package validation

import (
	"errors"
	"strings"
	"testing"
)

func asValidationError(t *testing.T, err error) *Error {
	t.Helper()
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *validation.Error, got %T: %v", err, err)
	}
	return ve
}

func TestValidateCommentContentBounds(t *testing.T) {
	cases := []struct {
		name    string
		content string
		ok      bool
	}{
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"one rune", "x", true},
		{"at limit", strings.Repeat("a", 1000), true},
		{"over limit", strings.Repeat("a", 1001), false},
		{"multibyte at limit", strings.Repeat("日", 1000), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate("comment", &CommentPayload{Content: tc.content, PostID: "p1"})
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				ve := asValidationError(t, err)
				if ve.Field() != "content" {
					t.Fatalf("expected field content, got %q", ve.Field())
				}
			}
		})
	}
}

func TestValidateCommentCollectsAllViolations(t *testing.T) {
	err := Validate("comment", &CommentPayload{})
	ve := asValidationError(t, err)
	if len(ve.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(ve.Violations), ve.Details())
	}
	if ve.Violations[0].Field != "content" || ve.Violations[1].Field != "postId" {
		t.Fatalf("unexpected violation order: %+v", ve.Violations)
	}
}

func TestValidateCommentEmptyParentRejected(t *testing.T) {
	empty := "  "
	err := Validate("comment", &CommentPayload{Content: "hi", PostID: "p1", ParentCommentID: &empty})
	ve := asValidationError(t, err)
	if ve.Field() != "parentCommentId" {
		t.Fatalf("expected parentCommentId violation, got %q", ve.Field())
	}
}

func TestValidateCommunity(t *testing.T) {
	valid := func() *CommunityPayload {
		return &CommunityPayload{
			Title:       "Caregivers Connect",
			Description: "A place to share advice and support.",
			Tags:        []string{"support"},
			Location:    LocationPayload{Region: "northeast"},
		}
	}

	if err := Validate("community", valid()); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	t.Run("short title", func(t *testing.T) {
		p := valid()
		p.Title = "ab"
		ve := asValidationError(t, Validate("community", p))
		if ve.Field() != "title" {
			t.Fatalf("expected title, got %q", ve.Field())
		}
	})

	t.Run("no tags", func(t *testing.T) {
		p := valid()
		p.Tags = nil
		ve := asValidationError(t, Validate("community", p))
		if ve.Field() != "tags" {
			t.Fatalf("expected tags, got %q", ve.Field())
		}
	})

	t.Run("too many tags", func(t *testing.T) {
		p := valid()
		p.Tags = make([]string, 11)
		for i := range p.Tags {
			p.Tags[i] = "t"
		}
		ve := asValidationError(t, Validate("community", p))
		if ve.Field() != "tags" {
			t.Fatalf("expected tags, got %q", ve.Field())
		}
	})

	t.Run("missing region", func(t *testing.T) {
		p := valid()
		p.Location.Region = " "
		ve := asValidationError(t, Validate("community", p))
		if ve.Field() != "location.region" {
			t.Fatalf("expected location.region, got %q", ve.Field())
		}
	})

	t.Run("everything wrong at once", func(t *testing.T) {
		ve := asValidationError(t, Validate("community", &CommunityPayload{}))
		// title, description, tags, region
		if len(ve.Violations) != 4 {
			t.Fatalf("expected 4 violations, got %d: %v", len(ve.Violations), ve.Details())
		}
	})
}

func TestValidatePost(t *testing.T) {
	if err := Validate("post", &PostPayload{
		Title:       "Looking for respite care tips",
		Content:     "Any recommendations?",
		CommunityID: "c1",
	}); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	ve := asValidationError(t, Validate("post", &PostPayload{Title: strings.Repeat("a", 201)}))
	fields := make([]string, 0, len(ve.Violations))
	for _, v := range ve.Violations {
		fields = append(fields, v.Field)
	}
	want := []string{"title", "content", "communityId"}
	if len(fields) != len(want) {
		t.Fatalf("expected %v, got %v", want, fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fields)
		}
	}
}

func TestValidateUnknownSchemaPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown schema")
		}
	}()
	_ = Validate("nope", &PostPayload{})
}
