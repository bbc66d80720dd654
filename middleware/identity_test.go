package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"CareGene/tools/errs"
	"CareGene/validation"

	"github.com/gin-gonic/gin"
)

func newIdentityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", Identity(), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, u)
	})
	return r
}

func TestIdentityExtractsHeaders(t *testing.T) {
	r := newIdentityRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "u1")
	req.Header.Set(HeaderUserEmail, "u1@example.com")
	req.Header.Set(HeaderUserName, "Pat")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	var u UserRecord
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" || u.Email != "u1@example.com" || u.Name != "Pat" {
		t.Fatalf("unexpected record: %+v", u)
	}
}

func TestIdentityMissingIDRejects(t *testing.T) {
	r := newIdentityRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "   ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Error != errs.ErrMissingIdentity.Msg {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteErrorValidationKeepsAllViolations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/fail", WrapE(func(c *gin.Context) error {
		return validation.Validate("community", &validation.CommunityPayload{})
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Field != "title" {
		t.Fatalf("first offending field should surface, got %q", env.Field)
	}
	if len(env.Details) != 4 {
		t.Fatalf("expected the full violation list, got %v", env.Details)
	}
}

func TestWriteErrorCodeErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/fail", WrapE(func(c *gin.Context) error {
		return errs.ErrNotFound.WrapMsg("conversation", "id", "abc")
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestWriteErrorUnclassifiedShowsDetailOutsideProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", WrapE(func(c *gin.Context) error {
		return errs.New("disk on fire").Wrap()
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if len(env.Details) == 0 {
		t.Fatal("development mode should carry the raw message")
	}
}
