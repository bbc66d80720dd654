package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestManagerAddUseClear(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mgr := NewManager()
	mgr.Add(func(c *gin.Context) {
		c.Header("X-Chain", "ran")
	})

	engine := gin.New()
	engine.Use(mgr.Use())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Header().Get("X-Chain") != "ran" {
		t.Fatal("registered middleware did not run")
	}

	// Clear drains the chain without remounting the engine
	mgr.Clear()
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Header().Get("X-Chain") != "" {
		t.Fatal("cleared middleware still ran")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("handler must still run after Clear, got %d", rec.Code)
	}
}

func TestManagerAbortStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mgr := NewManager()
	mgr.Add(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTeapot)
	})
	mgr.Add(func(c *gin.Context) {
		c.Header("X-After-Abort", "ran")
	})

	engine := gin.New()
	engine.Use(mgr.Use())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("abort status lost, got %d", rec.Code)
	}
	if rec.Header().Get("X-After-Abort") != "" {
		t.Fatal("chain continued past an abort")
	}
}
