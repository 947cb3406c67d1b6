package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRequestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestIDKeepsValidHeader(t *testing.T) {
	router := newRequestIDRouter()

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", supplied)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != supplied {
		t.Fatalf("expected request id %q to be kept, got %q", supplied, got)
	}
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	router := newRequestIDRouter()

	cases := []string{"", "not-a-uuid", "alice\nADMIN=true"}
	for _, supplied := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if supplied != "" {
			req.Header.Set("X-Request-ID", supplied)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		got := rec.Header().Get("X-Request-ID")
		if got == supplied {
			t.Fatalf("expected request id %q to be replaced", supplied)
		}
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("expected generated request id to be a uuid, got %q", got)
		}
	}
}
