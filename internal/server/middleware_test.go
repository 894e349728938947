package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pkk-kandri/kandri-events/internal/auth"
)

func TestRequestLoggerRecordsCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(requestLogger(zap.New(core)))
	router.GET("/events", func(c *gin.Context) {
		c.Set(auth.ContextUserID, "admin")
		c.Set(auth.ContextEmail, "admin@pkkkandri.id")
		c.Set(auth.ContextRole, "authenticated")
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected two log entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_email"] != "admin@pkkkandri.id" || fields["user_role"] != "authenticated" || fields["user_id"] != "admin" {
		t.Fatalf("caller identity not logged: %+v", fields)
	}
	if _, ok := entries[1].ContextMap()["user_email"]; ok {
		t.Fatalf("anonymous request logged with identity: %+v", entries[1].ContextMap())
	}
}

func TestCronGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		secret string
		header string
		status int
	}{
		{"", "", http.StatusOK},
		{"s3cret", "", http.StatusUnauthorized},
		{"s3cret", "Bearer wrong", http.StatusUnauthorized},
		{"s3cret", "Bearer s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		router := gin.New()
		router.GET("/check-reminders", cronGuard(tc.secret), func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/check-reminders", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("secret=%q header=%q: status = %d, want %d", tc.secret, tc.header, rec.Code, tc.status)
		}
	}
}
