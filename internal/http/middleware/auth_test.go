package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/flora-backend/internal/domain/chat"
	"github.com/yungbote/flora-backend/internal/platform/ctxutil"
	"github.com/yungbote/flora-backend/internal/platform/logger"
	"github.com/yungbote/flora-backend/internal/services"
)

func newAuthRouter(t *testing.T) (*gin.Engine, services.SessionService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions, err := services.NewSessionService(logger.Nop(), "test-secret")
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	am := NewAuthMiddleware(logger.Nop(), sessions)

	whoami := func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, rd.Role)
	}

	r := gin.New()
	r.GET("/open", am.OptionalAuth(), whoami)
	r.GET("/me", am.RequireAuth(), whoami)
	r.GET("/educators", am.RequireAuth(), RequireRole("educator"), whoami)
	return r, sessions
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	r, sessions := newAuthRouter(t)
	student, _ := sessions.Issue(uuid.New(), "Sam", chat.RoleStudent, time.Hour)
	educator, _ := sessions.Issue(uuid.New(), "Eve", chat.RoleEducator, time.Hour)

	cases := []struct {
		name   string
		path   string
		token  string
		status int
		body   string
	}{
		{name: "optional_anonymous", path: "/open", status: http.StatusOK, body: "anonymous"},
		{name: "optional_bad_token", path: "/open", token: "junk", status: http.StatusOK, body: "anonymous"},
		{name: "optional_signed_in", path: "/open", token: student, status: http.StatusOK, body: "student"},
		{name: "required_missing", path: "/me", status: http.StatusUnauthorized},
		{name: "required_bad", path: "/me", token: "junk", status: http.StatusUnauthorized},
		{name: "required_ok", path: "/me", token: student, status: http.StatusOK, body: "student"},
		{name: "role_wrong", path: "/educators", token: student, status: http.StatusForbidden},
		{name: "role_ok", path: "/educators", token: educator, status: http.StatusOK, body: "educator"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doGet(r, tc.path, tc.token)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.body)
			}
		})
	}
}

func TestTokenFromQuery(t *testing.T) {
	r, sessions := newAuthRouter(t)
	tok, _ := sessions.Issue(uuid.New(), "", chat.RoleResearcher, time.Hour)
	rec := doGet(r, "/me?token="+tok, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "researcher" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}
