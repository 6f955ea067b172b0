package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/flora-backend/internal/data/repos"
	"github.com/yungbote/flora-backend/internal/data/repos/testutil"
	"github.com/yungbote/flora-backend/internal/domain/chat"
	httpH "github.com/yungbote/flora-backend/internal/http/handlers"
	httpMW "github.com/yungbote/flora-backend/internal/http/middleware"
	"github.com/yungbote/flora-backend/internal/modules/chat/bridge"
	"github.com/yungbote/flora-backend/internal/modules/chat/bridge/bridgetest"
	"github.com/yungbote/flora-backend/internal/services"
)

const designerReply = "Great, here it is:\n```json\n" +
	`{"title":"Intro to CRISPR","description":"Gene editing","totalLessons":2,"topics":["Cas9","Guide RNA"],` +
	`"lessons":[{"title":"Origins","content":"Bacterial immunity"},{"title":"Cas9","content":"Cutting DNA"}]}` +
	"\n```"

type testEnv struct {
	router   *gin.Engine
	model    *bridgetest.Model
	sessions services.SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)

	model := &bridgetest.Model{Chunks: []string{"AB", "CD", "EF"}}
	runner := bridge.New(model, log)
	sessions, err := services.NewSessionService(log, "router-test-secret")
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	courses := services.NewCourseService(db, log,
		repos.NewCourseRepo(db, log),
		repos.NewLessonRepo(db, log),
		repos.NewEnrollmentRepo(db, log),
		repos.NewActivityRepo(db, log),
	)
	designer := services.NewDesignerService(log, runner, services.NewMemoryDraftStore(time.Hour), courses)

	router := NewRouter(RouterConfig{
		Log:               log,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, sessions),
		HealthHandler:     httpH.NewHealthHandler(nil),
		ChatHandler:       httpH.NewChatHandler(log, services.NewChatService(log, runner)),
		DesignerHandler:   httpH.NewDesignerHandler(log, designer),
		CourseHandler:     httpH.NewCourseHandler(log, courses),
		EnrollmentHandler: httpH.NewEnrollmentHandler(log, courses),
	})
	return &testEnv{router: router, model: model, sessions: sessions}
}

func (e *testEnv) token(t *testing.T, role chat.Role, name string) string {
	t.Helper()
	tok, err := e.sessions.Issue(uuid.New(), name, role, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func chatBody(role string, msgs ...string) map[string]any {
	var list []map[string]string
	for i, m := range msgs {
		r := "user"
		if i%2 == 1 {
			r = "assistant"
		}
		list = append(list, map[string]string{"role": r, "content": m})
	}
	return map[string]any{"messages": list, "role": role}
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(stdhttp.MethodGet, "/healthcheck", "", nil)
	if rec.Code != stdhttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id not attached")
	}
}

func TestChatStreamsPlainText(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(stdhttp.MethodPost, "/api/chat", "", chatBody("student", "What is PCR?"))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body=%q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content-type = %q", ct)
	}
	if rec.Body.String() != "ABCDEF" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if got := rec.Result().Trailer.Get("X-Stream-Status"); got != "complete" {
		t.Fatalf("stream status trailer = %q", got)
	}
	if !rec.Flushed {
		t.Fatalf("response was never flushed")
	}
}

func TestChatRejectsBadBody(t *testing.T) {
	env := newTestEnv(t)
	for name, body := range map[string]any{
		"not_json":       "nope",
		"empty_messages": map[string]any{"messages": []any{}},
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(stdhttp.MethodPost, "/api/chat", "", body)
			if rec.Code != stdhttp.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if len(env.model.Requests()) != 0 {
				t.Fatalf("model called for a bad request")
			}
		})
	}
}

func TestChatFailureBeforeStream(t *testing.T) {
	env := newTestEnv(t)
	env.model.OpenErr = stdhttp.ErrHandlerTimeout
	rec := env.do(stdhttp.MethodPost, "/api/chat", "", chatBody("student", "hi"))

	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Error string `json:"error"`
	}
	decode(t, rec, &out)
	if out.Error != "Failed to generate response" {
		t.Fatalf("error = %q", out.Error)
	}
}

func TestChatFailureMidStream(t *testing.T) {
	env := newTestEnv(t)
	env.model.FailAfter = 2
	rec := env.do(stdhttp.MethodPost, "/api/chat", "", chatBody("student", "hi"))

	if rec.Code != stdhttp.StatusOK || rec.Body.String() != "ABCD" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if got := rec.Result().Trailer.Get("X-Stream-Status"); got != "truncated" {
		t.Fatalf("stream status trailer = %q", got)
	}
}

func TestChatSignedInRoleWins(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, chat.RoleResearcher, "Rae")
	body := chatBody("educator", "hi")
	body["mode"] = "designer"
	if rec := env.do(stdhttp.MethodPost, "/api/chat", tok, body); rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if sys := env.model.Requests()[0].System; !strings.HasPrefix(sys, `You are "LabMate"`) {
		t.Fatalf("system = %q", sys)
	}
}

func TestDesignerToEnrollmentFlow(t *testing.T) {
	env := newTestEnv(t)
	educator := env.token(t, chat.RoleEducator, "Dr. Osei")
	student := env.token(t, chat.RoleStudent, "Sam")

	if rec := env.do(stdhttp.MethodPost, "/api/designer/sessions", student, nil); rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("student opened a designer session: %d", rec.Code)
	}

	rec := env.do(stdhttp.MethodPost, "/api/designer/sessions", educator, nil)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("start session status = %d", rec.Code)
	}
	var started struct {
		SessionID string `json:"session_id"`
	}
	decode(t, rec, &started)
	base := "/api/designer/sessions/" + started.SessionID

	if rec := env.do(stdhttp.MethodGet, base+"/draft", educator, nil); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("draft before any turn: %d", rec.Code)
	}

	env.model.Chunks = []string{designerReply[:30], designerReply[30:]}
	rec = env.do(stdhttp.MethodPost, base+"/messages", educator, map[string]any{
		"messages": []map[string]string{
			{"role": "assistant", "content": "Hello! I'm your Biotech Course Architect."},
			{"role": "user", "content": "A CRISPR course, two lessons"},
		},
	})
	if rec.Code != stdhttp.StatusOK || rec.Body.String() != designerReply {
		t.Fatalf("designer turn status=%d body=%q", rec.Code, rec.Body.String())
	}
	if got := rec.Result().Trailer.Get("X-Draft-Updated"); got != "true" {
		t.Fatalf("draft trailer = %q", got)
	}

	rec = env.do(stdhttp.MethodGet, base+"/draft", educator, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("get draft status = %d", rec.Code)
	}

	rec = env.do(stdhttp.MethodPost, base+"/finalize", educator, nil)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("finalize status = %d body=%s", rec.Code, rec.Body.String())
	}
	var finalized struct {
		CourseID string `json:"course_id"`
		Course   struct {
			EnrollCode    string   `json:"enrollCode"`
			TotalLessons  int      `json:"totalLessons"`
			IsAIGenerated bool     `json:"isAIGenerated"`
			Topics        []string `json:"topics"`
		} `json:"course"`
	}
	decode(t, rec, &finalized)
	if finalized.Course.TotalLessons != 2 || !finalized.Course.IsAIGenerated || finalized.Course.EnrollCode == "" {
		t.Fatalf("course = %+v", finalized.Course)
	}

	rec = env.do(stdhttp.MethodGet, "/api/courses", educator, nil)
	var listed struct {
		Courses []struct {
			Title  string   `json:"title"`
			Topics []string `json:"topics"`
		} `json:"courses"`
	}
	decode(t, rec, &listed)
	if len(listed.Courses) != 1 || listed.Courses[0].Title != "Intro to CRISPR" || len(listed.Courses[0].Topics) != 2 {
		t.Fatalf("courses = %+v", listed.Courses)
	}

	rec = env.do(stdhttp.MethodPost, "/api/enrollments", student, map[string]string{"code": "bogus1"})
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bogus code status = %d", rec.Code)
	}
	rec = env.do(stdhttp.MethodPost, "/api/enrollments", student, map[string]string{"code": strings.ToLower(finalized.Course.EnrollCode)})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("enroll status = %d body=%s", rec.Code, rec.Body.String())
	}
	rec = env.do(stdhttp.MethodPost, "/api/enrollments", student, map[string]string{"code": finalized.Course.EnrollCode})
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("double enroll status = %d", rec.Code)
	}

	progressPath := "/api/enrollments/" + finalized.CourseID + "/progress"
	if rec := env.do(stdhttp.MethodPatch, progressPath, student, map[string]int{"progress": 50}); rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("progress without completedLessons status = %d", rec.Code)
	}
	rec = env.do(stdhttp.MethodPatch, progressPath, student, map[string]any{"completedLessons": 1, "lastTopic": "Cas9"})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("progress status = %d body=%s", rec.Code, rec.Body.String())
	}
	var patched struct {
		Enrollment struct {
			Percent int `json:"percent"`
		} `json:"enrollment"`
	}
	decode(t, rec, &patched)
	if patched.Enrollment.Percent != 50 {
		t.Fatalf("percent = %d, want 50", patched.Enrollment.Percent)
	}

	rec = env.do(stdhttp.MethodGet, "/api/enrollments", student, nil)
	var enrolled struct {
		Enrollments []struct {
			Title            string `json:"title"`
			TotalLessons     int    `json:"totalLessons"`
			CompletedLessons int    `json:"completedLessons"`
			Percent          int    `json:"percent"`
			LastTopic        string `json:"lastTopic"`
		} `json:"enrollments"`
	}
	decode(t, rec, &enrolled)
	if len(enrolled.Enrollments) != 1 {
		t.Fatalf("enrollments = %+v", enrolled.Enrollments)
	}
	if got := enrolled.Enrollments[0]; got.Title != "Intro to CRISPR" || got.TotalLessons != 2 || got.CompletedLessons != 1 || got.Percent != 50 || got.LastTopic != "Cas9" {
		t.Fatalf("enrollment = %+v", got)
	}

	rec = env.do(stdhttp.MethodGet, "/api/activity", student, nil)
	var activity struct {
		Activity []struct {
			Type  string `json:"type"`
			Title string `json:"title"`
		} `json:"activity"`
	}
	decode(t, rec, &activity)
	if len(activity.Activity) != 2 {
		t.Fatalf("activity = %+v", activity.Activity)
	}
	seen := map[string]bool{}
	for _, ev := range activity.Activity {
		seen[ev.Type] = true
	}
	if !seen["enrolled"] || !seen["lesson_completed"] {
		t.Fatalf("activity types = %+v", activity.Activity)
	}
	if rec := env.do(stdhttp.MethodGet, "/api/activity?limit=x", student, nil); rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}

	rec = env.do(stdhttp.MethodGet, "/api/courses/"+finalized.CourseID+"/lessons", student, nil)
	var lessons struct {
		Lessons []struct {
			Title string `json:"title"`
			Order int    `json:"order"`
		} `json:"lessons"`
	}
	decode(t, rec, &lessons)
	if len(lessons.Lessons) != 2 || lessons.Lessons[0].Order != 1 || lessons.Lessons[1].Title != "Cas9" {
		t.Fatalf("lessons = %+v", lessons.Lessons)
	}

	if rec := env.do(stdhttp.MethodDelete, base+"/draft", educator, nil); rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("discard status = %d", rec.Code)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/courses", "/api/enrollments", "/api/activity"} {
		if rec := env.do(stdhttp.MethodGet, path, "", nil); rec.Code != stdhttp.StatusUnauthorized {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}
