package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/http/response"
	"github.com/yungbote/learnpath-backend/internal/pathengine"
	"github.com/yungbote/learnpath-backend/internal/platform/apierr"
	"github.com/yungbote/learnpath-backend/internal/services"
)

type fakePaths struct {
	jobID string
	have  []string
	err   error
}

func (f *fakePaths) Generate(ctx context.Context, jobID string, userSkills []string) (*pathengine.Result, error) {
	f.jobID, f.have = jobID, userSkills
	if f.err != nil {
		return nil, f.err
	}
	return &pathengine.Result{
		JobID:         jobID,
		Skills:        []domain.NodeView{{ID: "H1", Name: "Statistics", Type: domain.TypeHardSkill}},
		Prerequisites: []domain.Prerequisite{domain.NewPrerequisite("H1", "C1", false, 0.8)},
		Paths:         map[string][]string{"H1": {"C1", "H1"}},
		Strategy:      pathengine.StrategyDP,
	}, nil
}

type fakeSkills struct {
	query string
	ids   []string
	err   error
}

func (f *fakeSkills) Search(ctx context.Context, q string) ([]domain.NodeView, error) {
	f.query = q
	return []domain.NodeView{{ID: "go", Name: "Go", Type: domain.TypeHardSkill}}, f.err
}

func (f *fakeSkills) List(ctx context.Context) ([]domain.NodeView, error) {
	return []domain.NodeView{{ID: "go", Name: "Go", Type: domain.TypeHardSkill}}, f.err
}

func (f *fakeSkills) ExistingPrerequisites(ctx context.Context, ids []string) ([]domain.Prerequisite, error) {
	f.ids = ids
	return []domain.Prerequisite{}, f.err
}

type fakeHealth struct{ err error }

func (f *fakeHealth) Check(ctx context.Context) (*services.HealthStatus, error) {
	if f.err != nil {
		return &services.HealthStatus{Status: "unhealthy", Error: f.err.Error()}, f.err
	}
	return &services.HealthStatus{Status: "healthy", Connection: "ok"}, nil
}

func newEngine(t *testing.T, paths services.LearningPathService, skills services.SkillService, health services.HealthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}
	r := gin.New()
	lp := NewLearningPathHandler(paths)
	sk := NewSkillHandler(skills)
	hh := NewHealthHandler(health)
	r.POST("/api/generate-path", lp.GeneratePath)
	r.GET("/api/jobs/:id/learning-path", lp.GetJobLearningPath)
	r.GET("/api/skills/search", sk.Search)
	r.GET("/api/skills", sk.List)
	r.POST("/api/skills/prerequisites", sk.Prerequisites)
	r.GET("/healthcheck", hh.HealthCheck)
	r.GET("/health", hh.Health)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, rec.Body.String())
	}
	return env.Error
}

func TestGeneratePath(t *testing.T) {
	paths := &fakePaths{}
	r := newEngine(t, paths, &fakeSkills{}, &fakeHealth{})

	rec := do(r, http.MethodPost, "/api/generate-path", `{"jobId":"job-1","userSkills":["C9"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if paths.jobID != "job-1" || len(paths.have) != 1 || paths.have[0] != "C9" {
		t.Fatalf("unexpected service args: job=%q have=%v", paths.jobID, paths.have)
	}

	var got struct {
		JobID    string              `json:"jobId"`
		Paths    map[string][]string `json:"paths"`
		Strategy string              `json:"strategy"`
		Prereqs  []map[string]any    `json:"prerequisites"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.JobID != "job-1" || got.Strategy != "dp" || len(got.Paths["H1"]) != 2 || len(got.Prereqs) != 1 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGeneratePathRejectsInvalidBodies(t *testing.T) {
	cases := map[string]string{
		"missing job":      `{"userSkills":[]}`,
		"blank job":        `{"jobId":"   "}`,
		"control in skill": `{"jobId":"j","userSkills":["a\u0007b"]}`,
		"blank skill":      `{"jobId":"j","userSkills":[""]}`,
		"not json":         `jobId=j`,
	}
	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			paths := &fakePaths{}
			rec := do(newEngine(t, paths, &fakeSkills{}, &fakeHealth{}), http.MethodPost, "/api/generate-path", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
			}
			if code := decodeError(t, rec).Code; code != "invalid_request" {
				t.Fatalf("unexpected code: %q", code)
			}
			if paths.jobID != "" {
				t.Fatal("service should not be called for an invalid request")
			}
		})
	}
}

func TestGeneratePathMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no skills", apierr.NotFound("no_job_skills", fmt.Errorf("%w: j", domain.ErrNoJobSkills)), http.StatusNotFound, "no_job_skills"},
		{"unavailable", apierr.Unavailable("graph_unavailable", fmt.Errorf("%w: dial", domain.ErrGraphUnavailable)), http.StatusServiceUnavailable, "graph_unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newEngine(t, &fakePaths{err: tc.err}, &fakeSkills{}, &fakeHealth{}), http.MethodPost, "/api/generate-path", `{"jobId":"j"}`)
			if rec.Code != tc.status {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tc.status)
			}
			apiErr := decodeError(t, rec)
			if apiErr.Code != tc.code {
				t.Fatalf("unexpected code: got=%q want=%q", apiErr.Code, tc.code)
			}
			if apiErr.Message == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestGetJobLearningPathParsesHave(t *testing.T) {
	paths := &fakePaths{}
	rec := do(newEngine(t, paths, &fakeSkills{}, &fakeHealth{}), http.MethodGet, "/api/jobs/job-7/learning-path?have=a,%20b,,c", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if paths.jobID != "job-7" {
		t.Fatalf("unexpected job id: %q", paths.jobID)
	}
	if strings.Join(paths.have, "|") != "a|b|c" {
		t.Fatalf("unexpected user skills: %v", paths.have)
	}
}

func TestSkillEndpoints(t *testing.T) {
	skills := &fakeSkills{}
	r := newEngine(t, &fakePaths{}, skills, &fakeHealth{})

	rec := do(r, http.MethodGet, "/api/skills/search?q=golang", "")
	if rec.Code != http.StatusOK || skills.query != "golang" {
		t.Fatalf("search: status=%d query=%q", rec.Code, skills.query)
	}
	if !strings.Contains(rec.Body.String(), `"skills"`) {
		t.Fatalf("unexpected search body: %s", rec.Body.String())
	}

	rec = do(r, http.MethodGet, "/api/skills", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status=%d", rec.Code)
	}

	rec = do(r, http.MethodPost, "/api/skills/prerequisites", `{"skillIds":["a","b"]}`)
	if rec.Code != http.StatusOK || len(skills.ids) != 2 {
		t.Fatalf("prerequisites: status=%d ids=%v", rec.Code, skills.ids)
	}

	rec = do(r, http.MethodPost, "/api/skills/prerequisites", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("prerequisites without ids: status=%d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	rec := do(newEngine(t, &fakePaths{}, &fakeSkills{}, &fakeHealth{}), http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: status=%d body=%q", rec.Code, rec.Body.String())
	}

	rec = do(newEngine(t, &fakePaths{}, &fakeSkills{}, &fakeHealth{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Fatalf("health: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(newEngine(t, &fakePaths{}, &fakeSkills{}, &fakeHealth{err: errors.New("down")}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"unhealthy"`) {
		t.Fatalf("health down: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
