package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/filtering"
	"github.com/spigell/nexaforge/internal/i18n"
	"github.com/spigell/nexaforge/internal/identity"
	"github.com/spigell/nexaforge/internal/insights"
	"github.com/spigell/nexaforge/internal/interview"
	"github.com/spigell/nexaforge/internal/jobs"
	"github.com/spigell/nexaforge/internal/metrics"
	"github.com/spigell/nexaforge/internal/profile"
	"github.com/spigell/nexaforge/internal/recruiter"
	"github.com/spigell/nexaforge/internal/storage"
	"github.com/spigell/nexaforge/internal/videos"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAssistant struct {
	searchErr error
	// evalDelay makes EvaluateAnswer wait, honoring ctx, before it scores.
	evalDelay time.Duration
}

func (f *fakeAssistant) SearchJobs(context.Context, string) ([]jobs.Listing, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []jobs.Listing{
		{Title: "Go Engineer", Company: "Acme", URL: "https://acme.io/jobs/1"},
		{Title: "Go Engineer", Company: "Acme", URL: "https://acme.io/jobs/1/"},
		{Title: "", Company: "Ghost", URL: "https://ghost.io"},
	}, nil
}

func (f *fakeAssistant) ExtractProfile(context.Context, string) (*profile.Profile, error) {
	p := profile.Empty()
	p.FullName = i18n.Of(i18n.English, "Sarah Jenkins")
	return &p, nil
}

func (f *fakeAssistant) Translate(_ context.Context, _ string, langs []i18n.Language) (map[i18n.Language]string, error) {
	out := make(map[i18n.Language]string, len(langs))
	for _, l := range langs {
		out[l] = "translated"
	}
	return out, nil
}

func (f *fakeAssistant) GenerateQuestions(context.Context, interview.Draft) ([]interview.Question, error) {
	return []interview.Question{{Text: "Why Go?", Context: "warm-up"}}, nil
}

func (f *fakeAssistant) EvaluateAnswer(ctx context.Context, _, _ string) (*interview.Evaluation, error) {
	if f.evalDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.evalDelay):
		}
	}
	return &interview.Evaluation{Score: 8, Feedback: "Solid."}, nil
}

func (f *fakeAssistant) CareerInsights(context.Context, string) ([]insights.Insight, error) {
	return nil, errors.New("quota exceeded")
}

func (f *fakeAssistant) MatchCandidate(_ context.Context, _ string, c recruiter.Candidate) (*recruiter.Match, error) {
	if c.ID == "2" {
		return nil, errors.New("timeout")
	}
	return &recruiter.Match{Score: 70, Insights: "Good fit."}, nil
}

func newTestRouter(t *testing.T, assistant *fakeAssistant) http.Handler {
	t.Helper()

	store := storage.NewMemoryStore()
	registry := prometheus.NewRegistry()
	metrics.MustNewMetrics(registry).Observe("job_search", 0, nil)

	pipeline := filtering.NewPipeline(&filtering.Config{}, zap.NewNop())
	iv := interview.NewSession(assistant, assistant)
	t.Cleanup(iv.Close)

	deps := Deps{
		Session:   identity.New(store, nil),
		Profile:   profile.NewBuilder(store, assistant, assistant, nil),
		Interview: iv,
		Jobs:      jobs.NewBoard(assistant, pipeline, nil),
		Filters:   pipeline.Steps(),
		Recruiter: recruiter.NewPortal(assistant, recruiter.SeedCandidates(), 2, nil),
		Insights:  insights.NewDashboard(assistant, nil),
		Videos:    videos.NewVault(nil),
		Gatherer:  registry,
		Logger:    zap.NewNop(),
	}
	return RegisterRoutes(Config{MaxBodyBytes: 1024, AllowOrigins: []string{"http://localhost:3000"}}, deps)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `nexaforge_capability_calls_total{capability="job_search",status="ok"} 1`)
}

func TestSessionLoginAndLocale(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPost, "/api/session/login", `{"email": "not-an-email", "password": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/session/login", `{"email": "sarah@example.com", "password": "secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[identity.Snapshot](t, w)
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "sarah", snap.User.Name)

	w = do(t, h, http.MethodPut, "/api/session/locale", `{"locale": "ar"}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[identity.Snapshot](t, w)
	assert.True(t, snap.RTL)

	w = do(t, h, http.MethodPut, "/api/session/locale", `{"locale": "de"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[identity.Snapshot](t, w).Authenticated)
}

func TestProfileEndpoints(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPost, "/api/cv/extract", `{"text": "Sarah Jenkins, Go developer"}`)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[profile.State](t, w)
	assert.Equal(t, "Sarah Jenkins", i18n.Resolve(state.Profile.FullName, i18n.English))

	w = do(t, h, http.MethodPost, "/api/cv/translate", `{"key": "fullName", "languages": ["fr"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	state = decode[profile.State](t, w)
	got, ok := state.Profile.FullName.Get(i18n.French)
	assert.True(t, ok)
	assert.Equal(t, "translated", got)

	w = do(t, h, http.MethodPost, "/api/cv/skills", `{"value": "Kubernetes"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[profile.State](t, w).Profile.Skills, 1)

	w = do(t, h, http.MethodDelete, "/api/cv/skills/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodDelete, "/api/cv/skills/0", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[profile.State](t, w).Profile.Skills)

	w = do(t, h, http.MethodPut, "/api/cv/view", `{"view": "sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/cv/translate", `{"key": "fullName", "languages": ["xx"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInterviewFlow(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPut, "/api/interview/draft", `{"role": "Go Engineer", "level": "expert", "cv": "8 years of Go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[interview.State](t, w)
	assert.Equal(t, interview.Lead, state.Draft.Level)

	w = do(t, h, http.MethodPut, "/api/interview/draft", `{"level": "wizard"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/interview/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, interview.Active, decode[interview.State](t, w).Phase)

	w = do(t, h, http.MethodPost, "/api/interview/answers", `{"text": "Because of goroutines."}`)
	require.Equal(t, http.StatusOK, w.Code)
	state = decode[interview.State](t, w)
	assert.Equal(t, interview.Complete, state.Phase)
	assert.Equal(t, "8.0", state.FormatMean())

	w = do(t, h, http.MethodPost, "/api/interview/restart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, interview.Preparation, decode[interview.State](t, w).Phase)

	w = do(t, h, http.MethodPost, "/api/interview/restart", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInterviewDraftWithoutLevelKeepsDefault(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPut, "/api/interview/draft", `{"role": "Go Engineer", "cv": "8 years of Go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, interview.Senior, decode[interview.State](t, w).Draft.Level)
}

func TestSubmitSurvivesClientDisconnect(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{evalDelay: 200 * time.Millisecond})

	w := do(t, h, http.MethodPut, "/api/interview/draft", `{"role": "Go Engineer", "cv": "8 years of Go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPost, "/api/interview/start", "")
	require.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	req := httptest.NewRequest(http.MethodPost, "/api/interview/answers", strings.NewReader(`{"text": "Because of goroutines."}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode[interview.State](t, w)
	assert.Equal(t, []float64{8}, state.Scores)
	assert.False(t, state.Evaluating)
	assert.Equal(t, interview.Complete, state.Phase)
}

func TestJobSearch(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPost, "/api/jobs/search", `{"query": "  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/jobs/search", `{"query": "remote go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[jobs.State](t, w)
	require.Len(t, state.Results, 1)
	assert.Equal(t, "Acme", state.Results[0].Company)

	w = do(t, h, http.MethodGet, "/api/jobs/filters", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]filtering.Status](t, w), 3)
}

func TestJobSearchFailureKeepsResults(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{searchErr: errors.New("unavailable")})

	w := do(t, h, http.MethodPost, "/api/jobs/search", `{"query": "remote go"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)

	body := decode[struct {
		Error string     `json:"error"`
		State jobs.State `json:"state"`
	}](t, w)
	assert.Contains(t, body.Error, "job search")
	assert.False(t, body.State.IsSearching)
}

func TestRecruiterMatchReportsFailures(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPost, "/api/recruiter/match", `{"jobDescription": "Staff frontend engineer"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[matchResponse](t, w)
	assert.ElementsMatch(t, []string{"1", "3", "4"}, resp.Report.Updated)
	assert.Equal(t, []string{"2"}, resp.Report.Failed)
	for _, c := range resp.State.Candidates {
		if c.ID == "2" {
			assert.Equal(t, float64(91), c.Match)
		} else {
			assert.Equal(t, float64(70), c.Match)
		}
	}
}

func TestInsightsFailureIsBadGateway(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPost, "/api/insights/generate", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(t, h, http.MethodGet, "/api/insights", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[insights.State](t, w).Placements)
}

func TestVideos(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPost, "/api/videos", `{"title": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/videos", `{"title": "System design walkthrough", "tags": ["design"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	video := decode[videos.Video](t, w)

	w = do(t, h, http.MethodGet, "/api/videos", "")
	list := decode[[]videos.Video](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, video.ID, list[0].ID)

	w = do(t, h, http.MethodDelete, "/api/videos/"+video.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodDelete, "/api/videos/"+video.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBodyLimitAndMalformedBody(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	w := do(t, h, http.MethodPost, "/api/cv/extract", `{"text": "`+strings.Repeat("a", 2048)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(t, h, http.MethodPost, "/api/jobs/search", `{"query": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{})

	req := httptest.NewRequest(http.MethodOptions, "/api/jobs/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRegisterRoutesAppliesDefaults(t *testing.T) {
	assistant := &fakeAssistant{}
	store := storage.NewMemoryStore()
	iv := interview.NewSession(assistant, assistant)
	t.Cleanup(iv.Close)

	h := RegisterRoutes(Config{}, Deps{
		Session:   identity.New(store, nil),
		Profile:   profile.NewBuilder(store, assistant, assistant, nil),
		Interview: iv,
		Jobs:      jobs.NewBoard(assistant, filtering.NewPipeline(&filtering.Config{}, nil), nil),
		Recruiter: recruiter.NewPortal(assistant, recruiter.SeedCandidates(), 0, nil),
		Insights:  insights.NewDashboard(assistant, nil),
		Videos:    videos.NewVault(nil),
	})

	w := do(t, h, http.MethodPost, "/api/jobs/search", `{"query": "remote go"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestNewRequiresViewModels(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}
