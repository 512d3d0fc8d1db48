package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spigell/nexaforge/internal/errs"
	"github.com/spigell/nexaforge/internal/filtering"
	"github.com/spigell/nexaforge/internal/i18n"
	"github.com/spigell/nexaforge/internal/identity"
	"github.com/spigell/nexaforge/internal/interview"
	"github.com/spigell/nexaforge/internal/profile"
	"github.com/spigell/nexaforge/internal/recruiter"
	"github.com/spigell/nexaforge/internal/videos"
)

// respondError maps err to a status code. state, when given, is the view-model state after the
// failed operation so clients can redraw without another request.
func respondError(c *gin.Context, err error, state any) {
	status := http.StatusInternalServerError
	var maxBytes *http.MaxBytesError
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsCapability(err):
		status = http.StatusBadGateway
	case errors.As(err, &maxBytes):
		status = http.StatusRequestEntityTooLarge
	}

	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	if state != nil {
		body["state"] = state
	}
	c.JSON(status, body)
}

// callContext is the context for capability calls. Once issued a call runs until it settles,
// so a client that goes away does not cancel it.
func callContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// bind decodes the JSON body into v. Body errors are reported as validation errors.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(c, err, nil)
			return false
		}
		respondError(c, errs.Validation("body", fmt.Sprintf("invalid request body: %s", err)), nil)
		return false
	}
	return true
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *handlers) login(c *gin.Context) {
	var req identity.LoginRequest
	if !bind(c, &req) {
		return
	}
	if _, err := h.Session.Login(req); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.Session.Logout(); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *handlers) setLocale(c *gin.Context) {
	var req struct {
		Locale string `json:"locale"`
	}
	if !bind(c, &req) {
		return
	}
	if _, err := h.Session.SetLocale(req.Locale); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

// locale picks the request's language, falling back to the session locale.
func (h *handlers) locale(code string) (i18n.Language, error) {
	if strings.TrimSpace(code) == "" {
		return h.Session.Locale(), nil
	}
	return i18n.Parse(code)
}

func (h *handlers) getProfile(c *gin.Context) {
	c.JSON(http.StatusOK, h.Profile.State())
}

func (h *handlers) resetProfile(c *gin.Context) {
	state, err := h.Profile.Reset()
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) setView(c *gin.Context) {
	var req struct {
		View profile.View `json:"view"`
	}
	if !bind(c, &req) {
		return
	}
	state, err := h.Profile.SetView(req.View)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) updateField(c *gin.Context) {
	var req struct {
		Key    string `json:"key"`
		Locale string `json:"locale"`
		Value  string `json:"value"`
	}
	if !bind(c, &req) {
		return
	}
	lang, err := h.locale(req.Locale)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	state, err := h.Profile.UpdateField(req.Key, lang, req.Value)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) extractProfile(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if !bind(c, &req) {
		return
	}
	state, err := h.Profile.Extract(callContext(c), req.Text)
	if err != nil {
		respondError(c, err, h.Profile.State())
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) translateField(c *gin.Context) {
	var req struct {
		Key       string   `json:"key"`
		Languages []string `json:"languages"`
	}
	if !bind(c, &req) {
		return
	}

	langs := make([]i18n.Language, 0, len(req.Languages))
	for _, code := range req.Languages {
		lang, err := i18n.Parse(code)
		if err != nil {
			respondError(c, err, nil)
			return
		}
		langs = append(langs, lang)
	}

	state, err := h.Profile.Translate(callContext(c), req.Key, langs)
	if err != nil {
		respondError(c, err, h.Profile.State())
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) addSkill(c *gin.Context) {
	var req struct {
		Locale string `json:"locale"`
		Value  string `json:"value"`
	}
	if !bind(c, &req) {
		return
	}
	lang, err := h.locale(req.Locale)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	state, err := h.Profile.AddSkill(lang, req.Value)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) removeSkill(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, errs.Validation("index", "must be a number"), nil)
		return
	}
	state, err := h.Profile.RemoveSkill(index)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) getInterview(c *gin.Context) {
	c.JSON(http.StatusOK, h.Interview.State())
}

func (h *handlers) updateDraft(c *gin.Context) {
	var draft interview.Draft
	if !bind(c, &draft) {
		return
	}
	state, err := h.Interview.UpdateDraft(draft)
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) draftAnswer(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if !bind(c, &req) {
		return
	}
	state, err := h.Interview.DraftAnswer(req.Text)
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) startInterview(c *gin.Context) {
	state, err := h.Interview.Start(callContext(c))
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) submitAnswer(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if !bind(c, &req) {
		return
	}
	state, err := h.Interview.Submit(callContext(c), req.Text)
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) restartInterview(c *gin.Context) {
	state, err := h.Interview.Restart()
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) getJobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.Jobs.State())
}

func (h *handlers) getFilters(c *gin.Context) {
	c.JSON(http.StatusOK, filtering.Describe(h.Filters))
}

func (h *handlers) searchJobs(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if !bind(c, &req) {
		return
	}
	state, err := h.Jobs.Search(callContext(c), req.Query)
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) getRecruiter(c *gin.Context) {
	c.JSON(http.StatusOK, h.Recruiter.State())
}

type matchResponse struct {
	State  recruiter.State  `json:"state"`
	Report recruiter.Report `json:"report"`
}

func (h *handlers) matchCandidates(c *gin.Context) {
	var req struct {
		JobDescription string `json:"jobDescription"`
	}
	if !bind(c, &req) {
		return
	}
	state, report, err := h.Recruiter.Match(callContext(c), req.JobDescription)
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, matchResponse{State: state, Report: report})
}

func (h *handlers) getInsights(c *gin.Context) {
	c.JSON(http.StatusOK, h.Insights.State())
}

func (h *handlers) generateInsights(c *gin.Context) {
	state, err := h.Insights.Generate(callContext(c))
	if err != nil {
		respondError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) listVideos(c *gin.Context) {
	c.JSON(http.StatusOK, h.Videos.List())
}

func (h *handlers) addVideo(c *gin.Context) {
	var upload videos.Upload
	if !bind(c, &upload) {
		return
	}
	video, err := h.Videos.Add(upload)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, video)
}

func (h *handlers) removeVideo(c *gin.Context) {
	if !h.Videos.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
