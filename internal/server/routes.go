package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlers struct {
	Deps
}

// RegisterRoutes builds the gin engine with every API route. Unset config and deps fall back
// to the same defaults New applies.
func RegisterRoutes(cfg Config, deps Deps) http.Handler {
	cfg = cfg.withDefaults()
	deps = deps.withDefaults()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger), sizeLimit(cfg.MaxBodyBytes))

	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	h := &handlers{Deps: deps}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		session := api.Group("/session")
		{
			session.GET("", h.getSession)
			session.POST("/login", h.login)
			session.POST("/logout", h.logout)
			session.PUT("/locale", h.setLocale)
		}

		cv := api.Group("/cv")
		{
			cv.GET("", h.getProfile)
			cv.DELETE("", h.resetProfile)
			cv.PUT("/view", h.setView)
			cv.PATCH("/fields", h.updateField)
			cv.POST("/extract", h.extractProfile)
			cv.POST("/translate", h.translateField)
			cv.POST("/skills", h.addSkill)
			cv.DELETE("/skills/:index", h.removeSkill)
		}

		iv := api.Group("/interview")
		{
			iv.GET("", h.getInterview)
			iv.PUT("/draft", h.updateDraft)
			iv.PUT("/answer", h.draftAnswer)
			iv.POST("/start", h.startInterview)
			iv.POST("/answers", h.submitAnswer)
			iv.POST("/restart", h.restartInterview)
		}

		jobs := api.Group("/jobs")
		{
			jobs.GET("", h.getJobs)
			jobs.GET("/filters", h.getFilters)
			jobs.POST("/search", h.searchJobs)
		}

		rec := api.Group("/recruiter")
		{
			rec.GET("", h.getRecruiter)
			rec.POST("/match", h.matchCandidates)
		}

		ins := api.Group("/insights")
		{
			ins.GET("", h.getInsights)
			ins.POST("/generate", h.generateInsights)
		}

		vids := api.Group("/videos")
		{
			vids.GET("", h.listVideos)
			vids.POST("", h.addVideo)
			vids.DELETE("/:id", h.removeVideo)
		}
	}

	return r
}
