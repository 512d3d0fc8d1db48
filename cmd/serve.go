package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/filtering"
	"github.com/spigell/nexaforge/internal/identity"
	"github.com/spigell/nexaforge/internal/insights"
	"github.com/spigell/nexaforge/internal/interview"
	"github.com/spigell/nexaforge/internal/jobs"
	"github.com/spigell/nexaforge/internal/metrics"
	"github.com/spigell/nexaforge/internal/profile"
	"github.com/spigell/nexaforge/internal/recruiter"
	"github.com/spigell/nexaforge/internal/server"
	"github.com/spigell/nexaforge/internal/videos"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for the web UI",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (overrides server.addr)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting the nexaforge api", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	store, err := newStore(config.Storage, logger)
	if err != nil {
		logger.Fatal("preparing storage", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNewMetrics(registry)

	assistant, err := newAssistant(ctx, config.AI, m, logger)
	if err != nil {
		logger.Fatal("building the ai assistant",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or ai.gemini.api-key-file in the configuration file"),
		)
	}

	session := identity.New(store, logger.Named("identity"))
	snap := session.Restore()
	logger.Info("session restored", zap.Bool("authenticated", snap.Authenticated))

	pipeline := filtering.NewPipeline(&config.Jobs, logger.Named("filtering"))

	iv := interview.NewSession(assistant, assistant,
		interview.WithNextQuestionDelay(config.Interview.NextQuestionDelay),
		interview.WithLogger(logger.Named("interview")),
	)
	defer iv.Close()

	srv, err := server.New(config.Server, server.Deps{
		Session:   session,
		Profile:   profile.NewBuilder(store, assistant, assistant, logger.Named("profile")),
		Interview: iv,
		Jobs:      jobs.NewBoard(assistant, pipeline, logger.Named("jobs")),
		Filters:   pipeline.Steps(),
		Recruiter: recruiter.NewPortal(assistant, recruiter.SeedCandidates(), config.Recruiter.Concurrency, logger.Named("recruiter")),
		Insights:  insights.NewDashboard(assistant, logger.Named("insights")),
		Videos:    videos.NewVault(logger.Named("videos")),
		Gatherer:  registry,
		Logger:    logger.Named("http"),
	})
	if err != nil {
		logger.Fatal("building the http server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
	logger.Info("stopped")
}

// redacted returns a copy of config that is safe to log.
func redacted(config *Config) *Config {
	copied := *config
	if config.AI != nil && config.AI.Gemini != nil {
		aiCfg := *config.AI
		geminiCfg := *config.AI.Gemini
		if geminiCfg.APIKey != "" {
			geminiCfg.APIKey = "***"
		}
		aiCfg.Gemini = &geminiCfg
		copied.AI = &aiCfg
	}
	return &copied
}
