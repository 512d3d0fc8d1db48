package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/nexaforge/internal/filtering"
	"github.com/spigell/nexaforge/internal/server"
)

const (
	app = "nexaforge"
)

type Config struct {
	Storage   StorageConfig    `mapstructure:"storage"`
	AI        *AIConfig        `mapstructure:"ai"`
	Interview InterviewConfig  `mapstructure:"interview"`
	Jobs      filtering.Config `mapstructure:"jobs"`
	Recruiter RecruiterConfig  `mapstructure:"recruiter"`
	Server    server.Config    `mapstructure:"server"`
}

type StorageConfig struct {
	// Dir holds one JSON file per persisted key. Empty keeps everything in memory.
	Dir string `mapstructure:"dir"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	ReasoningModel string `mapstructure:"reasoning-model"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type InterviewConfig struct {
	NextQuestionDelay time.Duration `mapstructure:"next-question-delay"`
}

type RecruiterConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "nexaforge is a career platform: CV builder, mock interviews, job search and recruiter matching",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is nexaforge.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("storage.dir", "")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.reasoning-model", "gemini-2.5-pro")
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("interview.next-question-delay", 1500*time.Millisecond)
	viper.SetDefault("jobs.exclude-companies", []string{})
	viper.SetDefault("recruiter.concurrency", 4)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.allow-origins", []string{})
	viper.SetDefault("server.max-body-bytes", 1<<20)
}

func initConfig() {
	// A local .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix("NEXAFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// We can't proceed if an explicitly given config cannot be parsed.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
