package cli

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/forPelevin/storyreel/internal/domain/story"
	"github.com/forPelevin/storyreel/internal/domain/voice"
	"github.com/forPelevin/storyreel/internal/pipeline"
	"github.com/forPelevin/storyreel/internal/ports/adapters/elevenlabs"
	"github.com/forPelevin/storyreel/internal/ports/adapters/endpoint"
	"github.com/forPelevin/storyreel/internal/ports/adapters/openrouter"
	"github.com/forPelevin/storyreel/internal/ports/adapters/pollinations"
)

// loadConfig assembles the pipeline config from flags and environment.
func loadConfig(cmd *cobra.Command, log *zap.Logger) pipeline.Config {
	outDir, _ := cmd.Flags().GetString("out")

	return pipeline.Config{
		OutDir: outDir,
		Logger: log,

		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),

		StoryProvider: getenvDefault("STORY_PROVIDER", pipeline.ProviderOpenRouter),

		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:        getenvDefault("OPENROUTER_MODEL", openrouter.DefaultModel),
		OpenRouterBaseURL:      getenvDefault("OPENROUTER_BASE_URL", openrouter.Endpoint.Default),
		OpenRouterAllowedHosts: endpoint.SplitHosts(os.Getenv("OPENROUTER_ALLOWED_HOSTS")),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIAllowedHosts: endpoint.SplitHosts(os.Getenv("OPENAI_ALLOWED_HOSTS")),

		ElevenLabsAPIKey:       os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsModel:        getenvDefault("ELEVENLABS_MODEL", elevenlabs.DefaultModel),
		ElevenLabsBaseURL:      os.Getenv("ELEVENLABS_BASE_URL"),
		ElevenLabsAllowedHosts: endpoint.SplitHosts(os.Getenv("ELEVENLABS_ALLOWED_HOSTS")),

		PollinationsBaseURL:      getenvDefault("POLLINATIONS_BASE_URL", pollinations.Endpoint.Default),
		PollinationsAllowedHosts: endpoint.SplitHosts(os.Getenv("POLLINATIONS_ALLOWED_HOSTS")),
		ImageStyle:               getenvDefault("IMAGE_STYLE", story.DefaultStyle),
		SceneSuffix:              os.Getenv("SCENE_PROMPT_SUFFIX"),

		ImageConcurrency: getenvInt("IMAGE_CONCURRENCY", 2),
		ImageInterval:    getenvDuration("IMAGE_INTERVAL", 0),
		ImageCacheTTL:    getenvDuration("IMAGE_CACHE_TTL", 30*time.Minute),

		Voices: voice.DefaultTable(),
	}
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}
