package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/ai"
	"github.com/spigell/crna-fit/internal/ai/gemini"
	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/filtering"
	"github.com/spigell/crna-fit/internal/fitscore"
	"github.com/spigell/crna-fit/internal/license"
	"github.com/spigell/crna-fit/internal/logger"
	"github.com/spigell/crna-fit/internal/profanity"
	"github.com/spigell/crna-fit/internal/secrets"
)

const (
	cacheNone   = "none"
	cacheMemory = "memory"
	cacheRedis  = "redis"

	aiAdviceStep = "ai_advice"
)

// loadProfile reads the profile from path when set, otherwise from the config.
func loadProfile(config *Config, path string) (*fitscore.UserProfile, error) {
	if path = strings.TrimSpace(path); path == "" {
		return catalog.LoadProfile(config.Profile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	var profile fitscore.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile file %s: %w", path, err)
	}
	return &profile, nil
}

func newAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Advisor, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithFields(log, logger.ProviderFields("gemini", cfg.Gemini.Model)...).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	advisorLogger := logger.WithFields(log, logger.ProviderFields("gemini", generator.Model())...)

	return gemini.NewAdvisor(generator, cfg.Gemini.MaxLogLength, advisorLogger), nil
}

func newProfanityFilter(cfg *ProfanityConfig, log *zap.Logger) (*profanity.Filter, error) {
	var source profanity.WordSource
	switch {
	case strings.TrimSpace(cfg.WordsFile) != "":
		source = profanity.FileSource{Path: cfg.WordsFile}
	case len(cfg.Words) > 0:
		source = profanity.StaticSource(cfg.Words)
	}

	var cache profanity.Cache
	switch strings.ToLower(strings.TrimSpace(cfg.Cache)) {
	case "", cacheMemory:
		cache = profanity.NewMemoryCache(cfg.TTL, nil)
	case cacheNone:
	case cacheRedis:
		if cfg.Redis == nil || strings.TrimSpace(cfg.Redis.Addr) == "" {
			return nil, fmt.Errorf("profanity.redis.addr is required for the redis cache (or set CRNA_FIT_REDIS_ADDR)")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		cache = profanity.NewRedisCache(client, cfg.Redis.Key, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown profanity cache %q", cfg.Cache)
	}

	return profanity.New(source, cache, log), nil
}

func newLicenseVerifier(cfg *LicenseConfig, log *zap.Logger) (license.Verifier, error) {
	lc := &license.Config{
		Mode:       cfg.Mode,
		APIURL:     cfg.APIURL,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Mode), license.ModeHTTP) {
		key, err := secrets.Load(secrets.Source{
			Name: "license api key",
			File: cfg.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set license.api-key-file or CRNA_FIT_LICENSE_API_KEY_FILE)", err)
		}
		lc.APIKey = key
	}

	return license.New(lc, log)
}

// optionalAdvisor returns nil when AI is disabled or cannot be set up. A broken AI setup
// only disables advice.
func optionalAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) ai.Advisor {
	if !cfg.Enabled {
		return nil
	}

	advisor, err := newAdvisor(ctx, cfg, log)
	if err != nil {
		log.Warn("skipping AI advice", zap.Error(err))
		return nil
	}
	return advisor
}

// prepareSteps builds the ranking pipeline from config.
func prepareSteps(config *Config, profile *fitscore.UserProfile, advisor ai.Advisor, log *zap.Logger) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewStates(config.Filters.States, log),
		filtering.NewExcludedSchools(config.Filters.ExcludeSchools, log),
		filtering.NewExcludeFile(config.Filters.ExcludeFile, log),
		filtering.NewMinimumScore(config.Filters.MinimumScore, log),
	}

	return append(steps, prepareAIStep(config.AI, profile, advisor, log))
}

const skipAIReason = "skipped by --skip-ai"

// newPipeline wraps prepareSteps. skipAI switches the advice step off while keeping it in
// the pipeline description.
func newPipeline(config *Config, profile *fitscore.UserProfile, advisor ai.Advisor, skipAI bool, log *zap.Logger) *filtering.Filtering {
	pipeline := filtering.New(prepareSteps(config, profile, advisor, log), log)
	if skipAI {
		pipeline.DisableByName(aiAdviceStep, skipAIReason)
	}
	return pipeline
}

func prepareAIStep(cfg *AIConfig, profile *fitscore.UserProfile, advisor ai.Advisor, log *zap.Logger) filtering.Filter {
	stepConfig := &filtering.AIAdviceConfig{
		Enabled:    cfg.Enabled,
		Provider:   cfg.Provider,
		MaxSchools: cfg.MaxSchools,
	}
	if cfg.Gemini != nil {
		stepConfig.Model = cfg.Gemini.Model
	}

	if advisor == nil {
		step := filtering.NewAIAdvice(stepConfig, nil)
		if cfg.Enabled {
			step.Disable("advisor is not available")
		}
		return step
	}

	return filtering.NewAIAdvice(stepConfig, &filtering.AIAdviceDeps{
		Logger:  log,
		Advisor: advisor,
		Profile: profile,
	})
}
