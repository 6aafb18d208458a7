package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/ai"
	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/fitscore"
)

type aiAdviceFilter struct {
	enabled bool
	reason  string
	config  *AIAdviceConfig
	deps    *AIAdviceDeps
}

type AIAdviceDeps struct {
	Logger  *zap.Logger
	Advisor ai.Advisor
	Profile *fitscore.UserProfile
}

type AIAdviceConfig struct {
	Enabled  bool
	Provider string
	Model    string
	// MaxSchools limits advice to the first N matches. Zero means all.
	MaxSchools int
}

// NewAIAdvice creates the step that attaches AI advice to matches. It never drops a match.
func NewAIAdvice(cfg *AIAdviceConfig, deps *AIAdviceDeps) Filter {
	if cfg == nil {
		cfg = &AIAdviceConfig{}
	}
	return &aiAdviceFilter{
		enabled: cfg.Enabled,
		config:  cfg,
		deps:    deps,
	}
}

func (f *aiAdviceFilter) Name() string { return "ai_advice" }

func (f *aiAdviceFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *aiAdviceFilter) IsEnabled() bool { return f.enabled }

func (f *aiAdviceFilter) Validate() error {
	if f.deps == nil || f.deps.Advisor == nil {
		return fmt.Errorf("advisor is not initialized: filter is not usable")
	}
	if f.deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if f.deps.Profile == nil {
		return fmt.Errorf("profile is required for AI advice")
	}
	if f.config.MaxSchools < 0 {
		return fmt.Errorf("max schools must not be negative")
	}
	return nil
}

func (f *aiAdviceFilter) Apply(ctx context.Context, m *catalog.Matches) (*catalog.Matches, Step, error) {
	initial := m.Len()

	advised, failed := 0, 0
	for _, match := range f.targets(m) {
		if err := ctx.Err(); err != nil {
			return m, Step{}, err
		}

		advice, err := f.deps.Advisor.Advise(ctx, match.School, f.deps.Profile, &match.Result)
		if err != nil {
			f.deps.Logger.Warn("AI advice failed",
				zap.String("school_id", match.School.ID),
				zap.Error(err),
			)
			match.Advice = &catalog.Advice{Error: err.Error()}
			failed++
			continue
		}

		match.Advice = &catalog.Advice{
			Summary:   advice.Summary,
			NextSteps: advice.NextSteps,
			Raw:       advice.Raw,
		}
		advised++
	}

	f.deps.Logger.Info("AI advice completed",
		zap.Int("advised_schools", advised),
		zap.Int("failed_schools", failed),
	)

	return m, Step{Initial: initial, Dropped: 0, Left: m.Len()}, nil
}

// targets returns the matches to advise: the best MaxSchools by score, or all of them.
// The order of m is left untouched.
func (f *aiAdviceFilter) targets(m *catalog.Matches) []*catalog.Match {
	if f.config.MaxSchools <= 0 || f.config.MaxSchools >= m.Len() {
		return m.Items
	}

	ranked := &catalog.Matches{Items: append([]*catalog.Match(nil), m.Items...)}
	ranked.SortByScore()
	return ranked.Items[:f.config.MaxSchools]
}

func (f *aiAdviceFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		if p := strings.TrimSpace(f.config.Provider); p != "" {
			details["provider"] = p
		}
		if model := strings.TrimSpace(f.config.Model); model != "" {
			details["model"] = model
		}
		details["max_schools"] = strconv.Itoa(f.config.MaxSchools)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
