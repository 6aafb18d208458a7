package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/ai"
	"github.com/spigell/crna-fit/internal/filtering"
	"github.com/spigell/crna-fit/internal/fitscore"
	"github.com/spigell/crna-fit/internal/license"
)

func TestLoadProfileFromConfig(t *testing.T) {
	config := &Config{Profile: map[string]any{
		"sciencegpa":           "3.4",
		"primaryicutype":       "micu",
		"totalyearsexperience": 2,
	}}

	profile, err := loadProfile(config, "")
	require.NoError(t, err)
	require.NotNil(t, profile.ScienceGPA)
	assert.Equal(t, 3.4, *profile.ScienceGPA)
	assert.Equal(t, "micu", profile.PrimaryICUType)
	assert.Nil(t, profile.OverallGPA)
}

func TestLoadProfileFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"overallGpa":3.1,"state":"TX"}`), 0o600))

	profile, err := loadProfile(&Config{}, path)
	require.NoError(t, err)
	require.NotNil(t, profile.OverallGPA)
	assert.Equal(t, 3.1, *profile.OverallGPA)
	assert.Equal(t, "TX", profile.State)

	_, err = loadProfile(&Config{}, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewProfanityFilter(t *testing.T) {
	ctx := context.Background()

	filter, err := newProfanityFilter(&ProfanityConfig{Words: []string{"darn"}}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, filter.Contains(ctx, "oh darn"))

	filter, err = newProfanityFilter(&ProfanityConfig{Cache: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, filter.Contains(ctx, "damn"))

	_, err = newProfanityFilter(&ProfanityConfig{Cache: "redis"}, zap.NewNop())
	assert.Error(t, err)

	_, err = newProfanityFilter(&ProfanityConfig{Cache: "disk"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewProfanityFilterWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	filter, err := newProfanityFilter(&ProfanityConfig{
		Words: []string{"darn"},
		Cache: "redis",
		Redis: &RedisConfig{Addr: mr.Addr(), Key: "words"},
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "****", filter.Clean(context.Background(), "darn"))
	assert.True(t, mr.Exists("words"))
}

func TestNewLicenseVerifier(t *testing.T) {
	v, err := newLicenseVerifier(&LicenseConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &license.MockVerifier{}, v)

	_, err = newLicenseVerifier(&LicenseConfig{Mode: "http", APIURL: "https://licenses.example.com"}, zap.NewNop())
	assert.Error(t, err, "http mode needs an api key")

	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("secret\n"), 0o600))

	v, err = newLicenseVerifier(&LicenseConfig{Mode: "http", APIURL: "https://licenses.example.com", APIKeyFile: keyFile}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &license.HTTPVerifier{}, v)
}

func TestPrepareStepsWithoutAI(t *testing.T) {
	config := &Config{Filters: &FiltersConfig{MinimumScore: 50}, AI: &AIConfig{Enabled: true}}

	steps := prepareSteps(config, nil, nil, zap.NewNop())
	require.Len(t, steps, 5)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"states", "excluded_schools", "exclude_file", "minimum_score", "ai_advice"}, names)
	assert.False(t, steps[4].IsEnabled())
}

func TestOptionalAdvisorDisabled(t *testing.T) {
	assert.Nil(t, optionalAdvisor(context.Background(), &AIConfig{}, zap.NewNop()))
	assert.Nil(t, optionalAdvisor(context.Background(), &AIConfig{Enabled: true, Provider: "openai"}, zap.NewNop()))
}

type nopAdvisor struct{}

func (nopAdvisor) Advise(context.Context, *fitscore.School, *fitscore.UserProfile, *fitscore.Result) (*ai.Advice, error) {
	return &ai.Advice{Summary: "ok"}, nil
}

func aiStatus(t *testing.T, pipeline *filtering.Filtering) filtering.Status {
	t.Helper()
	for _, s := range pipeline.Describe() {
		if s.Name == aiAdviceStep {
			return s
		}
	}
	t.Fatalf("no %s step in pipeline", aiAdviceStep)
	return filtering.Status{}
}

func TestNewPipelineSkipAI(t *testing.T) {
	config := &Config{Filters: &FiltersConfig{}, AI: &AIConfig{Enabled: true}}
	profile := &fitscore.UserProfile{}

	status := aiStatus(t, newPipeline(config, profile, nopAdvisor{}, false, zap.NewNop()))
	assert.True(t, status.Enabled)

	status = aiStatus(t, newPipeline(config, profile, nopAdvisor{}, true, zap.NewNop()))
	assert.False(t, status.Enabled)
	assert.Equal(t, skipAIReason, status.Reason)
}

func TestVersionString(t *testing.T) {
	got := versionString()
	assert.Contains(t, got, "crna-fit version: unknown")
	assert.Contains(t, got, "commit none")
}
