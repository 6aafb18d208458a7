package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
)

type excludedSchoolsFilter struct {
	ids    []string
	logger *zap.Logger
}

// NewExcludedSchools removes schools listed by ID in the configuration.
func NewExcludedSchools(ids []string, logger *zap.Logger) Filter {
	return &excludedSchoolsFilter{ids: ids, logger: logger}
}

func (f *excludedSchoolsFilter) Name() string { return "excluded_schools" }

func (f *excludedSchoolsFilter) Disable(string) {}

func (f *excludedSchoolsFilter) IsEnabled() bool { return true }

func (f *excludedSchoolsFilter) Validate() error { return nil }

func (f *excludedSchoolsFilter) Apply(_ context.Context, m *catalog.Matches) (*catalog.Matches, Step, error) {
	initial := m.Len()
	if len(f.ids) == 0 {
		return m, Step{Initial: initial, Dropped: 0, Left: m.Len()}, nil
	}

	excluded := m.Exclude(catalog.MatchIDField, f.ids)
	if f.logger != nil && len(excluded) > 0 {
		f.logger.Info("excluding schools from config",
			zap.Strings("excluded_schools", excluded),
			zap.Int("schools_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *excludedSchoolsFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["schools"] = strings.Join(f.ids, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
