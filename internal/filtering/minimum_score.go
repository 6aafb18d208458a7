package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
)

type minimumScoreFilter struct {
	minimum int
	logger  *zap.Logger
}

// NewMinimumScore drops schools whose fit score is below minimum.
func NewMinimumScore(minimum int, logger *zap.Logger) Filter {
	return &minimumScoreFilter{minimum: minimum, logger: logger}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(string) {}

func (f *minimumScoreFilter) IsEnabled() bool { return true }

func (f *minimumScoreFilter) Validate() error {
	if f.minimum < 0 || f.minimum > 100 {
		return fmt.Errorf("minimum score must be within 0..100, got %d", f.minimum)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, m *catalog.Matches) (*catalog.Matches, Step, error) {
	initial := m.Len()
	if f.minimum == 0 {
		return m, Step{Initial: initial, Dropped: 0, Left: m.Len()}, nil
	}

	excluded := m.ExcludeBelow(f.minimum)
	if f.logger != nil && len(excluded) > 0 {
		f.logger.Info("excluding schools below minimum fit score",
			zap.Int("minimum_score", f.minimum),
			zap.Strings("excluded_schools", excluded),
			zap.Int("schools_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"minimum_score": strconv.Itoa(f.minimum)},
	}
}
