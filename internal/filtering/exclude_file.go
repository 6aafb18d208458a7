package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
)

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile removes schools previously dismissed into the exclude file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	return &excludeFileFilter{
		path:   strings.TrimSpace(path),
		logger: logger,
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, m *catalog.Matches) (*catalog.Matches, Step, error) {
	initial := m.Len()
	if f.path == "" {
		return m, Step{Initial: initial, Dropped: 0, Left: m.Len()}, nil
	}

	excluded, err := catalog.GetExcludedSchoolsFromFile(f.path)
	if err != nil {
		return m, Step{}, fmt.Errorf("getting excluded schools from file: %w", err)
	}

	removed := m.Exclude(catalog.MatchIDField, excluded.SchoolIDs())
	if f.logger != nil && len(removed) > 0 {
		f.logger.Info("excluding schools based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_schools", removed),
			zap.Int("schools_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(removed), Left: m.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
