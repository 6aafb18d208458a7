package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
)

type statesFilter struct {
	states []string
	logger *zap.Logger
}

// NewStates keeps only schools located in one of the given states. An empty list keeps all.
func NewStates(states []string, logger *zap.Logger) Filter {
	return &statesFilter{states: states, logger: logger}
}

func (f *statesFilter) Name() string { return "states" }

func (f *statesFilter) Disable(string) {}

func (f *statesFilter) IsEnabled() bool { return true }

func (f *statesFilter) Validate() error { return nil }

func (f *statesFilter) Apply(_ context.Context, m *catalog.Matches) (*catalog.Matches, Step, error) {
	initial := m.Len()
	if len(f.states) == 0 {
		return m, Step{Initial: initial, Dropped: 0, Left: m.Len()}, nil
	}

	excluded := m.KeepOnly(catalog.MatchStateField, f.states)
	if f.logger != nil && len(excluded) > 0 {
		f.logger.Info("excluding schools outside preferred states",
			zap.Strings("states", f.states),
			zap.Strings("excluded_schools", excluded),
			zap.Int("schools_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *statesFilter) Status() Status {
	details := map[string]string{}
	if len(f.states) > 0 {
		details["states"] = strings.Join(f.states, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
