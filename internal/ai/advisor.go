package ai

import (
	"context"

	"github.com/spigell/crna-fit/internal/fitscore"
)

// Advice is a short narrative explaining a fit score and what to work on next.
type Advice struct {
	Summary   string
	NextSteps []string
	Raw       string
}

type Advisor interface {
	Advise(ctx context.Context, school *fitscore.School, profile *fitscore.UserProfile, result *fitscore.Result) (*Advice, error)
}
