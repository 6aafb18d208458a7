package cmd

import (
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/logger"
)

func reportMatch(log *zap.Logger, match *catalog.Match) {
	school := match.School
	result := match.Result

	fields := logger.SchoolFields(school.ID, school.Name, school.State)
	fields = append(fields,
		zap.Int("score", result.Score),
		zap.String("color", match.Color),
		zap.String("message", result.Message),
	)
	log.Info("fit score", fields...)

	for _, c := range result.Breakdown {
		log.Info(c.Label,
			zap.String("status", string(c.Status)),
			zap.Int("points", c.Points),
			zap.String("detail", c.Detail),
		)
	}

	if match.Advice == nil {
		return
	}
	if match.Advice.Error != "" {
		log.Warn("no advice", zap.String("error", match.Advice.Error))
		return
	}
	log.Info("advice",
		zap.String("summary", match.Advice.Summary),
		zap.Strings("next_steps", match.Advice.NextSteps),
	)
}
