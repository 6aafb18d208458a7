package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/ai"
	"github.com/spigell/crna-fit/internal/fitscore"
	"github.com/spigell/crna-fit/internal/logger"
	"github.com/spigell/crna-fit/internal/utils"
)

const (
	systemInstruction = "You are an admissions coach for nurse anesthesia (CRNA) programs. Respond with JSON only."

	defaultMaxLogLength = 200
	maxNextSteps        = 3
)

//go:embed prompt.md
var promptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, systemInstruction, message string) (string, error)
	Model() string
}

type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAdvisor(generator contentGenerator, maxLogLength int, log *zap.Logger) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Advisor{
		generator: generator,
		logger:    logger.WithFields(log, logger.ProviderFields("gemini", generator.Model())...),
		maxLogLen: maxLogLength,
	}
}

func (a *Advisor) Advise(ctx context.Context, school *fitscore.School, profile *fitscore.UserProfile, result *fitscore.Result) (*ai.Advice, error) {
	if school == nil {
		return nil, fmt.Errorf("school is required")
	}
	if result == nil {
		return nil, fmt.Errorf("fit result is required")
	}
	if profile == nil {
		profile = &fitscore.UserProfile{}
	}

	prompt, err := buildPrompt(school, profile, result)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content request",
		zap.String("school_id", school.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content response",
		zap.String("school_id", school.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	advice, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	advice.Raw = raw
	return advice, nil
}

func buildPrompt(school *fitscore.School, profile *fitscore.UserProfile, result *fitscore.Result) (string, error) {
	schoolJSON, err := json.MarshalIndent(school, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal school payload: %w", err)
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result payload: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Program:\n{{SCHOOL_JSON}}\n\nApplicant:\n{{PROFILE_JSON}}\n\nFit result:\n{{RESULT_JSON}}\n\nJSON Response:"
	}

	replacer := strings.NewReplacer(
		"{{SCHOOL_JSON}}", string(schoolJSON),
		"{{PROFILE_JSON}}", string(profileJSON),
		"{{RESULT_JSON}}", string(resultJSON),
		"{{MAX_STEPS}}", strconv.Itoa(maxNextSteps),
	)
	return replacer.Replace(template), nil
}

func parseResponse(raw string) (*ai.Advice, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	summary := coerceString(data["summary"])
	if summary == "" {
		return nil, fmt.Errorf("parse gemini response: summary is missing")
	}

	steps := coerceStrings(data["nextSteps"])
	if len(steps) > maxNextSteps {
		steps = steps[:maxNextSteps]
	}

	return &ai.Advice{
		Summary:   summary,
		NextSteps: steps,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return nil
	default:
		return nil
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
