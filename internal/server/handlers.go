package server

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/filtering"
	"github.com/spigell/crna-fit/internal/fitscore"
	"github.com/spigell/crna-fit/internal/license"
)

const contentTypeJSON = "application/json"

type route struct {
	method string
	handle func(*Server, *fasthttp.RequestCtx)
}

var routes = map[string]route{
	"/healthz":                {fasthttp.MethodGet, (*Server).handleHealth},
	"/api/v1/fit-score":       {fasthttp.MethodPost, (*Server).handleFitScore},
	"/api/v1/fit-score/rank":  {fasthttp.MethodPost, (*Server).handleRank},
	"/api/v1/profanity/check": {fasthttp.MethodPost, (*Server).handleProfanity},
	"/api/v1/license/verify":  {fasthttp.MethodPost, (*Server).handleLicense},
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type FitScoreRequest struct {
	School   *fitscore.School      `json:"school"`
	SchoolID string                `json:"schoolId,omitempty"`
	Profile  *fitscore.UserProfile `json:"profile"`
}

type FitScoreResponse struct {
	School *fitscore.School `json:"school"`
	Result fitscore.Result  `json:"result"`
	Color  string           `json:"color"`
}

type RankRequest struct {
	Profile      *fitscore.UserProfile `json:"profile"`
	States       []string              `json:"states,omitempty"`
	MinimumScore int                   `json:"minimumScore,omitempty"`
}

type RankResponse struct {
	Count   int              `json:"count"`
	Matches []*catalog.Match `json:"matches"`
}

type ProfanityRequest struct {
	Text string `json:"text"`
}

type ProfanityResponse struct {
	ContainsProfanity bool     `json:"containsProfanity"`
	Words             []string `json:"words"`
	Cleaned           string   `json:"cleaned"`
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"status":  "ok",
		"schools": s.schools.Len(),
	})
}

func (s *Server) handleFitScore(ctx *fasthttp.RequestCtx) {
	var req FitScoreRequest
	if !decode(ctx, &req) {
		return
	}

	school := req.School
	if school == nil && req.SchoolID != "" {
		school = s.schools.FindByID(req.SchoolID)
		if school == nil {
			writeError(ctx, fasthttp.StatusNotFound, fmt.Sprintf("school %q not found", req.SchoolID))
			return
		}
	}
	if school == nil {
		writeError(ctx, fasthttp.StatusBadRequest, "school or schoolId is required")
		return
	}

	result := fitscore.Calculate(school, req.Profile)
	writeJSON(ctx, fasthttp.StatusOK, FitScoreResponse{
		School: school,
		Result: result,
		Color:  fitscore.Color(result.Score),
	})
}

func (s *Server) handleRank(ctx *fasthttp.RequestCtx) {
	var req RankRequest
	if !decode(ctx, &req) {
		return
	}
	if req.Profile == nil {
		writeError(ctx, fasthttp.StatusBadRequest, "profile is required")
		return
	}

	// Request filters run first so configured steps such as AI advice see fewer schools.
	steps := []filtering.Filter{
		filtering.NewStates(req.States, s.logger),
		filtering.NewMinimumScore(req.MinimumScore, s.logger),
	}
	if s.steps != nil {
		steps = append(steps, s.steps(req.Profile)...)
	}

	reqCtx, cancel := s.requestContext()
	defer cancel()

	matches := s.schools.Score(req.Profile)
	matches.SortByScore()

	matches, err := filtering.New(steps, s.logger).RunFilters(reqCtx, matches)
	if err != nil {
		s.logger.Warn("ranking failed", zap.Error(err))
		writeError(ctx, pipelineStatus(err), err.Error())
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, RankResponse{Count: matches.Len(), Matches: matches.Items})
}

func (s *Server) handleProfanity(ctx *fasthttp.RequestCtx) {
	var req ProfanityRequest
	if !decode(ctx, &req) {
		return
	}

	reqCtx, cancel := s.requestContext()
	defer cancel()

	words, cleaned := s.profanity.Check(reqCtx, req.Text)
	if words == nil {
		words = []string{}
	}
	writeJSON(ctx, fasthttp.StatusOK, ProfanityResponse{
		ContainsProfanity: len(words) > 0,
		Words:             words,
		Cleaned:           cleaned,
	})
}

func (s *Server) handleLicense(ctx *fasthttp.RequestCtx) {
	var q license.Query
	if !decode(ctx, &q) {
		return
	}

	reqCtx, cancel := s.requestContext()
	defer cancel()

	verification, err := s.license.Verify(reqCtx, q)
	switch {
	case errors.Is(err, license.ErrInvalidQuery):
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Warn("license verification failed", zap.String("state", q.State), zap.Error(err))
		writeError(ctx, fasthttp.StatusBadGateway, err.Error())
	default:
		writeJSON(ctx, fasthttp.StatusOK, verification)
	}
}

// pipelineStatus maps a ranking failure to a status code. Bad step settings are the
// caller's fault; anything else failed on our side or upstream.
func pipelineStatus(err error) int {
	switch {
	case errors.Is(err, filtering.ErrInvalidStep):
		return fasthttp.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusGatewayTimeout
	default:
		return fasthttp.StatusBadGateway
	}
}

func decode(ctx *fasthttp.RequestCtx, target any) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "Request body is required")
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentTypeJSON)
	ctx.SetBody(data)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	data, _ := json.Marshal(ErrorResponse{Status: status, Message: message})
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentTypeJSON)
	ctx.SetBody(data)
}
