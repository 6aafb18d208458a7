package license

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/logger"
	"github.com/spigell/crna-fit/internal/utils"
)

const (
	verifyPath        = "/v1/licenses/verify"
	userAgent         = "spigell/crna-fit"
	contentType       = "application/json"
	contentEncoding   = "gzip"
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxBackoff        = 5 * time.Second
	httpSource        = "http"
)

// HTTPVerifier asks a remote lookup service. Transport errors and 5xx answers are retried.
type HTTPVerifier struct {
	HTTPClient *http.Client
	APIURL     string
	UserAgent  string

	apiKey      string
	maxRetries  int
	backoffBase time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

type verifyResponse struct {
	LicenseNumber string     `json:"licenseNumber"`
	State         string     `json:"state"`
	LicenseType   string     `json:"licenseType"`
	Status        string     `json:"status"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

func NewHTTPVerifier(cfg *Config, log *zap.Logger) (*HTTPVerifier, error) {
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		return nil, errors.New("license api-url is required in http mode")
	}
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("parse license api-url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &HTTPVerifier{
		HTTPClient:  &http.Client{Timeout: timeout},
		APIURL:      apiURL,
		UserAgent:   userAgent,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		maxRetries:  retries,
		backoffBase: defaultBackoff,
		now:         time.Now,
		logger:      logger.OrNop(log),
	}, nil
}

func (v *HTTPVerifier) Verify(ctx context.Context, q Query) (*Verification, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("licenseNumber", q.LicenseNumber)
	params.Set("state", q.State)
	if q.FirstName != "" {
		params.Set("firstName", q.FirstName)
	}
	if q.LastName != "" {
		params.Set("lastName", q.LastName)
	}

	var lastErr error
	for attempt := 1; attempt <= v.maxRetries; attempt++ {
		verification, retry, err := v.verifyOnce(ctx, params, q)
		if err == nil {
			return verification, nil
		}
		lastErr = err
		if !retry || attempt == v.maxRetries {
			break
		}

		delay := utils.Backoff(attempt, v.backoffBase, maxBackoff)
		v.logger.Warn("license lookup failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := utils.WaitFor(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// verifyOnce performs one request and reports whether a failure is worth retrying.
func (v *HTTPVerifier) verifyOnce(ctx context.Context, params url.Values, q Query) (*Verification, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.APIURL+verifyPath, nil)
	if err != nil {
		return nil, false, err
	}
	req.URL.RawQuery = params.Encode()
	v.setHeaders(req)

	v.logger.Debug("make request", zap.String("url", req.URL.Redacted()))
	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Verification{
			LicenseNumber: q.LicenseNumber,
			State:         q.State,
			Status:        StatusNotFound,
			Source:        httpSource,
			CheckedAt:     v.now().UTC(),
		}, false, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("%w: bad status: %s", ErrUpstream, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("license lookup: bad status: %s", resp.Status)
	}

	data, err := readBody(resp)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	var body verifyResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, false, fmt.Errorf("%w: decode body: %v", ErrUpstream, err)
	}

	return v.toVerification(&body, q), false, nil
}

func (v *HTTPVerifier) toVerification(body *verifyResponse, q Query) *Verification {
	out := &Verification{
		LicenseNumber: body.LicenseNumber,
		State:         strings.ToUpper(body.State),
		LicenseType:   body.LicenseType,
		Status:        normalizeStatus(body.Status),
		ExpiresAt:     body.ExpiresAt,
		Source:        httpSource,
		CheckedAt:     v.now().UTC(),
	}
	if out.LicenseNumber == "" {
		out.LicenseNumber = q.LicenseNumber
	}
	if out.State == "" {
		out.State = q.State
	}
	// An "active" license past its expiry date is still expired.
	if out.Status == StatusActive && out.ExpiresAt != nil && out.ExpiresAt.Before(out.CheckedAt) {
		out.Status = StatusExpired
	}
	return out
}

func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StatusActive:
		return StatusActive
	case StatusExpired:
		return StatusExpired
	case StatusNotFound, "notfound", "not found":
		return StatusNotFound
	default:
		return StatusInactive
	}
}

func (v *HTTPVerifier) setHeaders(req *http.Request) {
	if v.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", v.apiKey))
	}
	req.Header.Set("User-Agent", v.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}
