// Package license checks nursing licenses against a state board lookup service.
package license

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ModeMock = "mock"
	ModeHTTP = "http"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusExpired  = "expired"
	StatusNotFound = "not_found"
)

var (
	ErrInvalidQuery = errors.New("invalid license query")
	ErrUpstream     = errors.New("license service unavailable")
)

var stateCode = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Verifier looks a license up. A license that does not exist is reported with
// StatusNotFound, not an error.
type Verifier interface {
	Verify(ctx context.Context, q Query) (*Verification, error)
}

type Query struct {
	LicenseNumber string `json:"licenseNumber"`
	State         string `json:"state"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
}

// Validate trims the query in place and checks the required fields.
func (q *Query) Validate() error {
	q.LicenseNumber = strings.TrimSpace(q.LicenseNumber)
	q.State = strings.ToUpper(strings.TrimSpace(q.State))
	q.FirstName = strings.TrimSpace(q.FirstName)
	q.LastName = strings.TrimSpace(q.LastName)

	if q.LicenseNumber == "" {
		return fmt.Errorf("%w: license number is required", ErrInvalidQuery)
	}
	if !stateCode.MatchString(q.State) {
		return fmt.Errorf("%w: state must be a two-letter code, got %q", ErrInvalidQuery, q.State)
	}
	return nil
}

type Verification struct {
	LicenseNumber string     `json:"licenseNumber"`
	State         string     `json:"state"`
	LicenseType   string     `json:"licenseType,omitempty"`
	Status        string     `json:"status"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Source        string     `json:"source"`
	CheckedAt     time.Time  `json:"checkedAt"`
}

// Active reports whether the license may be used for an application.
func (v *Verification) Active() bool {
	return v != nil && v.Status == StatusActive
}

type Config struct {
	Mode       string
	APIURL     string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// New picks the verifier for cfg.Mode. An empty mode means mock.
func New(cfg *Config, logger *zap.Logger) (Verifier, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", ModeMock:
		return NewMockVerifier(nil), nil
	case ModeHTTP:
		return NewHTTPVerifier(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown license mode %q", cfg.Mode)
	}
}
