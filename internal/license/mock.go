package license

import (
	"context"
	"strings"
	"time"
)

const mockSource = "mock"

// MockVerifier answers from the license number alone so demos and tests are repeatable:
// numbers starting with 000 do not exist, numbers ending in X are expired, the rest are
// active RN licenses valid for a year.
type MockVerifier struct {
	now func() time.Time
}

func NewMockVerifier(now func() time.Time) *MockVerifier {
	if now == nil {
		now = time.Now
	}
	return &MockVerifier{now: now}
}

func (m *MockVerifier) Verify(ctx context.Context, q Query) (*Verification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	v := &Verification{
		LicenseNumber: q.LicenseNumber,
		State:         q.State,
		Source:        mockSource,
		CheckedAt:     now,
	}

	number := strings.ToUpper(q.LicenseNumber)
	switch {
	case strings.HasPrefix(number, "000"):
		v.Status = StatusNotFound
	case strings.HasSuffix(number, "X"):
		expired := now.AddDate(0, -1, 0)
		v.Status = StatusExpired
		v.LicenseType = "RN"
		v.ExpiresAt = &expired
	default:
		expires := now.AddDate(1, 0, 0)
		v.Status = StatusActive
		v.LicenseType = "RN"
		v.ExpiresAt = &expires
	}

	return v, nil
}
