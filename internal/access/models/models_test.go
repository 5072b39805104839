package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

func TestDurationMinutes(t *testing.T) {
	entry := time.Date(2023, 11, 14, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		exit *time.Time
		want *int
	}{
		{name: "open session has no duration", exit: nil, want: nil},
		{name: "exact minutes", exit: timePtr(entry.Add(95 * time.Minute)), want: intPtr(95)},
		{name: "seconds round half up", exit: timePtr(entry.Add(90*time.Minute + 30*time.Second)), want: intPtr(91)},
		{name: "seconds round down", exit: timePtr(entry.Add(90*time.Minute + 29*time.Second)), want: intPtr(90)},
		{name: "sub-minute stay", exit: timePtr(entry.Add(20 * time.Second)), want: intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &AccessEvent{AccessTime: entry, ExitTime: tt.exit}
			got := event.DurationMinutes()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestIsOpenSession(t *testing.T) {
	now := time.Now()
	open := &AccessEvent{ID: id.NewAccessEventID(), AccessType: AccessEntry, Status: StatusSuccessful, AccessTime: now}
	assert.True(t, open.IsOpenSession())

	closed := &AccessEvent{AccessType: AccessEntry, Status: StatusSuccessful, AccessTime: now, ExitTime: &now}
	assert.False(t, closed.IsOpenSession())

	denied := &AccessEvent{AccessType: AccessDenied, Status: StatusDenied, AccessTime: now}
	assert.False(t, denied.IsOpenSession())

	exit := &AccessEvent{AccessType: AccessExit, Status: StatusSuccessful, AccessTime: now}
	assert.False(t, exit.IsOpenSession())
}

func TestDeniedDecisionCarriesMessage(t *testing.T) {
	decision := Denied(ReasonExpiredLicense)
	assert.False(t, decision.Granted)
	assert.Equal(t, ReasonExpiredLicense, decision.Reason)
	assert.Equal(t, "Driving license is expired or invalid", decision.Message)
	assert.Equal(t, UserUnknown, decision.UserType)
}

func TestDenialReasonsAreDistinct(t *testing.T) {
	// Expiry and category mismatch are separate failures with separate codes.
	assert.NotEqual(t, ReasonExpiredLicense, ReasonLicenseCategoryMismatch)
	assert.NotEmpty(t, ReasonLicenseCategoryMismatch.Message())
}

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(i int) *int              { return &i }
