package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"custodian/internal/platform/config"
	subjectmodels "custodian/internal/subject/models"
	"custodian/pkg/testutil"
)

func TestOnStatusChange(t *testing.T) {
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	earlier := now.AddDate(1, 0, 0)

	tests := []struct {
		name      string
		from      subjectmodels.Status
		to        subjectmodels.Status
		retention *time.Time
		want      *time.Time
		changed   bool
	}{
		{"active to inactive starts window", subjectmodels.StatusActive, subjectmodels.StatusInactive, nil, ptr(now.AddDate(5, 0, 0)), true},
		{"visitor to inactive replaces deadline", subjectmodels.StatusVisitor, subjectmodels.StatusInactive, &earlier, ptr(now.AddDate(5, 0, 0)), true},
		{"inactive to inactive untouched", subjectmodels.StatusInactive, subjectmodels.StatusInactive, &earlier, &earlier, false},
		{"active to leader untouched", subjectmodels.StatusActive, subjectmodels.StatusLeader, nil, nil, false},
		{"inactive to active keeps deadline", subjectmodels.StatusInactive, subjectmodels.StatusActive, &earlier, &earlier, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &subjectmodels.Subject{Status: tt.from, RetentionUntil: tt.retention}
			changed := Policy{}.OnStatusChange(s, tt.to, now)

			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.to, s.Status)
			assert.Equal(t, tt.want, s.RetentionUntil)
		})
	}
}

func TestPolicyWindows(t *testing.T) {
	now := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(30*24*time.Hour), Policy{}.PurgeAt(now))
	assert.Equal(t, time.Date(2029, 3, 1, 0, 0, 0, 0, time.UTC), Policy{}.InactiveUntil(now))

	custom := Policy{InactivePeriod: time.Hour, GracePeriod: time.Minute}
	assert.Equal(t, now.Add(time.Hour), custom.InactiveUntil(now))
	assert.Equal(t, now.Add(time.Minute), custom.PurgeAt(now))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.Retention{
		InactivePeriod: config.DefaultInactivePeriod,
		GracePeriod:    config.DefaultGracePeriod,
	})
	assert.Zero(t, p.InactivePeriod)
	assert.Equal(t, config.DefaultGracePeriod, p.GracePeriod)

	p = PolicyFromConfig(config.Retention{InactivePeriod: 48 * time.Hour})
	assert.Equal(t, 48*time.Hour, p.InactivePeriod)
}

func TestInactiveWindowAcrossReactivation(t *testing.T) {
	policy := Policy{}
	first := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 6, 0)

	testutil.Given(t, "an active subject", func(t *testing.T) {
		sub := &subjectmodels.Subject{Status: subjectmodels.StatusActive}

		testutil.When(t, "it is marked inactive", func(t *testing.T) {
			assert.True(t, policy.OnStatusChange(sub, subjectmodels.StatusInactive, first))

			testutil.Then(t, "the window runs five calendar years", func(t *testing.T) {
				assert.Equal(t, time.Date(2031, 1, 5, 9, 0, 0, 0, time.UTC), *sub.RetentionUntil)
			})
		})

		testutil.When(t, "it is reactivated and marked inactive again", func(t *testing.T) {
			assert.False(t, policy.OnStatusChange(sub, subjectmodels.StatusActive, second))
			assert.True(t, policy.OnStatusChange(sub, subjectmodels.StatusInactive, second))

			testutil.Then(t, "the window restarts from the second transition", func(t *testing.T) {
				assert.Equal(t, time.Date(2031, 7, 5, 9, 0, 0, 0, time.UTC), *sub.RetentionUntil)
			})
		})
	})
}

func ptr(t time.Time) *time.Time { return &t }
