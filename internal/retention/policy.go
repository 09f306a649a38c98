package retention

import (
	"time"

	"custodian/internal/platform/config"
	subjectmodels "custodian/internal/subject/models"
)

const (
	inactiveYears      = 5
	defaultGracePeriod = 30 * 24 * time.Hour
)

// Policy holds the two lifecycle windows. A zero InactivePeriod means five
// calendar years; a zero GracePeriod means thirty days.
type Policy struct {
	InactivePeriod time.Duration
	GracePeriod    time.Duration
}

// PolicyFromConfig keeps calendar-year arithmetic for the default inactive
// window and uses the configured duration for any override.
func PolicyFromConfig(c config.Retention) Policy {
	p := Policy{GracePeriod: c.GracePeriod}
	if c.InactivePeriod != config.DefaultInactivePeriod {
		p.InactivePeriod = c.InactivePeriod
	}
	return p
}

func (p Policy) InactiveUntil(now time.Time) time.Time {
	if p.InactivePeriod <= 0 {
		return now.AddDate(inactiveYears, 0, 0)
	}
	return now.Add(p.InactivePeriod)
}

func (p Policy) PurgeAt(now time.Time) time.Time {
	if p.GracePeriod <= 0 {
		return now.Add(defaultGracePeriod)
	}
	return now.Add(p.GracePeriod)
}

// OnStatusChange applies the status and, when the subject moves into INACTIVE
// from any other status, starts the inactive retention window. Other
// transitions leave RetentionUntil alone. It reports whether the deadline
// changed.
func (p Policy) OnStatusChange(s *subjectmodels.Subject, newStatus subjectmodels.Status, now time.Time) bool {
	previous := s.Status
	s.Status = newStatus
	if newStatus != subjectmodels.StatusInactive || previous == subjectmodels.StatusInactive {
		return false
	}
	until := p.InactiveUntil(now)
	s.RetentionUntil = &until
	return true
}
