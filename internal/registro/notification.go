package registro

import "time"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is the transient banner shown after a submit attempt.
type Notification struct {
	Text      string    `json:"text"`
	Severity  Severity  `json:"severity"`
	ExpiresAt time.Time `json:"expiresAt"`
	Dismissed bool      `json:"dismissed"`
}

func newNotification(text string, severity Severity, now time.Time, ttl time.Duration) *Notification {
	return &Notification{
		Text:      text,
		Severity:  severity,
		ExpiresAt: now.Add(ttl),
	}
}

// Visible reports whether the notification should still be shown at now.
func (n *Notification) Visible(now time.Time) bool {
	if n == nil || n.Dismissed {
		return false
	}
	return now.Before(n.ExpiresAt)
}
