package services

import "log"

// Notifier delivers user-facing notifications. Delivery is fire-and-forget:
// settlement correctness never depends on a notification going out, so every
// implementation must swallow its own failures.
type Notifier interface {
	Notify(userID, title, message, severity string)
}

// LogNotifier is the default sink; the real push/email transport lives in the
// notification service.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(userID, title, message, severity string) {
	log.Printf("🔔 [NOTIFY] user=%s severity=%s %s: %s", userID, severity, title, message)
}
