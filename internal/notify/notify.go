// Package notify defines the notification contract consumed by the
// reconciler and scheduler; only a structured-logging implementation ships
// (see SPEC_FULL.md §6.4 for why no Telegram SDK is wired here).
package notify

import (
	"context"

	"ledgerflow/pkg/logger"
)

// EventLevel classifies a notification's severity.
type EventLevel string

const (
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// Event is a single notifiable occurrence: a diverged history, an
// exhausted retry, an SMS-OTP timeout...
type Event struct {
	Level   EventLevel
	Source  string
	Message string
}

// Notifier delivers events to wherever an operator will see them.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier is the only shipped Notifier: it writes every event through
// pkg/logger at the level the event requests.
type LogNotifier struct{}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (LogNotifier) Notify(_ context.Context, event Event) error {
	entry := logger.GetLogger().WithField("source", event.Source)
	switch event.Level {
	case LevelError:
		entry.Error(event.Message)
	case LevelWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
