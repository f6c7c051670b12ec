// Package scheduler drives the periodic, sequential per-account/per-card
// update loop: a cron-triggered UpdateAll that processes every configured
// account and card one at a time against one shared browser/session
// resource, retrying transient failures with exponential backoff.
// Grounded on app/scheduler/runtime.py and bank/runtime.py's update_all
// orchestration, with the Python `schedule` package's periodic trigger
// replaced by github.com/robfig/cron/v3 (see DESIGN.md).
package scheduler

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"

	"ledgerflow/internal/notify"
	"ledgerflow/pkg/logger"
)

// AccountTask is one configured account or card's update unit. Fetch does
// the actual provider interaction (out of scope: it's backed by an opaque
// browser/session collaborator) and returns how many new transactions were
// merged into the store, for logging.
type AccountTask struct {
	Name  string
	Fetch func(ctx context.Context, session Session) (int, error)
}

// Session is the single shared, opaque browser/session resource every
// account/card task borrows in turn (SPEC_FULL.md §5's browser exclusivity
// requirement).
type Session interface{}

// Scheduler runs UpdateAll on a cron trigger and once immediately at
// startup, processing its configured tasks strictly sequentially since
// they all share one Session.
type Scheduler struct {
	cron        *cron.Cron
	tasks       []AccountTask
	newSession  func(ctx context.Context) (Session, error)
	sessionSlot chan struct{}
	backoffCfg  func() backoff.BackOff
	notifier    notify.Notifier
	gate        *UpdateGate
}

// Config configures retry behaviour; zero values fall back to spec.md's
// defaults (base 3s, factor 2, up to 4 attempts).
type Config struct {
	RetryBase       time.Duration
	RetryFactor     float64
	RetryMaxRetries int
}

func (c Config) withDefaults() Config {
	if c.RetryBase == 0 {
		c.RetryBase = 3 * time.Second
	}
	if c.RetryFactor == 0 {
		c.RetryFactor = 2
	}
	if c.RetryMaxRetries == 0 {
		c.RetryMaxRetries = 4
	}
	return c
}

// New builds a Scheduler. newSession opens the shared browser/session
// resource; it is called once per UpdateAll run.
func New(cfg Config, newSession func(ctx context.Context) (Session, error), gate *UpdateGate, notifier notify.Notifier) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		cron:        cron.New(),
		newSession:  newSession,
		sessionSlot: make(chan struct{}, 1),
		notifier:    notifier,
		gate:        gate,
		backoffCfg: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = cfg.RetryBase
			b.Multiplier = cfg.RetryFactor
			b.MaxElapsedTime = 0
			return backoff.WithMaxRetries(b, uint64(cfg.RetryMaxRetries-1))
		},
	}
}

// AddTask registers an account/card update unit, run in registration order.
func (s *Scheduler) AddTask(task AccountTask) {
	s.tasks = append(s.tasks, task)
}

// Start runs UpdateAll once immediately, schedules it on spec, and starts
// the cron loop. Grounded on app/scheduler/runtime.py's run(), which calls
// execute_update_all() once before registering the periodic job.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	s.UpdateAll(ctx)
	_, err := s.cron.AddFunc(spec, func() { s.UpdateAll(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// UpdateAll processes every registered task strictly sequentially,
// acquiring the single shared Session slot for the whole run and retrying
// each task's fetch with exponential backoff before giving up on it.
func (s *Scheduler) UpdateAll(ctx context.Context) {
	s.sessionSlot <- struct{}{}
	defer func() { <-s.sessionSlot }()

	session, err := s.newSession(ctx)
	if err != nil {
		logger.GetLogger().WithError(err).Error("scheduler: failed to open session")
		return
	}

	for _, task := range s.tasks {
		if s.gate != nil && !s.gate.ShouldRun(ctx, task.Name) {
			continue
		}
		s.runTask(ctx, session, task)
	}
}

func (s *Scheduler) runTask(ctx context.Context, session Session, task AccountTask) {
	attempts := 0
	var lastErr error

	operation := func() error {
		attempts++
		count, err := task.Fetch(ctx, session)
		if err != nil {
			lastErr = err
			logger.GetLogger().WithError(err).WithField("account", task.Name).Warn("scheduler: task attempt failed, retrying")
			return err
		}
		logger.GetLogger().WithFields(map[string]any{"account": task.Name, "new_transactions": count}).Info("scheduler: task completed")
		return nil
	}

	if err := backoff.Retry(operation, s.backoffCfg()); err != nil {
		exhausted := &RetryExhausted{Account: task.Name, Attempts: attempts, Summary: summarizeRetryFailure(lastErr, attempts)}
		logger.GetLogger().WithError(exhausted).Error("scheduler: task exhausted retries")
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, notify.Event{Level: notify.LevelError, Source: task.Name, Message: exhausted.Error()})
		}
		return
	}

	if s.gate != nil {
		s.gate.MarkRun(ctx, task.Name)
	}
}
