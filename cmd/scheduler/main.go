// Command scheduler runs the periodic, sequential account/card update loop
// standalone from the read-only HTTP API, mirroring app/scheduler/runtime.py
// and bank/runtime.py running as their own process in the original system.
package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ledgerflow/internal/config"
	"ledgerflow/internal/ingest"
	"ledgerflow/internal/notify"
	"ledgerflow/internal/reconciler"
	"ledgerflow/internal/rules"
	"ledgerflow/internal/scheduler"
	"ledgerflow/internal/store"
	"ledgerflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("starting ledgerflow scheduler")

	registry, err := cfg.LoadRegistry()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("failed to load account registry")
	}

	categories, err := rules.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("failed to load categories")
	}
	logger.GetLogger().WithField("count", len(categories)).Info("loaded categories")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	minInterval := time.Duration(registry.Scheduler.UpdateTimeoutSeconds) * time.Second
	if minInterval <= 0 {
		minInterval = 4 * time.Hour
	}
	gate := scheduler.NewUpdateGate(redisClient, minInterval)

	txStore := store.NewMemoryStore()
	locks := store.NewLockRegistry()
	notifier := notify.NewLogNotifier()

	svc := reconciler.NewService(txStore, locks, defaultRuleset(), func(ctx context.Context, msg string) {
		_ = notifier.Notify(ctx, notify.Event{Level: notify.LevelWarning, Source: "reconciler", Message: msg})
	})

	sched := scheduler.New(scheduler.Config{}, openSession, gate, notifier)
	for _, task := range ingest.AccountTasks(registry, svc, defaultRuleset) {
		sched.AddTask(task)
	}

	spec := cronSpec(registry.Scheduler.ScrappingHours)
	if err := sched.Start(context.Background(), spec); err != nil {
		logger.GetLogger().WithError(err).Fatal("failed to start scheduler")
	}

	select {}
}

// openSession would hand the scheduler the opaque headless-browser session
// collaborator that actually drives the provider sites; no implementation
// ships in this repository, so the standalone binary refuses to run
// without one wired in by a deployment that supplies it.
func openSession(ctx context.Context) (scheduler.Session, error) {
	return nil, errSessionNotConfigured
}

var errSessionNotConfigured = &sessionNotConfiguredError{}

type sessionNotConfiguredError struct{}

func (*sessionNotConfiguredError) Error() string {
	return "scheduler: no browser/session collaborator wired"
}

// defaultRuleset is the rule pipeline this deployment runs; a real
// deployment loads its rules from an operator-maintained definition, but
// since Rule's conditions/actions carry closures (see rules/builders.go)
// rather than a declarative document, they are assembled here in Go the way
// rules/io.py's caller module did.
func defaultRuleset() []rules.Rule {
	return []rules.Rule{
		{
			Name:       "paypal-merchant-from-concept",
			Conditions: []rules.Condition{rules.Match("type", "PURCHASE")},
			Actions: []rules.Action{
				rules.SetFromCapture("destination", "details.concepto", `PAYPAL \*(.+)`, 0),
			},
		},
	}
}

// cronSpec turns spec.md §6's scrapping_hours list (["08:00", "20:00"])
// into a single robfig/cron/v3 expression firing at minute 0 of each listed
// hour; the minutes of each entry are dropped, so "08:30" fires at 08:00.
func cronSpec(hours []string) string {
	if len(hours) == 0 {
		return "0 */4 * * *"
	}
	clock := make([]string, 0, len(hours))
	for _, h := range hours {
		hourPart := strings.SplitN(h, ":", 2)[0]
		clock = append(clock, strings.TrimPrefix(hourPart, "0"))
	}
	return "0 " + strings.Join(clock, ",") + " * * *"
}
