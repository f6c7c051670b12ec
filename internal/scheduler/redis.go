package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ledgerflow/pkg/logger"
)

// UpdateGate enforces the per-account minimum-interval requirement from
// SPEC_FULL.md §5, backed by Redis as the "metadata file" persistence
// spec.md §6 names: a key per account holding its last successful run
// time. Grounded on wdfday-personalfinance-be's use of
// github.com/redis/go-redis/v9 for ephemeral, keyed state.
type UpdateGate struct {
	client      *redis.Client
	minInterval time.Duration
}

// NewUpdateGate returns a gate enforcing minInterval between successful
// runs of the same account/card.
func NewUpdateGate(client *redis.Client, minInterval time.Duration) *UpdateGate {
	return &UpdateGate{client: client, minInterval: minInterval}
}

func gateKey(account string) string { return fmt.Sprintf("scheduler:last_run:%s", account) }

// ShouldRun reports whether account is due for another update, i.e. at
// least minInterval has passed since MarkRun was last called for it.
func (g *UpdateGate) ShouldRun(ctx context.Context, account string) bool {
	val, err := g.client.Get(ctx, gateKey(account)).Int64()
	if err != nil {
		// redis.Nil (never run before) or a transient error: don't block
		// the run on gate unavailability.
		return true
	}
	last := time.Unix(val, 0)
	return time.Since(last) >= g.minInterval
}

// MarkRun records account's successful run time.
func (g *UpdateGate) MarkRun(ctx context.Context, account string) {
	if err := g.client.Set(ctx, gateKey(account), time.Now().Unix(), 0).Err(); err != nil {
		logger.GetLogger().WithError(err).WithField("account", account).Warn("scheduler: failed to record run time in gate")
	}
}

// OTPMailbox is the Redis-backed mailbox the HTTP access-code endpoint
// writes into (internal/handler's PUT /accounts/{id}/access_code) and the
// scheduler's SMS-OTP wait polls out of, grounded on
// wdfday-personalfinance-be's go-redis usage and SPEC_FULL.md §5/§6.3.
type OTPMailbox struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPMailbox returns a mailbox whose entries expire after ttl if never
// consumed.
func NewOTPMailbox(client *redis.Client, ttl time.Duration) *OTPMailbox {
	return &OTPMailbox{client: client, ttl: ttl}
}

func otpKey(account string) string { return fmt.Sprintf("scheduler:otp:%s", account) }

// Deposit stores a freshly received access code for account, overwriting
// any previous pending code.
func (m *OTPMailbox) Deposit(ctx context.Context, account, code string) error {
	return m.client.Set(ctx, otpKey(account), code, m.ttl).Err()
}

// Wait polls the mailbox for account's pending code until it arrives or
// the 10-second deadline SPEC_FULL.md §5 names elapses, whichever is
// first, returning *SMSOTPTimeout on the latter.
func (m *OTPMailbox) Wait(ctx context.Context, account string) (string, error) {
	const pollInterval = 500 * time.Millisecond
	const deadline = 10 * time.Second

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		code, err := m.client.GetDel(ctx, otpKey(account)).Result()
		if err == nil {
			return code, nil
		}
		if err != redis.Nil {
			logger.GetLogger().WithError(err).WithField("account", account).Warn("scheduler: otp mailbox read failed, retrying")
		}
		select {
		case <-ctx.Done():
			return "", &SMSOTPTimeout{Account: account, Waited: deadline.String()}
		case <-ticker.C:
		}
	}
}
