// Package quota enforces per-plan daily usage limits with a fixed-offset
// daily reset. All day boundaries are computed in Japan Standard Time
// regardless of the host timezone.
package quota

import (
	"context"
	"time"

	"github.com/miulabs/miu-linebot-go/internal/storage"
)

// Unlimited is the sentinel limit for plans without a daily ceiling.
// It short-circuits the quota comparison and is never compared as a
// real counter value.
const Unlimited = int(^uint(0) >> 1)

// JST is the fixed reset timezone. The bot serves users living in Japan,
// so the day boundary follows Japanese local time.
var JST = time.FixedZone("JST", 9*60*60)

// DefaultFreeDailyLimit is the free-plan ceiling applied when no override
// is configured.
const DefaultFreeDailyLimit = 10

// Kind distinguishes which counter a request consumes.
type Kind int

// Usage kinds.
const (
	KindText Kind = iota
	KindVision
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	Plan    storage.Plan
	Limit   int // Unlimited for unmetered plans
	Used    int
}

// Manager evaluates quota decisions against a plan→limit table.
type Manager struct {
	freeDailyLimit int
}

// New creates a quota manager. freeDailyLimit <= 0 selects the default.
func New(freeDailyLimit int) *Manager {
	if freeDailyLimit <= 0 {
		freeDailyLimit = DefaultFreeDailyLimit
	}
	return &Manager{freeDailyLimit: freeDailyLimit}
}

// Limit returns the daily ceiling for a plan.
func (m *Manager) Limit(plan storage.Plan) int {
	switch plan {
	case storage.PlanTrial, storage.PlanPremium:
		return Unlimited
	default:
		return m.freeDailyLimit
	}
}

// Check decides whether one more request of the given kind is allowed.
// It never mutates state; the increment happens separately, immediately
// before the paid external call.
func (m *Manager) Check(u *storage.User, kind Kind) Decision {
	limit := m.Limit(u.Plan)

	used := u.TodayCount
	if kind == KindVision {
		used = u.VisionCount
	}

	if limit == Unlimited {
		return Decision{Allowed: true, Plan: u.Plan, Limit: limit, Used: used}
	}

	return Decision{
		Allowed: used < limit,
		Plan:    u.Plan,
		Limit:   limit,
		Used:    used,
	}
}

// Today returns the current date string (YYYY-MM-DD) in JST.
func Today() string {
	return time.Now().In(JST).Format("2006-01-02")
}

// ApplyDailyReset zeroes the user's counters when the stored reset date is
// not today (JST). Runs as a side effect of loading the row, before any
// gate logic; same-day calls are no-ops.
func ApplyDailyReset(ctx context.Context, db *storage.DB, u *storage.User) error {
	today := Today()
	if u.LastResetDate == today {
		return nil
	}
	if err := db.ResetDailyCounters(ctx, u.ID, today); err != nil {
		return err
	}
	u.TodayCount = 0
	u.VisionCount = 0
	u.LastResetDate = today
	return nil
}
