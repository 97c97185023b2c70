package entitlements

import (
	"strings"
	"time"

	"github.com/ManuelReschke/ExamFox/app/models"
)

type Plan string

const (
	PlanFree          Plan = models.PlanFree
	PlanPro           Plan = models.PlanPro
	PlanInstitutional Plan = models.PlanInstitutional
)

type Alert string

const (
	AlertNone    Alert = "none"
	AlertInfo    Alert = "info"
	AlertWarning Alert = "warning"
	AlertBlocked Alert = "blocked"
)

const (
	// FreeLimit is the canonical free-tier allowance.
	FreeLimit = 10
	ProLimit  = 100
)

const (
	infoRatio    = 0.6
	warningRatio = 0.8
)

// Snapshot is the subset of an account the rule depends on.
type Snapshot struct {
	QuotaUsed          int
	SubscriptionStatus string
	SubscriptionPlan   string
	SubscriptionEnd    *time.Time
}

// Entitlement is the computed allowance of an account at a point in time.
// Limit and Remaining are nil when the plan is unbounded.
type Entitlement struct {
	Plan      Plan  `json:"plan"`
	Limit     *int  `json:"limit"`
	Used      int   `json:"used"`
	Remaining *int  `json:"remaining"`
	Blocked   bool  `json:"blocked"`
	Alert     Alert `json:"alert"`
}

// SnapshotOf extracts the entitlement inputs from an account row.
func SnapshotOf(a *models.Account) Snapshot {
	if a == nil {
		return Snapshot{}
	}
	return Snapshot{
		QuotaUsed:          a.QuotaUsed,
		SubscriptionStatus: a.SubscriptionStatus,
		SubscriptionPlan:   a.SubscriptionPlan,
		SubscriptionEnd:    a.SubscriptionEnd,
	}
}

// LimitFor returns the allowance of a plan; nil means unbounded.
func LimitFor(plan Plan) *int {
	switch plan {
	case PlanInstitutional:
		return nil
	case PlanPro:
		return intPtr(ProLimit)
	default:
		return intPtr(FreeLimit)
	}
}

// EffectivePlan derives the plan in force at now. A subscription only counts
// while its window is open; a lapsed window is read as free without any
// persisted downgrade.
func EffectivePlan(s Snapshot, now time.Time) Plan {
	if !strings.EqualFold(s.SubscriptionStatus, models.SubscriptionStatusActive) {
		return PlanFree
	}
	if s.SubscriptionEnd == nil || !s.SubscriptionEnd.After(now) {
		return PlanFree
	}
	switch Plan(strings.ToLower(strings.TrimSpace(s.SubscriptionPlan))) {
	case PlanPro:
		return PlanPro
	case PlanInstitutional:
		return PlanInstitutional
	default:
		return PlanFree
	}
}

// Evaluate computes the entitlement for a snapshot. It is pure and must be
// called fresh on every check.
func Evaluate(s Snapshot, now time.Time) Entitlement {
	used := s.QuotaUsed
	if used < 0 {
		used = 0
	}
	plan := EffectivePlan(s, now)
	limit := LimitFor(plan)

	e := Entitlement{Plan: plan, Limit: limit, Used: used, Alert: AlertNone}
	if limit == nil {
		return e
	}

	remaining := *limit - used
	if remaining < 0 {
		remaining = 0
	}
	e.Remaining = &remaining
	e.Blocked = used >= *limit
	e.Alert = alertFor(used, *limit)
	return e
}

// Allows reports whether one more generation may be admitted.
func (e Entitlement) Allows() bool {
	return !e.Blocked
}

// Unbounded reports whether the plan has no limit.
func (e Entitlement) Unbounded() bool {
	return e.Limit == nil
}

func alertFor(used, limit int) Alert {
	if limit <= 0 {
		return AlertBlocked
	}
	ratio := float64(used) / float64(limit)
	switch {
	case ratio >= 1.0:
		return AlertBlocked
	case ratio >= warningRatio:
		return AlertWarning
	case ratio >= infoRatio:
		return AlertInfo
	default:
		return AlertNone
	}
}

func intPtr(v int) *int {
	return &v
}
