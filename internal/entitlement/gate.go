package entitlement

import (
	"errors"
	"time"

	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Decision reports whether a gated action is allowed, with the counter
// and limit echoed back for client display.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Count   int    `json:"count"`
	Limit   int    `json:"limit"`
	Plan    string `json:"plan"`
}

type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// PeriodStart returns the start of the billing period containing t,
// a calendar month in UTC.
func PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Check compares the user's current-period usage of an action against
// their plan limit. Users without an active subscription row are on the
// free plan.
func (g *Gate) Check(userID uint, action string) (Decision, error) {
	plan := "free"

	var subscription models.Subscription

	err := g.db.Where("user_id = ? AND status = ?", userID, "active").First(&subscription).Error

	if err == nil {
		plan = subscription.Plan
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{}, err
	}

	limit := types.LimitFor(plan, action)

	var counter models.UsageCounter

	count := 0

	err = g.db.Where("user_id = ? AND action = ? AND period_start = ?", userID, action, PeriodStart(time.Now())).First(&counter).Error

	if err == nil {
		count = counter.Count
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{}, err
	}

	return Decision{
		Allowed: limit < 0 || count < limit,
		Count:   count,
		Limit:   limit,
		Plan:    plan,
	}, nil
}

// Increment bumps the current-period counter through a single atomic
// upsert. Concurrent increments are serialized by the store.
func (g *Gate) Increment(userID uint, action string) error {
	counter := models.UsageCounter{
		UserID:      userID,
		Action:      action,
		PeriodStart: PeriodStart(time.Now()),
		Count:       1,
	}

	return g.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "action"}, {Name: "period_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("usage_counters.count + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&counter).Error
}
