package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.UsageCounter{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, plan string) uint {
	t.Helper()

	user := models.User{Name: "Test User", Email: "test@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	if plan != "" {
		require.NoError(t, db.Create(&models.Subscription{
			UserID: user.ID,
			Plan:   plan,
			Status: "active",
		}).Error)
	}

	return user.ID
}

func TestCheckAllowsUnderLimit(t *testing.T) {
	db := setupTestDB(t)
	gate := NewGate(db)
	userID := createTestUser(t, db, "free")

	require.NoError(t, db.Create(&models.UsageCounter{
		UserID:      userID,
		Action:      types.ActionAdResponse,
		PeriodStart: PeriodStart(time.Now()),
		Count:       4,
	}).Error)

	decision, err := gate.Check(userID, types.ActionAdResponse)

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Count)
	assert.Equal(t, 5, decision.Limit)
	assert.Equal(t, "free", decision.Plan)
}

func TestCheckDeniesAtLimit(t *testing.T) {
	db := setupTestDB(t)
	gate := NewGate(db)
	userID := createTestUser(t, db, "free")

	require.NoError(t, db.Create(&models.UsageCounter{
		UserID:      userID,
		Action:      types.ActionAdResponse,
		PeriodStart: PeriodStart(time.Now()),
		Count:       5,
	}).Error)

	decision, err := gate.Check(userID, types.ActionAdResponse)

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 5, decision.Count)
	assert.Equal(t, 5, decision.Limit)
}

func TestCheckUnlimitedOnProPlan(t *testing.T) {
	db := setupTestDB(t)
	gate := NewGate(db)
	userID := createTestUser(t, db, "pro")

	require.NoError(t, db.Create(&models.UsageCounter{
		UserID:      userID,
		Action:      types.ActionAdResponse,
		PeriodStart: PeriodStart(time.Now()),
		Count:       500,
	}).Error)

	decision, err := gate.Check(userID, types.ActionAdResponse)

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 500, decision.Count)
	assert.Equal(t, -1, decision.Limit)
	assert.Equal(t, "pro", decision.Plan)
}

func TestCheckWithoutSubscriptionUsesFreePlan(t *testing.T) {
	db := setupTestDB(t)
	gate := NewGate(db)
	userID := createTestUser(t, db, "")

	decision, err := gate.Check(userID, types.ActionAdResponse)

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Count)
	assert.Equal(t, 5, decision.Limit)
	assert.Equal(t, "free", decision.Plan)
}

func TestCheckIgnoresPreviousPeriodCounters(t *testing.T) {
	db := setupTestDB(t)
	gate := NewGate(db)
	userID := createTestUser(t, db, "free")

	lastMonth := PeriodStart(time.Now()).AddDate(0, -1, 0)

	require.NoError(t, db.Create(&models.UsageCounter{
		UserID:      userID,
		Action:      types.ActionAdResponse,
		PeriodStart: lastMonth,
		Count:       5,
	}).Error)

	decision, err := gate.Check(userID, types.ActionAdResponse)

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Count)
}

func TestIncrementCreatesAndBumpsCounter(t *testing.T) {
	db := setupTestDB(t)
	gate := NewGate(db)
	userID := createTestUser(t, db, "free")

	require.NoError(t, gate.Increment(userID, types.ActionAdResponse))
	require.NoError(t, gate.Increment(userID, types.ActionAdResponse))
	require.NoError(t, gate.Increment(userID, types.ActionAdResponse))

	var counter models.UsageCounter
	require.NoError(t, db.Where("user_id = ? AND action = ?", userID, types.ActionAdResponse).First(&counter).Error)
	assert.Equal(t, 3, counter.Count)

	var total int64
	require.NoError(t, db.Model(&models.UsageCounter{}).Where("user_id = ?", userID).Count(&total).Error)
	assert.Equal(t, int64(1), total, "increments reuse a single row per period")
}

func TestPeriodStart(t *testing.T) {
	ts := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), PeriodStart(ts))
}
