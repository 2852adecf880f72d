package services

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetDailyChats_IdempotentWithinDay(t *testing.T) {
	clk := setupTestDB(t)
	user := seedUser(t, "abebe")
	bundle := purchase(t, user.ID, seedDefinition(t, "BASIC", 150, standardQuotas()))

	_, err := ConsumeResource(user.ID, models.ResourceChat, 3, "", testActor)
	require.NoError(t, err)

	// Same calendar day as the purchase: nothing predates today's boundary.
	clk.Set(time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC))
	n, err := ResetDailyChats()
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Set(time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC))
	n, err = ResetDailyChats()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	after := reloadBundle(t, bundle.ID)
	assert.Equal(t, 0, after.DailyChatsUsed)
	assert.Equal(t, 3, after.TotalChatsConsumed)
	assert.Equal(t, 47, after.ChatsRemaining)
	assert.EqualValues(t, 1, countTransactions(t, bundle.ID, models.TransactionTypeReset))

	clk.Advance(6 * time.Hour)
	n, err = ResetDailyChats()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 1, countTransactions(t, bundle.ID, models.TransactionTypeReset))
	again := reloadBundle(t, bundle.ID)
	assert.Equal(t, after.Snapshot(), again.Snapshot())

	var row models.ResourceTransaction
	require.NoError(t, database.DB.Where("user_bundle_id = ? AND type = ?", bundle.ID, models.TransactionTypeReset).First(&row).Error)
	assert.Equal(t, "system", row.IPAddress)
	assert.Equal(t, "cron", row.UserAgent)
	assert.Equal(t, 3, row.Quantity)

	report, err := VerifyBundleLedger(bundle.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid, "%+v", report.Issues)
}

func TestResetDailyChats_UsesConfiguredTimezone(t *testing.T) {
	clk := setupTestDB(t)
	loc := time.FixedZone("EAT", 3*60*60)
	s := currentSettings()
	s.Location = loc
	Configure(s)

	user := seedUser(t, "abebe")
	bundle := purchase(t, user.ID, seedDefinition(t, "BASIC", 150, standardQuotas()))

	// 09:00 UTC purchase is 12:00 EAT; 22:00 UTC is already the next EAT day.
	clk.Set(time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC))
	n, err := ResetDailyChats()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 1, countTransactions(t, bundle.ID, models.TransactionTypeReset))
}

func TestExpireBundles(t *testing.T) {
	clk := setupTestDB(t)
	user := seedUser(t, "abebe")
	fresh := seedUser(t, "kebede")
	def := seedDefinition(t, "BASIC", 150, standardQuotas())
	bundle := purchase(t, user.ID, def)

	clk.Advance(20 * 24 * time.Hour)
	live := purchase(t, fresh.ID, def)

	n, err := ExpireBundles()
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(11 * 24 * time.Hour)
	n, err = ExpireBundles()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired := reloadBundle(t, bundle.ID)
	assert.False(t, expired.IsActive)
	assert.EqualValues(t, 1, countTransactions(t, bundle.ID, models.TransactionTypeExpiry))

	var u models.User
	require.NoError(t, database.DB.First(&u, user.ID).Error)
	assert.Nil(t, u.ActiveBundleID)

	_, err = ConsumeResource(user.ID, models.ResourceExam, 1, "", testActor)
	assert.True(t, errors.Is(err, ErrNoActiveBundle))

	assert.True(t, reloadBundle(t, live.ID).IsActive)

	n, err = ExpireBundles()
	require.NoError(t, err)
	assert.Zero(t, n)

	report, err := VerifyBundleLedger(bundle.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid, "%+v", report.Issues)
}

func TestExpireBundles_ContinuesPastFailingBundle(t *testing.T) {
	clk := setupTestDB(t)
	def := seedDefinition(t, "BASIC", 150, standardQuotas())
	first := purchase(t, seedUser(t, "abebe").ID, def)
	orphanOwner := seedUser(t, "ghost")
	orphan := purchase(t, orphanOwner.ID, def)
	last := purchase(t, seedUser(t, "kebede").ID, def)

	// The middle bundle's owner disappears, so its expiry cannot take the
	// user lock.
	require.NoError(t, database.DB.Exec("DELETE FROM users WHERE id = ?", orphanOwner.ID).Error)

	clk.Advance(31 * 24 * time.Hour)
	n, err := ExpireBundles()
	assert.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, 2, n)

	assert.False(t, reloadBundle(t, first.ID).IsActive)
	assert.True(t, reloadBundle(t, orphan.ID).IsActive)
	assert.False(t, reloadBundle(t, last.ID).IsActive)
	assert.EqualValues(t, 1, countTransactions(t, last.ID, models.TransactionTypeExpiry))
}

func TestExpireStaleOrders(t *testing.T) {
	f := setupOrderFixture(t)

	stale, err := CreateOrder(f.user.ID, f.basic.ID, f.method.ID, testActor)
	require.NoError(t, err)
	f.clk.Advance(12 * time.Hour)
	fresh, err := CreateOrder(f.user.ID, f.basic.ID, f.method.ID, testActor)
	require.NoError(t, err)

	f.clk.Advance(13 * time.Hour)
	n, err := ExpireStaleOrders()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := GetOrder(0, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusExpired, got.Status)

	got, err = GetOrder(0, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}
