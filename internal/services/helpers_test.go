package services

import (
	"context"
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/internal/payment"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testStart = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// setupTestDB gives each test its own in-memory database. A single
// connection serializes transactions the way row locks do on Postgres.
func setupTestDB(t *testing.T) *testClock {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db
	database.RedisClient = nil

	Configure(Settings{
		LedgerSecret:        "test-secret",
		OrderTTL:            24 * time.Hour,
		ResourceCacheTTL:    time.Minute,
		CatalogCacheTTL:     time.Minute,
		PopularityThreshold: 50,
		Location:            time.UTC,
	})

	clk := &testClock{t: testStart}
	SetClock(clk.Now)
	SetVerifier(nil)

	t.Cleanup(func() {
		SetClock(nil)
		SetVerifier(nil)
		sqlDB.Close()
	})
	return clk
}

func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		database.RedisClient.Close()
		database.RedisClient = nil
	})
	return mr
}

var testActor = Actor{Operator: "tester", IPAddress: "127.0.0.1", UserAgent: "go-test"}

func seedUser(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Role: models.RoleUser, Version: 1}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

type defOpts struct {
	exam, chat, daily, search models.Quota
	roadSign                  bool
	validity                  int
}

func standardQuotas() defOpts {
	return defOpts{
		exam:     models.Bounded(10),
		chat:     models.Bounded(50),
		daily:    models.Bounded(10),
		search:   models.Unlimited(),
		roadSign: true,
		validity: 30,
	}
}

func seedDefinition(t *testing.T, code string, price float64, o defOpts) models.BundleDefinition {
	t.Helper()
	if o.validity == 0 {
		o.validity = 30
	}
	def := models.BundleDefinition{
		Name:                     code + " bundle",
		Code:                     code,
		ExamQuota:                o.exam,
		TotalChatQuota:           o.chat,
		DailyChatLimit:           o.daily,
		SearchQuota:              o.search,
		HasUnlimitedRoadSignQuiz: o.roadSign,
		ValidityDays:             o.validity,
		Price:                    price,
		IsActive:                 true,
	}
	require.NoError(t, database.DB.Create(&def).Error)
	return def
}

func seedMethod(t *testing.T, code string) models.PaymentMethod {
	t.Helper()
	m := models.PaymentMethod{
		UUID:       uuid.NewString(),
		Name:       code,
		Code:       code,
		MethodType: models.PaymentMethodMobileWallet,
		Driver:     DriverMock,
		IsActive:   true,
	}
	require.NoError(t, database.DB.Create(&m).Error)
	return m
}

func purchase(t *testing.T, userID uint, def models.BundleDefinition) *models.UserBundle {
	t.Helper()
	bundle, _, err := PurchaseBundle(userID, def.ID, PaymentData{}, testActor)
	require.NoError(t, err)
	return bundle
}

func reloadBundle(t *testing.T, id uint) models.UserBundle {
	t.Helper()
	var b models.UserBundle
	require.NoError(t, database.DB.Preload("BundleDefinition").First(&b, id).Error)
	return b
}

func countTransactions(t *testing.T, bundleID uint, typ models.TransactionType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.DB.Model(&models.ResourceTransaction{}).
		Where("user_bundle_id = ? AND type = ?", bundleID, typ).Count(&n).Error)
	return n
}

// stubVerifier returns canned results and records calls.
type stubVerifier struct {
	mu      sync.Mutex
	results map[string]payment.VerifyResult
	err     error
	calls   int
	// during runs inside Verify, standing in for a slow provider.
	during func()
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{results: map[string]payment.VerifyResult{}}
}

func (s *stubVerifier) paid(reference string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[reference] = payment.VerifyResult{
		Success:   true,
		Amount:    amount,
		PayerName: "Abebe Kebede",
		Reference: reference,
	}
}

func (s *stubVerifier) Verify(ctx context.Context, methodCode, reference string) (payment.VerifyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.during != nil {
		s.during()
	}
	if s.err != nil {
		return payment.VerifyResult{}, s.err
	}
	if res, ok := s.results[reference]; ok {
		return res, nil
	}
	return payment.VerifyResult{Success: false, Error: "Transaction not found"}, nil
}
