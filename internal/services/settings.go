package services

import (
	"driveet-backend/config"
	"driveet-backend/internal/payment"
	"sync"
	"time"
)

// Settings is the service-level slice of the application config.
type Settings struct {
	LedgerSecret        string
	OrderTTL            time.Duration
	ResourceCacheTTL    time.Duration
	CatalogCacheTTL     time.Duration
	PopularityThreshold int64
	Location            *time.Location
}

// Actor is the request context recorded on every ledger row.
type Actor struct {
	Operator  string
	IPAddress string
	UserAgent string
}

// SystemActor is used by scheduled maintenance.
var SystemActor = Actor{Operator: "system", IPAddress: "system", UserAgent: "cron"}

var (
	settingsMu sync.RWMutex
	settings   = DefaultSettings()

	clockMu sync.RWMutex
	clock   = time.Now

	verifierMu sync.RWMutex
	verifier   payment.Verifier
)

func DefaultSettings() Settings {
	return Settings{
		LedgerSecret:        "default-secret",
		OrderTTL:            24 * time.Hour,
		ResourceCacheTTL:    5 * time.Minute,
		CatalogCacheTTL:     10 * time.Minute,
		PopularityThreshold: 50,
		Location:            time.Local,
	}
}

// SettingsFromConfig maps the application config onto Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.LedgerSecret != "" {
		s.LedgerSecret = cfg.LedgerSecret
	}
	if cfg.OrderTTL > 0 {
		s.OrderTTL = cfg.OrderTTL
	}
	if cfg.ResourceCacheTTL > 0 {
		s.ResourceCacheTTL = cfg.ResourceCacheTTL
	}
	if cfg.CatalogCacheTTL > 0 {
		s.CatalogCacheTTL = cfg.CatalogCacheTTL
	}
	if cfg.PopularityThreshold > 0 {
		s.PopularityThreshold = cfg.PopularityThreshold
	}
	s.Location = cfg.Location()
	return s
}

// Configure installs service settings. Call once at start-up (and in tests).
func Configure(s Settings) {
	if s.Location == nil {
		s.Location = time.Local
	}
	settingsMu.Lock()
	settings = s
	settingsMu.Unlock()
}

func currentSettings() Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings
}

// SetClock replaces the time source; pass nil to restore time.Now.
func SetClock(fn func() time.Time) {
	clockMu.Lock()
	defer clockMu.Unlock()
	if fn == nil {
		fn = time.Now
	}
	clock = fn
}

func now() time.Time {
	clockMu.RLock()
	defer clockMu.RUnlock()
	return clock()
}

// SetVerifier installs the payment verifier used by VerifyPayment.
func SetVerifier(v payment.Verifier) {
	verifierMu.Lock()
	defer verifierMu.Unlock()
	verifier = v
}

func currentVerifier() payment.Verifier {
	verifierMu.RLock()
	defer verifierMu.RUnlock()
	return verifier
}
