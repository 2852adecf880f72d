package services

import (
	"driveet-backend/internal/models"
	"driveet-backend/internal/payment"
	"driveet-backend/internal/payment/mock"
	"driveet-backend/internal/payment/remote"
	"driveet-backend/pkg/logger"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DriverMock   = "mock"
	DriverRemote = "remote"
)

// VerifierOptions are the process-wide defaults drivers fall back to when a
// payment method's own config leaves a setting out.
type VerifierOptions struct {
	Mode       string
	URL        string
	Timeout    time.Duration
	MockAmount float64
}

var verifierOptions = VerifierOptions{Mode: DriverMock, Timeout: 30 * time.Second, MockAmount: 500}

// NewDriver builds and configures the driver a payment method names.
func NewDriver(method models.PaymentMethod, opts VerifierOptions) (payment.Driver, error) {
	var driver payment.Driver
	switch method.Driver {
	case DriverMock, "":
		d := mock.NewMockDriver()
		if opts.MockAmount > 0 {
			d.Amount = opts.MockAmount
		}
		driver = d
	case DriverRemote:
		driver = remote.NewRemoteDriver(opts.URL, opts.Timeout)
	default:
		return nil, fmt.Errorf("%w: driver %q", payment.ErrUnsupportedMethod, method.Driver)
	}

	configMap := map[string]interface{}{}
	if len(method.Config) > 0 {
		if err := json.Unmarshal(method.Config, &configMap); err != nil {
			return nil, fmt.Errorf("parse config for %s: %w", method.Code, err)
		}
	}
	if err := driver.SetConfig(configMap); err != nil {
		return nil, fmt.Errorf("configure %s: %w", method.Code, err)
	}
	return driver, nil
}

// NewVerifierRegistry creates the registry installed as the order flow's
// verifier. The fallback driver follows opts.Mode.
func NewVerifierRegistry(opts VerifierOptions) (*payment.Registry, error) {
	fallback, err := NewDriver(models.PaymentMethod{Code: "DEFAULT", Driver: opts.Mode}, opts)
	if err != nil {
		return nil, err
	}
	verifierOptions = opts
	return payment.NewRegistry(fallback), nil
}

// ReloadPaymentDrivers rebuilds per-method drivers from the active catalog.
// It is a no-op unless the installed verifier is a Registry.
func ReloadPaymentDrivers() error {
	registry, ok := currentVerifier().(*payment.Registry)
	if !ok {
		return nil
	}

	methods, err := GetActivePaymentMethods()
	if err != nil {
		return err
	}

	registry.Reset()
	for _, m := range methods {
		driver, err := NewDriver(m, verifierOptions)
		if err != nil {
			logger.Log.Warn("skipping payment method driver",
				zap.String("code", m.Code),
				zap.String("driver", m.Driver),
				zap.Error(err),
			)
			continue
		}
		registry.Register(m.Code, driver)
	}
	logger.Log.Info("payment drivers loaded", zap.Int("methods", len(methods)))
	return nil
}
