package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnsupportedMethod = errors.New("unsupported payment method")

// VerifyResult is what a provider reports for a submitted reference.
// Success=false with Error set means the provider answered but could not
// confirm the payment.
type VerifyResult struct {
	Success      bool    `json:"success"`
	Amount       float64 `json:"amount,omitempty"`
	PayerName    string  `json:"payer_name,omitempty"`
	PayerAccount string  `json:"payer_account,omitempty"`
	Receiver     string  `json:"receiver,omitempty"`
	Date         string  `json:"date,omitempty"`
	Reference    string  `json:"reference,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Verifier confirms an offline payment reference for a payment method code.
// A returned error means the provider could not be reached at all.
type Verifier interface {
	Verify(ctx context.Context, methodCode, reference string) (VerifyResult, error)
}

// Driver is the interface that all payment verification drivers must implement
type Driver interface {
	Verifier

	// SetConfig sets the configuration for the driver
	SetConfig(config map[string]interface{}) error
}

// Registry routes a payment method code to the verifier configured for it.
type Registry struct {
	mu       sync.RWMutex
	drivers  map[string]Verifier
	fallback Verifier
}

// NewRegistry creates a registry; fallback (may be nil) handles codes with no
// registered driver.
func NewRegistry(fallback Verifier) *Registry {
	return &Registry{
		drivers:  make(map[string]Verifier),
		fallback: fallback,
	}
}

func (r *Registry) Register(methodCode string, v Verifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[normalizeCode(methodCode)] = v
}

// Reset drops all registered drivers, keeping the fallback.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = make(map[string]Verifier)
}

func (r *Registry) Verify(ctx context.Context, methodCode, reference string) (VerifyResult, error) {
	r.mu.RLock()
	v, ok := r.drivers[normalizeCode(methodCode)]
	if !ok {
		v = r.fallback
	}
	r.mu.RUnlock()

	if v == nil {
		return VerifyResult{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, methodCode)
	}
	return v.Verify(ctx, methodCode, strings.TrimSpace(reference))
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
