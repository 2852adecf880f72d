package mock

import (
	"context"
	"driveet-backend/internal/payment"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MockDriver verifies any reference carrying Prefix. A reference of the form
// "<prefix>-<amount>-<anything>" reports that amount; any other shape,
// including "<prefix>-<digits>", reports Amount.
type MockDriver struct {
	Prefix string
	Amount float64
	Delay  time.Duration
}

func NewMockDriver() *MockDriver {
	return &MockDriver{
		Prefix: "TEST",
		Amount: 500.00,
	}
}

func (d *MockDriver) SetConfig(config map[string]interface{}) error {
	if val, ok := config["prefix"].(string); ok && val != "" {
		d.Prefix = val
	}
	switch val := config["amount"].(type) {
	case float64:
		d.Amount = val
	case string:
		amount, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid amount in config: %w", err)
		}
		d.Amount = amount
	}
	if val, ok := config["delay_ms"].(float64); ok && val > 0 {
		d.Delay = time.Duration(val) * time.Millisecond
	}
	return nil
}

func (d *MockDriver) Verify(ctx context.Context, methodCode, reference string) (payment.VerifyResult, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return payment.VerifyResult{}, ctx.Err()
		}
	}

	if !strings.HasPrefix(reference, d.Prefix) {
		return payment.VerifyResult{
			Success: false,
			Error:   "Mock payment not found",
		}, nil
	}

	amount := d.Amount
	parts := strings.SplitN(reference, "-", 3)
	if len(parts) == 3 {
		if parsed, err := strconv.ParseFloat(parts[1], 64); err == nil && parsed >= 0 {
			amount = parsed
		}
	}

	suffix := reference
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}

	return payment.VerifyResult{
		Success:      true,
		Amount:       amount,
		PayerName:    "Test User " + suffix,
		PayerAccount: "1234567890",
		Receiver:     "DriveEt",
		Date:         time.Now().Format("2006-01-02 15:04:05"),
		Reference:    reference,
		Reason:       fmt.Sprintf("%s bundle payment", strings.ToUpper(methodCode)),
	}, nil
}
