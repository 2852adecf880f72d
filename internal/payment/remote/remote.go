package remote

import (
	"bytes"
	"context"
	"driveet-backend/internal/payment"
	"driveet-backend/internal/utils"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RemoteDriver asks an HTTP verification service to confirm a reference.
type RemoteDriver struct {
	URL    string
	APIKey string
	Client *http.Client
}

type verifyRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

type verifyResponse struct {
	Success      bool        `json:"success"`
	Amount       interface{} `json:"amount"`
	PayerName    string      `json:"payer_name"`
	PayerAccount string      `json:"payer_account"`
	Receiver     string      `json:"receiver"`
	Date         string      `json:"date"`
	Reference    string      `json:"reference"`
	Reason       string      `json:"reason"`
	Error        string      `json:"error"`
}

func NewRemoteDriver(url string, timeout time.Duration) *RemoteDriver {
	return &RemoteDriver{
		URL:    url,
		Client: utils.NewHTTPClient(timeout),
	}
}

func (d *RemoteDriver) SetConfig(config map[string]interface{}) error {
	if val, ok := config["url"].(string); ok && val != "" {
		d.URL = val
	}
	if val, ok := config["api_key"].(string); ok {
		d.APIKey = val
	}
	if val, ok := config["timeout_seconds"].(float64); ok && val > 0 {
		d.Client = utils.NewHTTPClient(time.Duration(val * float64(time.Second)))
	}
	if d.URL == "" {
		return errors.New("missing required config: url")
	}
	return nil
}

func (d *RemoteDriver) Verify(ctx context.Context, methodCode, reference string) (payment.VerifyResult, error) {
	body, err := json.Marshal(verifyRequest{Method: methodCode, Reference: reference})
	if err != nil {
		return payment.VerifyResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return payment.VerifyResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.APIKey)
	}

	client := d.Client
	if client == nil {
		client = utils.NewHTTPClient(30 * time.Second)
	}
	resp, err := client.Do(req)
	if err != nil {
		return payment.VerifyResult{}, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return payment.VerifyResult{}, fmt.Errorf("verification service returned HTTP %d", resp.StatusCode)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return payment.VerifyResult{
				Success: false,
				Error:   fmt.Sprintf("verification service returned HTTP %d", resp.StatusCode),
			}, nil
		}
		return payment.VerifyResult{}, fmt.Errorf("decode verification response: %w", err)
	}

	amount, err := parseAmount(vr.Amount)
	if err != nil && vr.Success {
		return payment.VerifyResult{}, err
	}

	return payment.VerifyResult{
		Success:      vr.Success && resp.StatusCode == http.StatusOK,
		Amount:       amount,
		PayerName:    vr.PayerName,
		PayerAccount: vr.PayerAccount,
		Receiver:     vr.Receiver,
		Date:         vr.Date,
		Reference:    vr.Reference,
		Reason:       vr.Reason,
		Error:        vr.Error,
	}, nil
}

// parseAmount accepts numbers and strings such as "1,250.00 ETB".
func parseAmount(v interface{}) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return val, nil
	case string:
		cleaned := strings.ReplaceAll(val, ",", "")
		cleaned = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cleaned), "ETB"))
		if cleaned == "" {
			return 0, nil
		}
		amount, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", val, err)
		}
		return amount, nil
	default:
		return 0, fmt.Errorf("unexpected amount type %T", v)
	}
}
