package utils

import (
	"bytes"
	"driveet-backend/pkg/logger"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxLoggedBody = 2000

// LoggingTransport implements http.RoundTripper and logs requests and responses
type LoggingTransport struct {
	Transport http.RoundTripper
}

// RoundTrip executes a single HTTP transaction and logs the request and response
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqBody := "empty"
	if req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes)) // Restore body
		if len(bodyBytes) > 0 {
			reqBody = truncateBody(bodyBytes)
		}
	}
	logger.Log.Debug("outbound request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("body", reqBody),
	)

	start := time.Now()

	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	resp, err := transport.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		logger.Log.Warn("outbound request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	respBody := "empty"
	if resp.Body != nil {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes)) // Restore body
		if len(bodyBytes) > 0 {
			respBody = truncateBody(bodyBytes)
		}
	}

	logger.Log.Info("outbound response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
		zap.String("body", respBody),
	)

	return resp, nil
}

func truncateBody(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}

// NewHTTPClient returns a new http.Client with logging enabled
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &LoggingTransport{
			Transport: http.DefaultTransport,
		},
	}
}
