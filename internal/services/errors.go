package services

import (
	"driveet-backend/pkg/logger"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrorKind classifies bundle and order failures so callers can branch
// without string matching.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindInvalidState         ErrorKind = "INVALID_STATE"
	KindNoActiveBundle       ErrorKind = "NO_ACTIVE_BUNDLE"
	KindQuotaExhausted       ErrorKind = "QUOTA_EXHAUSTED"
	KindDailyLimitReached    ErrorKind = "DAILY_LIMIT_REACHED"
	KindBundleExpired        ErrorKind = "BUNDLE_EXPIRED"
	KindInvalidResourceKind  ErrorKind = "INVALID_RESOURCE_KIND"
	KindExternalVerification ErrorKind = "EXTERNAL_VERIFICATION_FAILURE"
	KindValidation           ErrorKind = "VALIDATION_FAILURE"
	KindInternal             ErrorKind = "INTERNAL_ERROR"
)

// BundleError is returned for every expected business failure. Two
// BundleErrors match under errors.Is when their kinds are equal.
type BundleError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *BundleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

func (e *BundleError) Is(target error) bool {
	t, ok := target.(*BundleError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound             = &BundleError{Kind: KindNotFound, Message: "not found"}
	ErrInvalidState         = &BundleError{Kind: KindInvalidState, Message: "invalid state for this operation"}
	ErrNoActiveBundle       = &BundleError{Kind: KindNoActiveBundle, Message: "no active bundle"}
	ErrQuotaExhausted       = &BundleError{Kind: KindQuotaExhausted, Message: "quota exhausted"}
	ErrDailyLimitReached    = &BundleError{Kind: KindDailyLimitReached, Message: "daily chat limit reached"}
	ErrBundleExpired        = &BundleError{Kind: KindBundleExpired, Message: "bundle expired"}
	ErrInvalidResourceKind  = &BundleError{Kind: KindInvalidResourceKind, Message: "invalid resource kind"}
	ErrExternalVerification = &BundleError{Kind: KindExternalVerification, Message: "payment verification failed"}
	ErrValidation           = &BundleError{Kind: KindValidation, Message: "validation failed"}
	ErrInternal             = &BundleError{Kind: KindInternal, Message: "internal error"}
)

func newError(kind ErrorKind, format string, args ...interface{}) *BundleError {
	return &BundleError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// internalError wraps an unexpected fault and logs it. Errors that already
// carry a kind are passed through untouched.
func internalError(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BundleError
	if errors.As(err, &be) {
		return err
	}
	logger.Log.Error("unexpected failure", zap.String("op", op), zap.Error(err))
	return &BundleError{Kind: KindInternal, Message: op + " failed", Err: err}
}

// KindOf reports the kind carried by err; unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var be *BundleError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}
