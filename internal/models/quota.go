package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// Quota is a resource allowance: either a bounded count or Unlimited.
// Unlimited is stored as -1, never as zero or NULL: a NULL column skips Scan
// and leaves the zero value, which is Bounded(0). Legacy NULL rows still scan
// as Unlimited when the driver hands Scan a nil.
type Quota struct {
	limit     int
	unlimited bool
}

func Bounded(n int) Quota {
	if n < 0 {
		n = 0
	}
	return Quota{limit: n}
}

func Unlimited() Quota {
	return Quota{unlimited: true}
}

func (q Quota) IsUnlimited() bool { return q.unlimited }

// Limit returns the bounded count and false when the quota is unlimited.
func (q Quota) Limit() (int, bool) {
	if q.unlimited {
		return 0, false
	}
	return q.limit, true
}

// Allows reports whether `used + quantity` stays within the quota.
func (q Quota) Allows(used, quantity int) bool {
	if q.unlimited {
		return true
	}
	return used+quantity <= q.limit
}

// BoundedValue is the count used by value scoring: unlimited contributes 0.
func (q Quota) BoundedValue() int {
	if q.unlimited {
		return 0
	}
	return q.limit
}

func (q Quota) String() string {
	if q.unlimited {
		return "unlimited"
	}
	return strconv.Itoa(q.limit)
}

const unlimitedStored int64 = -1

func storedQuota(n int64) Quota {
	if n < 0 {
		return Unlimited()
	}
	return Bounded(int(n))
}

// Value implements the driver.Valuer interface
func (q Quota) Value() (driver.Value, error) {
	if q.unlimited {
		return unlimitedStored, nil
	}
	return int64(q.limit), nil
}

// Scan implements the sql.Scanner interface
func (q *Quota) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*q = Unlimited()
	case int64:
		*q = storedQuota(v)
	case int32:
		*q = storedQuota(int64(v))
	case int:
		*q = storedQuota(int64(v))
	case float64:
		*q = storedQuota(int64(v))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("quota: cannot scan %q: %w", v, err)
		}
		*q = storedQuota(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("quota: cannot scan %q: %w", v, err)
		}
		*q = storedQuota(n)
	default:
		return fmt.Errorf("quota: unsupported scan type %T", value)
	}
	return nil
}

func (q Quota) MarshalJSON() ([]byte, error) {
	if q.unlimited {
		return json.Marshal("unlimited")
	}
	return json.Marshal(q.limit)
}

func (q *Quota) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unlimited" {
			return fmt.Errorf("quota: unknown value %q", s)
		}
		*q = Unlimited()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quota: expected integer or \"unlimited\": %w", err)
	}
	if n < 0 {
		return fmt.Errorf("quota: negative value %d", n)
	}
	*q = Bounded(n)
	return nil
}
