package services

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startOfDay is midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ResetDailyChats zeroes the daily chat counter of every active bundle whose
// last reset predates today's boundary. Running it twice in one day resets
// nothing the second time. A bundle that fails is logged and skipped; the
// sweep still visits the rest and reports the failures at the end.
func ResetDailyChats() (int, error) {
	at := now()
	boundary := startOfDay(at, currentSettings().Location)

	var ids []uint
	if err := database.DB.Model(&models.UserBundle{}).
		Where("is_active = ? AND last_chat_reset < ?", true, boundary.UTC()).
		Order("id asc").
		Pluck("id", &ids).Error; err != nil {
		return 0, internalError("list bundles for daily reset", err)
	}

	reset, failed := 0, 0
	for _, id := range ids {
		userID, done, err := resetBundle(id, boundary)
		if err != nil {
			failed++
			logger.Log.Error("daily chat reset failed", zap.Uint("bundle_id", id), zap.Error(err))
			continue
		}
		if done {
			reset++
			invalidateResourceCache(userID)
		}
	}

	maintenanceAffectedTotal.WithLabelValues("reset_daily_chats").Add(float64(reset))
	maintenanceFailuresTotal.WithLabelValues("reset_daily_chats").Add(float64(failed))
	logger.Log.Info("daily chat reset finished",
		zap.Int("bundles", reset),
		zap.Int("failed", failed),
		zap.Time("boundary", boundary),
	)
	return reset, sweepError("reset daily chats", failed, len(ids))
}

func resetBundle(id uint, boundary time.Time) (uint, bool, error) {
	var (
		userID uint
		done   bool
	)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		b, err := lockBundle(tx, id)
		if err != nil {
			return err
		}
		if !b.IsActive || !b.LastChatReset.Before(boundary) {
			return nil
		}
		userID = b.UserID
		done = true
		return applyDailyReset(tx, b, now(), SystemActor, "Daily chat reset")
	})
	return userID, done, err
}

// ExpireBundles deactivates active bundles past their expiry and clears the
// owner's active pointer when it still references them. Failures are handled
// per bundle as in ResetDailyChats.
func ExpireBundles() (int, error) {
	at := now()

	var due []struct {
		ID     uint
		UserID uint
	}
	if err := database.DB.Model(&models.UserBundle{}).
		Select("id", "user_id").
		Where("is_active = ? AND expiry_date < ?", true, at).
		Order("id asc").
		Find(&due).Error; err != nil {
		return 0, internalError("list expired bundles", err)
	}

	expired, failed := 0, 0
	for _, b := range due {
		done, err := expireBundle(b.ID, b.UserID)
		if err != nil {
			failed++
			logger.Log.Error("bundle expiry failed",
				zap.Uint("bundle_id", b.ID),
				zap.Uint("user_id", b.UserID),
				zap.Error(err),
			)
			continue
		}
		if done {
			expired++
			invalidateResourceCache(b.UserID)
		}
	}

	maintenanceAffectedTotal.WithLabelValues("expire_bundles").Add(float64(expired))
	maintenanceFailuresTotal.WithLabelValues("expire_bundles").Add(float64(failed))
	logger.Log.Info("bundle expiry finished", zap.Int("bundles", expired), zap.Int("failed", failed))
	return expired, sweepError("expire bundles", failed, len(due))
}

// expireBundle locks the owner before the bundle, the same order activation
// uses, so an expiry racing a purchase for that user waits instead of
// deadlocking.
func expireBundle(bundleID, userID uint) (bool, error) {
	done := false
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		b, err := lockBundle(tx, bundleID)
		if err != nil {
			return err
		}
		ts := now()
		if !b.IsActive || !b.IsExpired(ts) {
			return nil
		}
		if err := deactivateBundle(tx, b, ts, SystemActor, "Bundle expired"); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id = ? AND active_bundle_id = ?", b.UserID, b.ID).
			Updates(map[string]interface{}{
				"active_bundle_id": nil,
				"version":          gorm.Expr("version + 1"),
				"updated_at":       ts,
			}).Error; err != nil {
			return err
		}
		done = true
		return nil
	})
	return done, err
}

// sweepError summarizes skipped bundles once a sweep has visited all of them.
func sweepError(job string, failed, total int) error {
	if failed == 0 {
		return nil
	}
	return newError(KindInternal, "%s: %d of %d bundles failed", job, failed, total)
}

// ExpireStaleOrders moves pending orders past their deadline to expired.
func ExpireStaleOrders() (int64, error) {
	res := database.DB.Model(&models.BundleOrder{}).
		Where("status = ? AND expires_at < ?", models.OrderStatusPending, now()).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusExpired,
			"updated_at": now(),
		})
	if res.Error != nil {
		return 0, internalError("expire stale orders", res.Error)
	}

	maintenanceAffectedTotal.WithLabelValues("expire_orders").Add(float64(res.RowsAffected))
	orderTransitionsTotal.WithLabelValues(string(models.OrderStatusExpired)).Add(float64(res.RowsAffected))
	logger.Log.Info("stale order sweep finished", zap.Int64("orders", res.RowsAffected))
	return res.RowsAffected, nil
}
