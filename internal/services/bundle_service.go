package services

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/pkg/logger"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetActiveBundle returns the bundle behind the user's active pointer. An
// expired bundle is returned together with ErrBundleExpired.
func GetActiveBundle(userID uint) (*models.UserBundle, error) {
	return resolveActiveBundle(database.DB, userID, now())
}

func resolveActiveBundle(db *gorm.DB, userID uint, at time.Time) (*models.UserBundle, error) {
	var user models.User
	if err := db.Select("id", "active_bundle_id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "user %d not found", userID)
		}
		return nil, internalError("load user", err)
	}
	if user.ActiveBundleID == nil {
		return nil, ErrNoActiveBundle
	}

	var bundle models.UserBundle
	if err := db.Preload("BundleDefinition").First(&bundle, *user.ActiveBundleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveBundle
		}
		return nil, internalError("load active bundle", err)
	}
	if !bundle.IsActive {
		return nil, ErrNoActiveBundle
	}
	if bundle.IsExpired(at) {
		return &bundle, newError(KindBundleExpired, "bundle expired on %s", bundle.ExpiryDate.Format(time.RFC3339))
	}
	return &bundle, nil
}

// lockBundle loads a bundle row under an exclusive row lock. Callers must be
// inside a transaction and must not touch database.DB until it commits.
// lockUser takes the user's row lock. A transaction that locks both a user
// and one of their bundles takes the user first.
func lockUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "user %d not found", userID)
		}
		return nil, err
	}
	return &user, nil
}

func lockBundle(tx *gorm.DB, bundleID uint) (*models.UserBundle, error) {
	var bundle models.UserBundle
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("BundleDefinition").
		First(&bundle, bundleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "bundle %d not found", bundleID)
		}
		return nil, err
	}
	return &bundle, nil
}

// checkAdmission is the read-only predicate for consuming quantity units of
// kind from b at the given instant.
func checkAdmission(b *models.UserBundle, kind models.ResourceKind, quantity int, at time.Time) error {
	def := &b.BundleDefinition
	switch kind {
	case models.ResourceExam:
		if !def.ExamQuota.IsUnlimited() && b.ExamsRemaining < quantity {
			return newError(KindQuotaExhausted, "exam quota exhausted (%d remaining)", b.ExamsRemaining)
		}
	case models.ResourceSearch:
		if !def.SearchQuota.IsUnlimited() && b.SearchRemaining < quantity {
			return newError(KindQuotaExhausted, "search quota exhausted (%d remaining)", b.SearchRemaining)
		}
	case models.ResourceChat:
		if !def.DailyChatLimit.Allows(b.EffectiveDailyChatsUsed(at), quantity) {
			return newError(KindDailyLimitReached, "daily chat limit of %s reached", def.DailyChatLimit)
		}
		if !def.TotalChatQuota.IsUnlimited() && b.ChatsRemaining < quantity {
			return newError(KindQuotaExhausted, "chat quota exhausted (%d remaining)", b.ChatsRemaining)
		}
	case models.ResourceRoadSign:
		if !def.HasUnlimitedRoadSignQuiz {
			return newError(KindQuotaExhausted, "road sign quiz is not included in this bundle")
		}
	default:
		return newError(KindInvalidResourceKind, "invalid resource kind %q", kind)
	}
	return nil
}

func validateRequest(kind models.ResourceKind, quantity int) error {
	if !kind.Valid() {
		return newError(KindInvalidResourceKind, "invalid resource kind %q", kind)
	}
	if quantity <= 0 {
		return newError(KindValidation, "quantity must be positive")
	}
	return nil
}

// CheckResourceAccess runs the admission check for one unit without mutating
// anything. The returned bundle is non-nil whenever the user has one, so
// callers can report remaining balances alongside a rejection.
func CheckResourceAccess(userID uint, kind models.ResourceKind) (*models.UserBundle, error) {
	if err := validateRequest(kind, 1); err != nil {
		return nil, err
	}
	at := now()
	bundle, err := resolveActiveBundle(database.DB, userID, at)
	if err != nil {
		return bundle, err
	}
	if err := checkAdmission(bundle, kind, 1, at); err != nil {
		return bundle, err
	}
	return bundle, nil
}

// ConsumeResource debits quantity units of kind from the user's active bundle.
// The admission check is repeated under the bundle row lock, and the counter
// write commits together with its consume transaction.
func ConsumeResource(userID uint, kind models.ResourceKind, quantity int, note string, actor Actor) (*models.UserBundle, error) {
	if err := validateRequest(kind, quantity); err != nil {
		return nil, err
	}

	bundle, err := resolveActiveBundle(database.DB, userID, now())
	if err == nil {
		err = checkAdmission(bundle, kind, quantity, now())
	}
	if err != nil {
		resourceRejectedTotal.WithLabelValues(string(kind), string(KindOf(err))).Inc()
		return nil, err
	}

	// Road sign quiz is an entitlement; there is no balance to move.
	if kind == models.ResourceRoadSign {
		resourceConsumedTotal.WithLabelValues(string(kind)).Add(float64(quantity))
		return bundle, nil
	}

	var result *models.UserBundle
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := lockBundle(tx, bundle.ID)
		if err != nil {
			return err
		}
		at := now()
		if !locked.IsActive {
			return ErrNoActiveBundle
		}
		if locked.IsExpired(at) {
			return newError(KindBundleExpired, "bundle expired on %s", locked.ExpiryDate.Format(time.RFC3339))
		}

		if kind == models.ResourceChat && locked.DailyResetDue(at) {
			if err := applyDailyReset(tx, locked, at, actor, "Automatic daily chat reset"); err != nil {
				return err
			}
		}

		if err := checkAdmission(locked, kind, quantity, at); err != nil {
			return err
		}

		before := locked.Snapshot()
		def := &locked.BundleDefinition
		switch kind {
		case models.ResourceExam:
			if !def.ExamQuota.IsUnlimited() {
				locked.ExamsRemaining -= quantity
			}
		case models.ResourceSearch:
			if !def.SearchQuota.IsUnlimited() {
				locked.SearchRemaining -= quantity
			}
		case models.ResourceChat:
			if !def.TotalChatQuota.IsUnlimited() {
				locked.ChatsRemaining -= quantity
			}
			locked.TotalChatsConsumed += quantity
			locked.DailyChatsUsed += quantity
		}

		if err := saveCounters(tx, locked, at); err != nil {
			return err
		}

		description := note
		if description == "" {
			description = fmt.Sprintf("Consumed %d %s", quantity, kind)
		}
		if err := appendTransaction(tx, &models.ResourceTransaction{
			CreatedAt:    at,
			UserID:       locked.UserID,
			UserBundleID: locked.ID,
			Type:         models.TransactionTypeConsume,
			Resource:     kind,
			Quantity:     quantity,
			Before:       before,
			After:        locked.Snapshot(),
			Description:  description,
		}, actor); err != nil {
			return err
		}

		result = locked
		return nil
	})
	if err != nil {
		resourceRejectedTotal.WithLabelValues(string(kind), string(KindOf(err))).Inc()
		return nil, internalError("consume resource", err)
	}

	invalidateResourceCache(userID)
	resourceConsumedTotal.WithLabelValues(string(kind)).Add(float64(quantity))
	logger.Log.Info("resource consumed",
		zap.Uint("user_id", userID),
		zap.Uint("bundle_id", result.ID),
		zap.String("resource", string(kind)),
		zap.Int("quantity", quantity),
	)
	return result, nil
}

// RefundResource returns units to the active bundle after a downstream action
// that already consumed them failed. Bounded counters are capped at the quota.
func RefundResource(userID uint, kind models.ResourceKind, quantity int, note string, actor Actor) (*models.UserBundle, error) {
	if err := validateRequest(kind, quantity); err != nil {
		return nil, err
	}
	if kind == models.ResourceRoadSign {
		return nil, newError(KindInvalidResourceKind, "road sign quiz has no balance to refund")
	}

	bundle, err := resolveActiveBundle(database.DB, userID, now())
	if err != nil {
		return nil, err
	}

	var result *models.UserBundle
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := lockBundle(tx, bundle.ID)
		if err != nil {
			return err
		}
		at := now()
		if !locked.IsActive {
			return ErrNoActiveBundle
		}

		before := locked.Snapshot()
		def := &locked.BundleDefinition
		switch kind {
		case models.ResourceExam:
			locked.ExamsRemaining = capped(locked.ExamsRemaining, quantity, def.ExamQuota)
		case models.ResourceSearch:
			locked.SearchRemaining = capped(locked.SearchRemaining, quantity, def.SearchQuota)
		case models.ResourceChat:
			locked.ChatsRemaining = capped(locked.ChatsRemaining, quantity, def.TotalChatQuota)
			locked.TotalChatsConsumed = max(0, locked.TotalChatsConsumed-quantity)
			locked.DailyChatsUsed = max(0, locked.DailyChatsUsed-quantity)
		}

		if err := saveCounters(tx, locked, at); err != nil {
			return err
		}

		description := note
		if description == "" {
			description = fmt.Sprintf("Refunded %d %s", quantity, kind)
		}
		if err := appendTransaction(tx, &models.ResourceTransaction{
			CreatedAt:    at,
			UserID:       locked.UserID,
			UserBundleID: locked.ID,
			Type:         models.TransactionTypeRefund,
			Resource:     kind,
			Quantity:     quantity,
			Before:       before,
			After:        locked.Snapshot(),
			Description:  description,
		}, actor); err != nil {
			return err
		}

		result = locked
		return nil
	})
	if err != nil {
		return nil, internalError("refund resource", err)
	}

	invalidateResourceCache(userID)
	logger.Log.Info("resource refunded",
		zap.Uint("user_id", userID),
		zap.Uint("bundle_id", result.ID),
		zap.String("resource", string(kind)),
		zap.Int("quantity", quantity),
	)
	return result, nil
}

func capped(remaining, quantity int, quota models.Quota) int {
	limit, bounded := quota.Limit()
	if !bounded {
		return remaining
	}
	return min(limit, remaining+quantity)
}

// PaymentData describes how a direct purchase was paid.
type PaymentData struct {
	PaymentMethodID *uint
	AmountPaid      float64
	ReferenceNumber string
	TransactionID   string
}

// PurchaseBundle activates a definition for the user without going through
// the order flow, writing the receipt in the same unit of work.
func PurchaseBundle(userID, definitionID uint, data PaymentData, actor Actor) (*models.UserBundle, *models.BundlePurchase, error) {
	def, err := activeDefinition(database.DB, definitionID)
	if err != nil {
		return nil, nil, err
	}
	amount := data.AmountPaid
	if amount == 0 {
		amount = def.Price
	}
	if toCents(amount) < toCents(def.Price) {
		return nil, nil, newError(KindValidation, "amount paid %.2f is below the price %.2f", amount, def.Price)
	}

	var (
		bundle   *models.UserBundle
		purchase *models.BundlePurchase
	)
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		at := now()
		if data.ReferenceNumber != "" {
			if err := ensureReferenceUnused(tx, data.ReferenceNumber, ""); err != nil {
				return err
			}
		}

		var err error
		bundle, err = activateBundle(tx, userID, def, at, actor, data.ReferenceNumber, fmt.Sprintf("Direct purchase of %s", def.Code))
		if err != nil {
			return err
		}

		purchase = &models.BundlePurchase{
			UserID:             userID,
			BundleDefinitionID: def.ID,
			AmountPaid:         amount,
			ListPrice:          def.Price,
			PaymentMethodID:    data.PaymentMethodID,
			PaymentStatus:      models.PurchaseStatusCompleted,
			ReferenceNumber:    data.ReferenceNumber,
			TransactionID:      data.TransactionID,
			UserBundleID:       &bundle.ID,
			VerifiedAt:         &at,
			IPAddress:          actor.IPAddress,
			UserAgent:          actor.UserAgent,
		}
		return tx.Create(purchase).Error
	})
	if err != nil {
		return nil, nil, internalError("purchase bundle", err)
	}

	invalidateResourceCache(userID)
	bundleActivationsTotal.WithLabelValues("direct").Inc()
	return bundle, purchase, nil
}

// activateBundle creates a bundle from def, supersedes the user's previous
// active bundle and moves the active pointer, all inside tx. The user row is
// locked so concurrent activations for one user serialize.
func activateBundle(tx *gorm.DB, userID uint, def *models.BundleDefinition, at time.Time, actor Actor, reference, description string) (*models.UserBundle, error) {
	user, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	bundle := models.NewUserBundle(userID, def, at)
	if err := tx.Omit(clause.Associations).Create(bundle).Error; err != nil {
		return nil, err
	}
	bundle.BundleDefinition = *def

	if user.ActiveBundleID != nil {
		previous, err := lockBundle(tx, *user.ActiveBundleID)
		if err != nil && KindOf(err) != KindNotFound {
			return nil, err
		}
		if previous != nil && previous.IsActive {
			if err := deactivateBundle(tx, previous, at, actor, fmt.Sprintf("Superseded by bundle #%d", bundle.ID)); err != nil {
				return nil, err
			}
		}
	}

	if err := appendTransaction(tx, &models.ResourceTransaction{
		CreatedAt:    at,
		UserID:       userID,
		UserBundleID: bundle.ID,
		Type:         models.TransactionTypePurchase,
		Quantity:     1,
		After:        bundle.Snapshot(),
		Reference:    reference,
		Description:  description,
	}, actor); err != nil {
		return nil, err
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"active_bundle_id": bundle.ID,
		"version":          gorm.Expr("version + 1"),
		"updated_at":       at,
	}).Error; err != nil {
		return nil, err
	}

	logger.Log.Info("bundle activated",
		zap.Uint("user_id", userID),
		zap.Uint("bundle_id", bundle.ID),
		zap.String("definition", def.Code),
		zap.Time("expiry", bundle.ExpiryDate),
	)
	return bundle, nil
}

// deactivateBundle flips the active flag and records an expiry row. Counters
// are untouched.
func deactivateBundle(tx *gorm.DB, b *models.UserBundle, at time.Time, actor Actor, description string) error {
	if err := tx.Model(&models.UserBundle{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": at,
	}).Error; err != nil {
		return err
	}
	b.IsActive = false

	return appendTransaction(tx, &models.ResourceTransaction{
		CreatedAt:    at,
		UserID:       b.UserID,
		UserBundleID: b.ID,
		Type:         models.TransactionTypeExpiry,
		Quantity:     0,
		Before:       b.Snapshot(),
		After:        b.Snapshot(),
		Description:  description,
	}, actor)
}

// applyDailyReset zeroes the daily chat counter of a locked bundle.
func applyDailyReset(tx *gorm.DB, b *models.UserBundle, at time.Time, actor Actor, description string) error {
	before := b.Snapshot()
	b.DailyChatsUsed = 0
	b.LastChatReset = at

	if err := saveCounters(tx, b, at); err != nil {
		return err
	}
	return appendTransaction(tx, &models.ResourceTransaction{
		CreatedAt:    at,
		UserID:       b.UserID,
		UserBundleID: b.ID,
		Type:         models.TransactionTypeReset,
		Resource:     models.ResourceChat,
		Quantity:     before.DailyChats,
		Before:       before,
		After:        b.Snapshot(),
		Description:  description,
	}, actor)
}

func saveCounters(tx *gorm.DB, b *models.UserBundle, at time.Time) error {
	return tx.Model(&models.UserBundle{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"exams_remaining":      b.ExamsRemaining,
		"chats_remaining":      b.ChatsRemaining,
		"search_remaining":     b.SearchRemaining,
		"total_chats_consumed": b.TotalChatsConsumed,
		"daily_chats_used":     b.DailyChatsUsed,
		"last_chat_reset":      b.LastChatReset,
		"updated_at":           at,
	}).Error
}

// appendTransaction stamps actor context and the tamper-evidence hash, then
// inserts the row.
func appendTransaction(tx *gorm.DB, row *models.ResourceTransaction, actor Actor) error {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now()
	}
	row.CreatedAt = row.CreatedAt.Truncate(time.Millisecond)
	row.Operator = actor.Operator
	row.IPAddress = actor.IPAddress
	row.UserAgent = actor.UserAgent
	row.Hash = row.GenerateHash(currentSettings().LedgerSecret)
	return tx.Create(row).Error
}

// ResourceBalance reports one metered resource; unlimited values render as
// "unlimited".
type ResourceBalance struct {
	Remaining models.Quota `json:"remaining"`
	Quota     models.Quota `json:"quota"`
}

type ChatBalance struct {
	Remaining     models.Quota `json:"remaining"`
	Quota         models.Quota `json:"quota"`
	DailyUsed     int          `json:"daily_used"`
	DailyLimit    models.Quota `json:"daily_limit"`
	TotalConsumed int          `json:"total_consumed"`
}

// ResourceSummary is the user-facing view of the active bundle.
type ResourceSummary struct {
	HasActiveBundle bool            `json:"has_active_bundle"`
	IsExpired       bool            `json:"is_expired"`
	BundleID        uint            `json:"bundle_id,omitempty"`
	BundleName      string          `json:"bundle_name,omitempty"`
	BundleCode      string          `json:"bundle_code,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	DaysRemaining   int             `json:"days_remaining"`
	Exams           ResourceBalance `json:"exams"`
	Chats           ChatBalance     `json:"chats"`
	Search          ResourceBalance `json:"search"`
	RoadSignQuiz    bool            `json:"road_sign_quiz"`
}

// GetUserResources summarizes the user's active bundle. Results are cached
// per user until the next mutation or the cache TTL, whichever comes first.
func GetUserResources(userID uint) (*ResourceSummary, error) {
	key := resourceCacheKey(userID)
	var cached ResourceSummary
	if cacheGet(key, &cached) {
		return &cached, nil
	}

	at := now()
	bundle, err := resolveActiveBundle(database.DB, userID, at)
	if err != nil && bundle == nil {
		if KindOf(err) == KindNoActiveBundle {
			return &ResourceSummary{}, nil
		}
		return nil, err
	}

	summary := summarize(bundle, at)

	ttl := currentSettings().ResourceCacheTTL
	if untilExpiry := bundle.ExpiryDate.Sub(at); untilExpiry > 0 && untilExpiry < ttl {
		ttl = untilExpiry
	}
	if !summary.IsExpired {
		cacheSet(key, summary, ttl)
	}
	return summary, nil
}

func summarize(b *models.UserBundle, at time.Time) *ResourceSummary {
	def := &b.BundleDefinition
	expiry := b.ExpiryDate
	return &ResourceSummary{
		HasActiveBundle: true,
		IsExpired:       b.IsExpired(at),
		BundleID:        b.ID,
		BundleName:      def.Name,
		BundleCode:      def.Code,
		ExpiryDate:      &expiry,
		DaysRemaining:   b.DaysRemaining(at),
		Exams: ResourceBalance{
			Remaining: remainingOf(b.ExamsRemaining, def.ExamQuota),
			Quota:     def.ExamQuota,
		},
		Chats: ChatBalance{
			Remaining:     remainingOf(b.ChatsRemaining, def.TotalChatQuota),
			Quota:         def.TotalChatQuota,
			DailyUsed:     b.EffectiveDailyChatsUsed(at),
			DailyLimit:    def.DailyChatLimit,
			TotalConsumed: b.TotalChatsConsumed,
		},
		Search: ResourceBalance{
			Remaining: remainingOf(b.SearchRemaining, def.SearchQuota),
			Quota:     def.SearchQuota,
		},
		RoadSignQuiz: def.HasUnlimitedRoadSignQuiz,
	}
}

func remainingOf(remaining int, quota models.Quota) models.Quota {
	if quota.IsUnlimited() {
		return models.Unlimited()
	}
	return models.Bounded(remaining)
}

// ListUserBundles returns every bundle the user has owned, newest first.
func ListUserBundles(userID uint) ([]models.UserBundle, error) {
	var bundles []models.UserBundle
	if err := database.DB.Preload("BundleDefinition").
		Where("user_id = ?", userID).
		Order("purchase_date desc, id desc").
		Find(&bundles).Error; err != nil {
		return nil, internalError("list user bundles", err)
	}
	return bundles, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}
