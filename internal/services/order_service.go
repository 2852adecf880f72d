package services

import (
	"context"
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/internal/payment"
	"driveet-backend/pkg/logger"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	UserID    *uint
	Status    *models.OrderStatus
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	Limit     int
}

// VerificationOutcome is the result of a successful VerifyPayment call. Bundle
// is set when the order completed; Suggestions and CanUpgrade are set when
// the verified amount fell short.
type VerificationOutcome struct {
	Order       *models.BundleOrder
	Bundle      *models.UserBundle
	Deficit     float64
	Suggestions []models.OrderBundleSuggestion
	CanUpgrade  bool
}

// CreateOrder opens a pending order for an active definition and payment method.
func CreateOrder(userID, definitionID, paymentMethodID uint, actor Actor) (*models.BundleOrder, error) {
	def, err := activeDefinition(database.DB, definitionID)
	if err != nil {
		return nil, err
	}
	method, err := activePaymentMethod(database.DB, paymentMethodID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, internalError("load user", err)
	}
	if count == 0 {
		return nil, newError(KindNotFound, "user %d not found", userID)
	}

	at := now()
	order := &models.BundleOrder{
		ID:                    strings.ReplaceAll(uuid.New().String(), "-", ""),
		UserID:                userID,
		BundleDefinitionID:    def.ID,
		RequestedDefinitionID: def.ID,
		OrderAmount:           def.Price,
		Status:                models.OrderStatusPending,
		PaymentMethodID:       method.ID,
		IPAddress:             actor.IPAddress,
		UserAgent:             actor.UserAgent,
		ExpiresAt:             at.Add(currentSettings().OrderTTL),
		CreatedAt:             at,
		UpdatedAt:             at,
	}
	if err := database.DB.Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, internalError("create order", err)
	}
	order.BundleDefinition = *def
	order.PaymentMethod = *method

	orderTransitionsTotal.WithLabelValues(string(models.OrderStatusPending)).Inc()
	logger.Log.Info("order created",
		zap.String("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.String("definition", def.Code),
		zap.Float64("amount", order.OrderAmount),
	)
	return order, nil
}

// loadOrder fetches an order, scoped to userID unless userID is zero.
func loadOrder(db *gorm.DB, orderID string, userID uint) (*models.BundleOrder, error) {
	var order models.BundleOrder
	query := db.Where("id = ?", orderID)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "order %s not found", orderID)
		}
		return nil, err
	}
	return &order, nil
}

func lockOrder(tx *gorm.DB, orderID string, userID uint) (*models.BundleOrder, error) {
	return loadOrder(tx.Clauses(clause.Locking{Strength: "UPDATE"}), orderID, userID)
}

// GetOrder returns an order with its definition, payment method and suggestions.
func GetOrder(userID uint, orderID string) (*models.BundleOrder, error) {
	var order models.BundleOrder
	query := database.DB.
		Preload("BundleDefinition").
		Preload("PaymentMethod").
		Preload("Suggestions", func(db *gorm.DB) *gorm.DB { return db.Order("score desc") }).
		Preload("Suggestions.BundleDefinition").
		Where("id = ?", orderID)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "order %s not found", orderID)
		}
		return nil, internalError("load order", err)
	}
	return &order, nil
}

// VerifyPayment checks reference with the payment verifier and moves a
// pending order to completed or insufficient funds. A verifier failure leaves
// the order pending so the caller may retry with a corrected reference.
func VerifyPayment(ctx context.Context, userID uint, orderID, reference string, actor Actor) (*VerificationOutcome, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, newError(KindValidation, "reference number is required")
	}

	var order models.BundleOrder
	query := database.DB.Preload("PaymentMethod").Where("id = ?", orderID)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "order %s not found", orderID)
		}
		return nil, internalError("load order", err)
	}
	if order.Status != models.OrderStatusPending {
		return nil, newError(KindInvalidState, "order %s is %s", order.ID, order.Status)
	}
	if order.IsExpired(now()) {
		if err := expireOrder(database.DB, order.ID); err != nil {
			return nil, internalError("expire order", err)
		}
		return nil, newError(KindInvalidState, "order %s has expired", order.ID)
	}
	if err := ensureReferenceUnused(database.DB, reference, order.ID); err != nil {
		return nil, internalError("check reference", err)
	}

	v := currentVerifier()
	if v == nil {
		return nil, internalError("verify payment", errors.New("no payment verifier configured"))
	}
	start := time.Now()
	result, err := v.Verify(ctx, order.PaymentMethod.Code, reference)
	if err != nil {
		paymentVerificationDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		logger.Log.Warn("payment verifier unavailable",
			zap.String("order_id", order.ID),
			zap.String("method", order.PaymentMethod.Code),
			zap.Error(err),
		)
		return nil, &BundleError{Kind: KindExternalVerification, Message: "payment provider could not be reached", Err: err}
	}
	if !result.Success {
		paymentVerificationDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		msg := result.Error
		if msg == "" {
			msg = "payment could not be verified"
		}
		return nil, newError(KindExternalVerification, "%s", msg)
	}
	paymentVerificationDuration.WithLabelValues("verified").Observe(time.Since(start).Seconds())

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, internalError("encode verification payload", err)
	}

	outcome := &VerificationOutcome{}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := lockOrder(tx, order.ID, userID)
		if err != nil {
			return err
		}
		if locked.Status != models.OrderStatusPending {
			return newError(KindInvalidState, "order %s is %s", locked.ID, locked.Status)
		}
		at := now()
		// The deadline may have passed while the provider was answering.
		if locked.IsExpired(at) {
			if err := expireOrder(tx, locked.ID); err != nil {
				return err
			}
			locked.Status = models.OrderStatusExpired
			outcome.Order = locked
			return nil
		}
		if err := ensureReferenceUnused(tx, reference, locked.ID); err != nil {
			return err
		}

		verified := result.Amount
		locked.ReferenceNumber = reference
		locked.VerifiedAmount = &verified
		locked.VerifiedAt = &at
		locked.PayerName = result.PayerName
		locked.VerificationPayload = datatypes.JSON(payload)

		if toCents(verified) >= toCents(locked.OrderAmount) {
			locked.Status = models.OrderStatusPaymentVerified
			if err := tx.Model(&models.BundleOrder{}).Where("id = ?", locked.ID).Updates(map[string]interface{}{
				"reference_number":     locked.ReferenceNumber,
				"verified_amount":      verified,
				"verified_at":          at,
				"payer_name":           locked.PayerName,
				"verification_payload": locked.VerificationPayload,
				"status":               locked.Status,
				"updated_at":           at,
			}).Error; err != nil {
				return err
			}

			bundle, err := completeOrderTx(tx, locked, at, actor)
			if err != nil {
				return err
			}
			outcome.Bundle = bundle
			outcome.Order = locked
			return nil
		}

		deficit := fromCents(toCents(locked.OrderAmount) - toCents(verified))
		locked.Status = models.OrderStatusInsufficientFunds
		locked.DeficitAmount = &deficit
		if err := tx.Model(&models.BundleOrder{}).Where("id = ?", locked.ID).Updates(map[string]interface{}{
			"reference_number":     locked.ReferenceNumber,
			"verified_amount":      verified,
			"verified_at":          at,
			"payer_name":           locked.PayerName,
			"verification_payload": locked.VerificationPayload,
			"status":               locked.Status,
			"deficit_amount":       deficit,
			"updated_at":           at,
		}).Error; err != nil {
			return err
		}

		suggestions, err := persistSuggestions(tx, locked, verified)
		if err != nil {
			return err
		}
		canUpgrade, err := CanUpgradeExisting(tx, locked.UserID, verified)
		if err != nil {
			return err
		}

		locked.Suggestions = suggestions
		outcome.Order = locked
		outcome.Deficit = deficit
		outcome.Suggestions = suggestions
		outcome.CanUpgrade = canUpgrade
		return nil
	})
	if err != nil {
		return nil, internalError("verify payment", err)
	}
	if outcome.Order.Status == models.OrderStatusExpired {
		logger.Log.Info("order expired during verification",
			zap.String("order_id", outcome.Order.ID),
			zap.String("reference", reference),
		)
		return nil, newError(KindInvalidState, "order %s has expired", outcome.Order.ID)
	}

	orderTransitionsTotal.WithLabelValues(string(outcome.Order.Status)).Inc()
	if outcome.Bundle != nil {
		invalidateResourceCache(outcome.Order.UserID)
		bundleActivationsTotal.WithLabelValues("order").Inc()
	}
	logger.Log.Info("payment verified",
		zap.String("order_id", outcome.Order.ID),
		zap.String("status", string(outcome.Order.Status)),
		zap.Float64("verified_amount", result.Amount),
		zap.Float64("deficit", outcome.Deficit),
	)
	return outcome, nil
}

func persistSuggestions(tx *gorm.DB, order *models.BundleOrder, budget float64) ([]models.OrderBundleSuggestion, error) {
	var candidates []models.BundleDefinition
	if err := tx.Where("is_active = ?", true).Find(&candidates).Error; err != nil {
		return nil, err
	}
	popularity, err := PurchaseCounts(tx)
	if err != nil {
		return nil, err
	}

	ranked := Suggest(budget, order.RequestedDefinitionID, candidates, popularity, currentSettings().PopularityThreshold)
	rows := make([]models.OrderBundleSuggestion, 0, len(ranked))
	for _, s := range ranked {
		rows = append(rows, models.OrderBundleSuggestion{
			OrderID:            order.ID,
			BundleDefinitionID: s.Definition.ID,
			Reason:             s.Reason,
			Score:              s.Score,
			Deficit:            s.Deficit,
		})
	}
	if len(rows) == 0 {
		return rows, nil
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].BundleDefinition = ranked[i].Definition
	}
	return rows, nil
}

// CompleteOrder activates the bundle for a payment-verified order.
func CompleteOrder(orderID string, actor Actor) (*models.UserBundle, error) {
	var (
		bundle *models.UserBundle
		userID uint
	)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID, 0)
		if err != nil {
			return err
		}
		userID = order.UserID
		bundle, err = completeOrderTx(tx, order, now(), actor)
		return err
	})
	if err != nil {
		return nil, internalError("complete order", err)
	}

	invalidateResourceCache(userID)
	orderTransitionsTotal.WithLabelValues(string(models.OrderStatusCompleted)).Inc()
	bundleActivationsTotal.WithLabelValues("order").Inc()
	return bundle, nil
}

// completeOrderTx creates the bundle, moves the active pointer, writes the
// receipt and marks the order completed. order must be locked by tx.
func completeOrderTx(tx *gorm.DB, order *models.BundleOrder, at time.Time, actor Actor) (*models.UserBundle, error) {
	if order.Status != models.OrderStatusPaymentVerified {
		return nil, newError(KindInvalidState, "order %s is %s, expected %s", order.ID, order.Status, models.OrderStatusPaymentVerified)
	}

	var def models.BundleDefinition
	if err := tx.First(&def, order.BundleDefinitionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "bundle definition %d not found", order.BundleDefinitionID)
		}
		return nil, err
	}

	bundle, err := activateBundle(tx, order.UserID, &def, at, actor, order.ReferenceNumber,
		fmt.Sprintf("Bundle purchase via order %s", order.ID))
	if err != nil {
		return nil, err
	}

	paid := order.OrderAmount
	if order.VerifiedAmount != nil {
		paid = *order.VerifiedAmount
	}
	surplus := 0.0
	if diff := toCents(paid) - toCents(def.Price); diff > 0 {
		surplus = fromCents(diff)
	}

	orderID := order.ID
	methodID := order.PaymentMethodID
	transactionID := order.ReferenceNumber
	var vr payment.VerifyResult
	if len(order.VerificationPayload) > 0 && json.Unmarshal(order.VerificationPayload, &vr) == nil && vr.Reference != "" {
		transactionID = vr.Reference
	}
	purchase := &models.BundlePurchase{
		UserID:             order.UserID,
		BundleDefinitionID: def.ID,
		OrderID:            &orderID,
		AmountPaid:         paid,
		ListPrice:          def.Price,
		PaymentMethodID:    &methodID,
		PaymentStatus:      models.PurchaseStatusCompleted,
		ReferenceNumber:    order.ReferenceNumber,
		TransactionID:      transactionID,
		UserBundleID:       &bundle.ID,
		VerifiedAt:         order.VerifiedAt,
		IPAddress:          actor.IPAddress,
		UserAgent:          actor.UserAgent,
	}
	if err := tx.Create(purchase).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.BundleOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":              models.OrderStatusCompleted,
		"resulting_bundle_id": bundle.ID,
		"surplus_amount":      surplus,
		"completed_at":        at,
		"updated_at":          at,
	}).Error; err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCompleted
	order.ResultingBundleID = &bundle.ID
	order.SurplusAmount = surplus
	order.CompletedAt = &at
	order.BundleDefinition = def

	logger.Log.Info("order completed",
		zap.String("order_id", order.ID),
		zap.Uint("user_id", order.UserID),
		zap.Uint("bundle_id", bundle.ID),
		zap.Float64("surplus", surplus),
	)
	return bundle, nil
}

// AcceptSuggestion re-points an insufficient-funds order to one of its
// suggestions and completes it. The suggestion must belong to the order and
// be covered by the verified amount; any surplus is recorded and forfeited.
func AcceptSuggestion(userID uint, orderID string, definitionID uint, actor Actor) (*models.BundleOrder, *models.UserBundle, error) {
	var (
		order  *models.BundleOrder
		bundle *models.UserBundle
	)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID, userID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusInsufficientFunds {
			return newError(KindInvalidState, "order %s is %s, expected %s", order.ID, order.Status, models.OrderStatusInsufficientFunds)
		}

		var suggestion models.OrderBundleSuggestion
		if err := tx.Where("order_id = ? AND bundle_definition_id = ?", order.ID, definitionID).
			First(&suggestion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindValidation, "bundle definition %d is not a suggestion for order %s", definitionID, order.ID)
			}
			return err
		}

		var def models.BundleDefinition
		if err := tx.First(&def, definitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, "bundle definition %d not found", definitionID)
			}
			return err
		}
		if !def.IsActive {
			return newError(KindValidation, "bundle definition %s is no longer available", def.Code)
		}
		if err := ensureReferenceUnused(tx, order.ReferenceNumber, order.ID); err != nil {
			return err
		}

		verified := 0.0
		if order.VerifiedAmount != nil {
			verified = *order.VerifiedAmount
		}
		if toCents(def.Price) > toCents(verified) {
			return newError(KindValidation, "verified amount %.2f does not cover %s (%.2f)", verified, def.Code, def.Price)
		}

		at := now()
		if err := tx.Model(&models.BundleOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"bundle_definition_id": def.ID,
			"order_amount":         def.Price,
			"deficit_amount":       nil,
			"status":               models.OrderStatusPaymentVerified,
			"updated_at":           at,
		}).Error; err != nil {
			return err
		}
		order.BundleDefinitionID = def.ID
		order.OrderAmount = def.Price
		order.DeficitAmount = nil
		order.Status = models.OrderStatusPaymentVerified

		bundle, err = completeOrderTx(tx, order, at, actor)
		return err
	})
	if err != nil {
		return nil, nil, internalError("accept suggestion", err)
	}

	invalidateResourceCache(order.UserID)
	orderTransitionsTotal.WithLabelValues(string(models.OrderStatusCompleted)).Inc()
	bundleActivationsTotal.WithLabelValues("suggestion").Inc()
	return order, bundle, nil
}

// CancelOrder is allowed from pending and insufficient funds only.
func CancelOrder(userID uint, orderID string) (*models.BundleOrder, error) {
	var order *models.BundleOrder
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID, userID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusInsufficientFunds {
			return newError(KindInvalidState, "order %s is %s and cannot be cancelled", order.ID, order.Status)
		}

		at := now()
		if err := tx.Model(&models.BundleOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"status":     models.OrderStatusCancelled,
			"updated_at": at,
		}).Error; err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled
		order.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, internalError("cancel order", err)
	}

	orderTransitionsTotal.WithLabelValues(string(models.OrderStatusCancelled)).Inc()
	return order, nil
}

// expireOrder moves a still-pending order to expired.
func expireOrder(db *gorm.DB, orderID string) error {
	err := db.Model(&models.BundleOrder{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusExpired,
			"updated_at": now(),
		}).Error
	if err == nil {
		orderTransitionsTotal.WithLabelValues(string(models.OrderStatusExpired)).Inc()
	}
	return err
}

// ensureReferenceUnused rejects a payment reference that already paid for
// another order or a direct purchase. An insufficient-funds order still holds
// its reference, since accepting a suggestion turns it into a purchase.
func ensureReferenceUnused(db *gorm.DB, reference, orderID string) error {
	var orders int64
	q := db.Model(&models.BundleOrder{}).
		Where("reference_number = ?", reference).
		Where("status IN ?", []models.OrderStatus{
			models.OrderStatusPaymentVerified,
			models.OrderStatusInsufficientFunds,
			models.OrderStatusCompleted,
		})
	if orderID != "" {
		q = q.Where("id <> ?", orderID)
	}
	if err := q.Count(&orders).Error; err != nil {
		return err
	}

	var purchases int64
	pq := db.Model(&models.BundlePurchase{}).Where("reference_number = ?", reference)
	if orderID != "" {
		pq = pq.Where("order_id IS NULL OR order_id <> ?", orderID)
	}
	if err := pq.Count(&purchases).Error; err != nil {
		return err
	}

	if orders+purchases > 0 {
		return newError(KindValidation, "reference %s has already been used", reference)
	}
	return nil
}

// FindOrders retrieves a paginated list of orders with filtering
func FindOrders(filter OrderFilter) ([]models.BundleOrder, int64, error) {
	var orders []models.BundleOrder
	var total int64

	query := database.DB.Model(&models.BundleOrder{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, internalError("count orders", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	if err := query.Preload("BundleDefinition").Preload("PaymentMethod").
		Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&orders).Error; err != nil {
		return nil, 0, internalError("find orders", err)
	}

	return orders, total, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
