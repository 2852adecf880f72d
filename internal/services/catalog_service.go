package services

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetActiveDefinitions returns the purchasable catalog ordered for display.
func GetActiveDefinitions() ([]models.BundleDefinition, error) {
	var defs []models.BundleDefinition
	if cacheGet(catalogDefinitionsKey, &defs) {
		return defs, nil
	}

	if err := database.DB.Where("is_active = ?", true).
		Order("display_order asc, price asc, id asc").
		Find(&defs).Error; err != nil {
		return nil, internalError("load bundle definitions", err)
	}

	cacheSet(catalogDefinitionsKey, defs, currentSettings().CatalogCacheTTL)
	return defs, nil
}

func GetAllDefinitions() ([]models.BundleDefinition, error) {
	var defs []models.BundleDefinition
	if err := database.DB.Order("display_order asc, id asc").Find(&defs).Error; err != nil {
		return nil, internalError("load bundle definitions", err)
	}
	return defs, nil
}

func GetActivePaymentMethods() ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if cacheGet(catalogMethodsKey, &methods) {
		return methods, nil
	}

	if err := database.DB.Where("is_active = ?", true).
		Order("display_order asc, id asc").
		Find(&methods).Error; err != nil {
		return nil, internalError("load payment methods", err)
	}

	cacheSet(catalogMethodsKey, methods, currentSettings().CatalogCacheTTL)
	return methods, nil
}

func GetAllPaymentMethods() ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := database.DB.Order("display_order asc, id asc").Find(&methods).Error; err != nil {
		return nil, internalError("load payment methods", err)
	}
	return methods, nil
}

func activeDefinition(db *gorm.DB, id uint) (*models.BundleDefinition, error) {
	var def models.BundleDefinition
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "bundle definition %d not found", id)
		}
		return nil, internalError("load bundle definition", err)
	}
	return &def, nil
}

func activePaymentMethod(db *gorm.DB, id uint) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&method).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "payment method %d not found", id)
		}
		return nil, internalError("load payment method", err)
	}
	return &method, nil
}

// BundleDefinitionInput is the admin-editable shape of a definition, keyed by Code.
type BundleDefinitionInput struct {
	Name                     string
	Code                     string
	Description              string
	ExamQuota                models.Quota
	TotalChatQuota           models.Quota
	DailyChatLimit           models.Quota
	SearchQuota              models.Quota
	HasUnlimitedRoadSignQuiz bool
	ValidityDays             int
	Price                    float64
	Recommended              bool
	IsActive                 bool
	DisplayOrder             int
}

// UpsertBundleDefinition creates or updates a definition by Code. Once a
// purchase references a definition its quotas, validity and price are frozen.
func UpsertBundleDefinition(in BundleDefinitionInput) (*models.BundleDefinition, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, newError(KindValidation, "name and code are required")
	}
	if in.ValidityDays <= 0 {
		return nil, newError(KindValidation, "validity days must be positive")
	}
	if in.Price < 0 {
		return nil, newError(KindValidation, "price cannot be negative")
	}

	var result models.BundleDefinition
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.BundleDefinition
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = models.BundleDefinition{
				Name:                     in.Name,
				Code:                     code,
				Description:              in.Description,
				ExamQuota:                in.ExamQuota,
				TotalChatQuota:           in.TotalChatQuota,
				DailyChatLimit:           in.DailyChatLimit,
				SearchQuota:              in.SearchQuota,
				HasUnlimitedRoadSignQuiz: in.HasUnlimitedRoadSignQuiz,
				ValidityDays:             in.ValidityDays,
				Price:                    in.Price,
				Recommended:              in.Recommended,
				IsActive:                 in.IsActive,
				DisplayOrder:             in.DisplayOrder,
			}
			return tx.Create(&result).Error
		}
		if err != nil {
			return err
		}

		if termsChanged(&existing, in) {
			var purchases int64
			if err := tx.Model(&models.BundlePurchase{}).
				Where("bundle_definition_id = ?", existing.ID).
				Count(&purchases).Error; err != nil {
				return err
			}
			if purchases > 0 {
				return newError(KindInvalidState, "bundle definition %s has purchases; quotas and price are frozen", code)
			}
		}

		updates := map[string]interface{}{
			"name":                         in.Name,
			"description":                  in.Description,
			"exam_quota":                   in.ExamQuota,
			"total_chat_quota":             in.TotalChatQuota,
			"daily_chat_limit":             in.DailyChatLimit,
			"search_quota":                 in.SearchQuota,
			"has_unlimited_road_sign_quiz": in.HasUnlimitedRoadSignQuiz,
			"validity_days":                in.ValidityDays,
			"price":                        in.Price,
			"recommended":                  in.Recommended,
			"is_active":                    in.IsActive,
			"display_order":                in.DisplayOrder,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&result, existing.ID).Error
	})
	if err != nil {
		return nil, internalError("upsert bundle definition", err)
	}

	invalidateCatalogCache()
	return &result, nil
}

func termsChanged(d *models.BundleDefinition, in BundleDefinitionInput) bool {
	return d.ExamQuota != in.ExamQuota ||
		d.TotalChatQuota != in.TotalChatQuota ||
		d.DailyChatLimit != in.DailyChatLimit ||
		d.SearchQuota != in.SearchQuota ||
		d.HasUnlimitedRoadSignQuiz != in.HasUnlimitedRoadSignQuiz ||
		d.ValidityDays != in.ValidityDays ||
		toCents(d.Price) != toCents(in.Price)
}

// PaymentMethodInput is the admin-editable shape of a payment method, keyed by Code.
type PaymentMethodInput struct {
	Name         string
	Code         string
	MethodType   models.PaymentMethodType
	Driver       string
	Config       map[string]interface{}
	LogoURL      string
	IsActive     bool
	DisplayOrder int
}

func UpsertPaymentMethod(in PaymentMethodInput) (*models.PaymentMethod, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, newError(KindValidation, "name and code are required")
	}
	driver := in.Driver
	if driver == "" {
		driver = DriverMock
	}
	if driver != DriverMock && driver != DriverRemote {
		return nil, newError(KindValidation, "unknown payment driver %q", driver)
	}
	methodType := in.MethodType
	if methodType == "" {
		methodType = models.PaymentMethodMobileWallet
	}

	configJSON := datatypes.JSON([]byte("{}"))
	if in.Config != nil {
		raw, err := json.Marshal(in.Config)
		if err != nil {
			return nil, newError(KindValidation, "invalid driver config")
		}
		configJSON = datatypes.JSON(raw)
	}

	var result models.PaymentMethod
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.PaymentMethod
		err := tx.Where("code = ?", code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = models.PaymentMethod{
				UUID:         uuid.New().String(),
				Name:         in.Name,
				Code:         code,
				MethodType:   methodType,
				Driver:       driver,
				Config:       configJSON,
				LogoURL:      in.LogoURL,
				IsActive:     in.IsActive,
				DisplayOrder: in.DisplayOrder,
			}
			return tx.Create(&result).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"name":          in.Name,
			"method_type":   methodType,
			"driver":        driver,
			"config":        configJSON,
			"logo_url":      in.LogoURL,
			"is_active":     in.IsActive,
			"display_order": in.DisplayOrder,
		}).Error; err != nil {
			return err
		}
		return tx.First(&result, existing.ID).Error
	})
	if err != nil {
		return nil, internalError("upsert payment method", err)
	}

	invalidateCatalogCache()
	if err := ReloadPaymentDrivers(); err != nil {
		return nil, err
	}
	return &result, nil
}
