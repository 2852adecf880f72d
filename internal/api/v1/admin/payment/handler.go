package payment

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// secretKeys are driver config entries never echoed back to clients.
var secretKeys = []string{"api_key"}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func toResponse(m models.PaymentMethod) PaymentMethodResponse {
	var configMap map[string]interface{}
	_ = json.Unmarshal(m.Config, &configMap)
	for _, key := range secretKeys {
		if _, ok := configMap[key]; ok {
			configMap[key] = "******"
		}
	}

	return PaymentMethodResponse{
		ID:           m.ID,
		UUID:         m.UUID,
		Name:         m.Name,
		Code:         m.Code,
		MethodType:   string(m.MethodType),
		Driver:       m.Driver,
		Config:       configMap,
		LogoURL:      m.LogoURL,
		IsActive:     m.IsActive,
		DisplayOrder: m.DisplayOrder,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    m.UpdatedAt.Format(time.RFC3339),
	}
}

// ListPaymentMethods returns every payment method, active or not.
func (h *Handler) ListPaymentMethods(c *gin.Context) {
	methods, err := services.GetAllPaymentMethods()
	if err != nil {
		common.RespondError(c, err)
		return
	}

	response := make([]PaymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		response = append(response, toResponse(m))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", response))
}

// UpsertPaymentMethod creates or updates a payment method by code and
// reloads the verifier drivers.
func (h *Handler) UpsertPaymentMethod(c *gin.Context) {
	var req UpsertPaymentMethodRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	method, err := services.UpsertPaymentMethod(services.PaymentMethodInput{
		Name:         req.Name,
		Code:         req.Code,
		MethodType:   models.PaymentMethodType(req.MethodType),
		Driver:       req.Driver,
		Config:       req.Config,
		LogoURL:      req.LogoURL,
		IsActive:     isActive,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", toResponse(*method)))
}
