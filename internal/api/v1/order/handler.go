package order

import (
	"driveet-backend/internal/api/v1/bundle"
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// CreateOrder godoc
// @Summary Create a bundle order
// @Description Open a pending order for a bundle, to be paid offline and verified by reference.
// @Tags order
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body CreateOrderRequest true "Bundle and payment method"
// @Success 200 {object} utils.Response{data=OrderResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var req CreateOrderRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	order, err := services.CreateOrder(user.ID, req.BundleDefinitionID, req.PaymentMethodID, common.Actor(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Order created", NewOrderResponse(*order)))
}

// GetOrder godoc
// @Summary Get an order
// @Description Get one of the current user's orders with its suggestions.
// @Tags order
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Success 200 {object} utils.Response{data=OrderResponse}
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	order, err := services.GetOrder(user.ID, c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", NewOrderResponse(*order)))
}

// VerifyPayment godoc
// @Summary Verify an order payment
// @Description Check a payment reference with the provider. A full payment activates the bundle; a short one returns suggestions.
// @Tags order
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Param body body VerifyPaymentRequest true "Payment reference"
// @Success 200 {object} utils.Response{data=VerifyPaymentResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 422 {object} utils.Response
// @Router /orders/{id}/verify [post]
func (h *Handler) VerifyPayment(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var req VerifyPaymentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	outcome, err := services.VerifyPayment(c.Request.Context(), user.ID, c.Param("id"), req.ReferenceNumber, common.Actor(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	order, err := services.GetOrder(user.ID, outcome.Order.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	response := VerifyPaymentResponse{
		Order:      NewOrderResponse(*order),
		Deficit:    outcome.Deficit,
		CanUpgrade: outcome.CanUpgrade,
	}
	message := "Payment verified, bundle activated"
	if outcome.Bundle != nil {
		b := bundle.NewUserBundleResponse(*outcome.Bundle)
		response.Bundle = &b
	} else {
		message = "Payment verified but insufficient for this bundle"
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(message, response))
}

// AcceptSuggestion godoc
// @Summary Accept a suggested bundle
// @Description Switch an insufficient-funds order to one of its suggestions and activate it.
// @Tags order
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Param body body AcceptSuggestionRequest true "Suggested bundle"
// @Success 200 {object} utils.Response{data=CompletedOrderResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /orders/{id}/accept-suggestion [post]
func (h *Handler) AcceptSuggestion(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var req AcceptSuggestionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	_, activated, err := services.AcceptSuggestion(user.ID, c.Param("id"), req.BundleDefinitionID, common.Actor(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	order, err := services.GetOrder(user.ID, c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Suggestion accepted, bundle activated", CompletedOrderResponse{
		Order:  NewOrderResponse(*order),
		Bundle: bundle.NewUserBundleResponse(*activated),
	}))
}

// CancelOrder godoc
// @Summary Cancel an order
// @Description Cancel a pending or insufficient-funds order.
// @Tags order
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Success 200 {object} utils.Response{data=OrderResponse}
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /orders/{id}/cancel [post]
func (h *Handler) CancelOrder(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	if _, err := services.CancelOrder(user.ID, c.Param("id")); err != nil {
		common.RespondError(c, err)
		return
	}

	order, err := services.GetOrder(user.ID, c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Order cancelled", NewOrderResponse(*order)))
}
