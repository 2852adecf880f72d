package order

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ListOrders lists bundle orders with optional user, status and time filters.
func (h *Handler) ListOrders(c *gin.Context) {
	page, limit, ok := common.Pagination(c)
	if !ok {
		return
	}

	filter := services.OrderFilter{
		Page:  page,
		Limit: limit,
	}

	if userIDStr, exists := c.GetQuery("user_id"); exists {
		userID, err := strconv.ParseUint(userIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user_id"))
			return
		}
		uid := uint(userID)
		filter.UserID = &uid
	}
	if status, exists := c.GetQuery("status"); exists {
		s := models.OrderStatus(status)
		filter.Status = &s
	}
	if startTimeStr, exists := c.GetQuery("start_time"); exists {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			filter.StartTime = &startTime
		}
	}
	if endTimeStr, exists := c.GetQuery("end_time"); exists {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			filter.EndTime = &endTime
		}
	}

	orders, total, err := services.FindOrders(filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	items := make([]OrderListItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, newOrderListItem(o))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", OrderListResponse{
		Orders: items,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}))
}

// GetOrder returns any user's order with its verification details.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := services.GetOrder(0, c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	response := OrderDetailResponse{
		OrderListItem: newOrderListItem(*order),
		PayerName:     order.PayerName,
		IPAddress:     order.IPAddress,
		UserAgent:     order.UserAgent,
		Suggestions:   make([]SuggestionItem, 0, len(order.Suggestions)),
	}
	if len(order.VerificationPayload) > 0 {
		_ = json.Unmarshal(order.VerificationPayload, &response.VerificationPayload)
	}
	for _, s := range order.Suggestions {
		response.Suggestions = append(response.Suggestions, SuggestionItem{
			BundleDefinitionID: s.BundleDefinitionID,
			BundleCode:         s.BundleDefinition.Code,
			Reason:             s.Reason,
			Score:              s.Score,
			Deficit:            s.Deficit,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", response))
}

// CompleteOrder activates the bundle of a payment-verified order.
func (h *Handler) CompleteOrder(c *gin.Context) {
	orderID := c.Param("id")

	if _, err := services.CompleteOrder(orderID, common.Actor(c)); err != nil {
		common.RespondError(c, err)
		return
	}

	order, err := services.GetOrder(0, orderID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Order completed successfully", newOrderListItem(*order)))
}

// CancelOrder cancels any user's pending or insufficient-funds order.
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID := c.Param("id")

	if _, err := services.CancelOrder(0, orderID); err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Order cancelled successfully", nil))
}
