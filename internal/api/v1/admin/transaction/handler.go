package transaction

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// parseFilter reads the shared query filters. It answers 400 itself and
// reports false on malformed input.
func parseFilter(c *gin.Context) (services.TransactionFilter, bool) {
	var filter services.TransactionFilter

	if userIDStr, exists := c.GetQuery("user_id"); exists {
		userID, err := strconv.ParseUint(userIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user_id"))
			return filter, false
		}
		uid := uint(userID)
		filter.UserID = &uid
	}

	if bundleIDStr, exists := c.GetQuery("bundle_id"); exists {
		bundleID, err := strconv.ParseUint(bundleIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid bundle_id"))
			return filter, false
		}
		bid := uint(bundleID)
		filter.UserBundleID = &bid
	}

	if typeStr, exists := c.GetQuery("type"); exists {
		t := models.TransactionType(typeStr)
		filter.Type = &t
	}

	if resourceStr, exists := c.GetQuery("resource"); exists {
		r := models.ResourceKind(resourceStr)
		if !r.Valid() {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid resource"))
			return filter, false
		}
		filter.Resource = &r
	}

	if startTimeStr, exists := c.GetQuery("start_time"); exists {
		startTime, err := time.Parse(time.RFC3339, startTimeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid start_time format"))
			return filter, false
		}
		filter.StartTime = &startTime
	}

	if endTimeStr, exists := c.GetQuery("end_time"); exists {
		endTime, err := time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid end_time format"))
			return filter, false
		}
		filter.EndTime = &endTime
	}

	return filter, true
}

// ListTransactions godoc
// @Summary List ledger transactions
// @Description Get a paginated list of resource ledger rows with filtering. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user_id query int false "Filter by user ID"
// @Param bundle_id query int false "Filter by user bundle ID"
// @Param type query string false "Filter by transaction type"
// @Param resource query string false "Filter by resource kind"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Success 200 {object} utils.Response{data=TransactionListResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/transactions [get]
func ListTransactions(c *gin.Context) {
	page, limit, ok := common.Pagination(c)
	if !ok {
		return
	}

	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.Page = page
	filter.Limit = limit

	transactions, total, err := services.FindTransactions(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch transactions"))
		return
	}

	items := make([]TransactionListItem, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, TransactionListItem{
			ID:           t.ID,
			CreatedAt:    t.CreatedAt,
			UserID:       t.UserID,
			UserBundleID: t.UserBundleID,
			Type:         t.Type,
			Resource:     t.Resource,
			Quantity:     t.Quantity,
			Before:       newSnapshot(t.Before),
			After:        newSnapshot(t.After),
			Reference:    t.Reference,
			Description:  t.Description,
			Operator:     t.Operator,
			IPAddress:    t.IPAddress,
			UserAgent:    t.UserAgent,
			Hash:         t.Hash,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transactions retrieved successfully", TransactionListResponse{
		Transactions: items,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}))
}

// ExportTransactions godoc
// @Summary Export ledger transactions
// @Description Export matching ledger rows to CSV, oldest first. Admin only.
// @Tags admin
// @Produce text/csv
// @Security Bearer
// @Param user_id query int false "Filter by user ID"
// @Param bundle_id query int false "Filter by user bundle ID"
// @Param type query string false "Filter by transaction type"
// @Param resource query string false "Filter by resource kind"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Success 200 {string} string "CSV content"
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/transactions/export [get]
func ExportTransactions(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	transactions, err := services.ExportTransactions(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch transactions"))
		return
	}

	csvData, err := services.GenerateTransactionCSV(transactions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to generate CSV"))
		return
	}

	filename := fmt.Sprintf("ledger_%s.csv", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", csvData)
}
