package bundle

import (
	bundledto "driveet-backend/internal/api/v1/bundle"
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"driveet-backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Purchase godoc
// @Summary      Grant a bundle
// @Description  Activate a bundle for a user from an out-of-band payment, superseding any active bundle
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body PurchaseRequest true "Purchase"
// @Success      200  {object}  utils.Response{data=PurchaseResponse}
// @Failure      400  {object}  utils.Response
// @Failure      404  {object}  utils.Response
// @Failure      409  {object}  utils.Response
// @Router       /admin/bundles/purchase [post]
// @Security     Bearer
func (h *Handler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	b, receipt, err := services.PurchaseBundle(req.UserID, req.BundleDefinitionID, services.PaymentData{
		PaymentMethodID: req.PaymentMethodID,
		AmountPaid:      req.AmountPaid,
		ReferenceNumber: req.ReferenceNumber,
		TransactionID:   req.TransactionID,
	}, common.Actor(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	logger.Log.Info("bundle granted by admin",
		zap.Uint("user_id", req.UserID),
		zap.Uint("bundle_id", b.ID),
		zap.String("operator", common.Actor(c).Operator),
	)

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Bundle activated", PurchaseResponse{
		Bundle:     bundledto.NewUserBundleResponse(*b),
		PurchaseID: receipt.ID,
		AmountPaid: receipt.AmountPaid,
		VerifiedAt: receipt.VerifiedAt,
	}))
}

// Refund godoc
// @Summary      Refund resources
// @Description  Return units to the user's active bundle after a failed downstream action
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body RefundRequest true "Refund"
// @Success      200  {object}  utils.Response{data=RefundResponse}
// @Failure      400  {object}  utils.Response
// @Failure      402  {object}  utils.Response
// @Router       /admin/bundles/refund [post]
// @Security     Bearer
func (h *Handler) Refund(c *gin.Context) {
	var req RefundRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	b, err := services.RefundResource(req.UserID, models.ResourceKind(req.Resource), req.Quantity, req.Note, common.Actor(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	summary, err := services.GetUserResources(req.UserID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Resources refunded", RefundResponse{
		BundleID:  b.ID,
		Resources: summary,
	}))
}

// VerifyLedger replays a bundle's ledger and reports any inconsistency.
func (h *Handler) VerifyLedger(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	report, err := services.VerifyBundleLedger(id)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if !report.Valid {
		logger.Log.Warn("ledger verification failed",
			zap.Uint("bundle_id", id),
			zap.Int("issues", len(report.Issues)),
		)
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", report))
}
