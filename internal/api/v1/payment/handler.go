package payment

import (
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

// GetPaymentMethods godoc
// @Summary List payment methods
// @Description Payment methods a bundle order can be paid with.
// @Tags payment
// @Produce json
// @Success 200 {object} utils.Response{data=[]PaymentMethodResponse}
// @Failure 500 {object} utils.Response
// @Router /payment/methods [get]
func (h *Handler) GetPaymentMethods(c *gin.Context) {
	methods, err := services.GetActivePaymentMethods()
	if err != nil {
		common.RespondError(c, err)
		return
	}

	response := make([]PaymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		response = append(response, PaymentMethodResponse{
			ID:           m.ID,
			UUID:         m.UUID,
			Code:         m.Code,
			Name:         m.Name,
			Type:         string(m.MethodType),
			LogoURL:      m.LogoURL,
			DisplayOrder: m.DisplayOrder,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", response))
}
