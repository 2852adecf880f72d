package exam

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type StartExamResponse struct {
	BundleID       uint `json:"bundle_id"`
	ExamsRemaining int  `json:"exams_remaining"`
}

// StartExam godoc
// @Summary Start an exam
// @Description Debit one exam attempt. Guarded by the resource access check.
// @Tags exam
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=StartExamResponse}
// @Failure 401 {object} utils.Response
// @Failure 402 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /exam/start [post]
func StartExam(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	// The guard admitted the request, but a concurrent attempt may have taken
	// the last unit since; ConsumeResource has the final say.
	b, err := services.ConsumeResource(user.ID, models.ResourceExam, 1, "Exam started", common.Actor(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Exam started", StartExamResponse{
		BundleID:       b.ID,
		ExamsRemaining: b.ExamsRemaining,
	}))
}
