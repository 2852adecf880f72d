package catalog

import (
	"driveet-backend/internal/api/v1/bundle"
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListDefinitions returns the whole catalog including inactive definitions.
func ListDefinitions(c *gin.Context) {
	defs, err := services.GetAllDefinitions()
	if err != nil {
		common.RespondError(c, err)
		return
	}

	items := make([]bundle.DefinitionResponse, 0, len(defs))
	for _, d := range defs {
		items = append(items, bundle.NewDefinitionResponse(d))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", items))
}

// UpsertDefinition creates or edits a definition by code.
func UpsertDefinition(c *gin.Context) {
	var req UpsertDefinitionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	def, err := services.UpsertBundleDefinition(services.BundleDefinitionInput{
		Name:                     req.Name,
		Code:                     req.Code,
		Description:              req.Description,
		ExamQuota:                req.ExamQuota,
		TotalChatQuota:           req.TotalChatQuota,
		DailyChatLimit:           req.DailyChatLimit,
		SearchQuota:              req.SearchQuota,
		HasUnlimitedRoadSignQuiz: req.HasUnlimitedRoadSignQuiz,
		ValidityDays:             req.ValidityDays,
		Price:                    req.Price,
		Recommended:              req.Recommended,
		IsActive:                 active,
		DisplayOrder:             req.DisplayOrder,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Definition saved", bundle.NewDefinitionResponse(*def)))
}
