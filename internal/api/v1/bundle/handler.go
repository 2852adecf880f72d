package bundle

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ListDefinitions godoc
// @Summary List bundle definitions
// @Description Get the purchasable bundle catalog.
// @Tags bundle
// @Produce json
// @Success 200 {object} utils.Response{data=[]DefinitionResponse}
// @Failure 500 {object} utils.Response
// @Router /bundles/definitions [get]
func (h *Handler) ListDefinitions(c *gin.Context) {
	defs, err := services.GetActiveDefinitions()
	if err != nil {
		common.RespondError(c, err)
		return
	}

	response := make([]DefinitionResponse, 0, len(defs))
	for _, d := range defs {
		response = append(response, NewDefinitionResponse(d))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", response))
}

// GetResources godoc
// @Summary Get my resources
// @Description Summarize the remaining resources of the current user's active bundle.
// @Tags bundle
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=services.ResourceSummary}
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /bundles/resources [get]
func (h *Handler) GetResources(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	summary, err := services.GetUserResources(user.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", summary))
}

// ListMyBundles godoc
// @Summary List my bundles
// @Description Every bundle the current user has owned, newest first.
// @Tags bundle
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=[]UserBundleResponse}
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /bundles/my [get]
func (h *Handler) ListMyBundles(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	bundles, err := services.ListUserBundles(user.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	response := make([]UserBundleResponse, 0, len(bundles))
	for _, b := range bundles {
		response = append(response, NewUserBundleResponse(b))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", response))
}

// CheckAccess godoc
// @Summary Check resource access
// @Description Report whether one unit of a resource is available. Nothing is consumed.
// @Tags bundle
// @Produce json
// @Security Bearer
// @Param resource path string true "Resource kind" Enums(exam, chat, search, road_sign)
// @Success 200 {object} utils.Response{data=AccessResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /bundles/access/{resource} [get]
func (h *Handler) CheckAccess(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	kind := models.ResourceKind(c.Param("resource"))
	_, err := services.CheckResourceAccess(user.ID, kind)
	switch services.KindOf(err) {
	case "":
		c.JSON(http.StatusOK, utils.NewSuccessResponse("success", AccessResponse{Resource: kind, Allowed: true}))
	case services.KindInvalidResourceKind, services.KindValidation, services.KindInternal:
		common.RespondError(c, err)
	default:
		c.JSON(http.StatusOK, utils.NewSuccessResponse(err.Error(), AccessResponse{
			Resource: kind,
			Reason:   string(services.KindOf(err)),
		}))
	}
}

// Consume godoc
// @Summary Consume a resource
// @Description Debit units of a resource from the current user's active bundle.
// @Tags bundle
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body ConsumeRequest true "Resource and quantity"
// @Success 200 {object} utils.Response{data=services.ResourceSummary}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 402 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /bundles/consume [post]
func (h *Handler) Consume(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var req ConsumeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if _, err := services.ConsumeResource(user.ID, models.ResourceKind(req.Resource), req.Quantity, req.Note, common.Actor(c)); err != nil {
		common.RespondError(c, err)
		return
	}

	summary, err := services.GetUserResources(user.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Resource consumed", summary))
}
