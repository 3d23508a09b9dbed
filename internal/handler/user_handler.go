package handler

import (
	"net/http"

	"expenseflow/internal/middleware"
	"expenseflow/internal/service"
	"expenseflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the user surface: raising requests, approving and
// rejecting them, password change and the manager's team view. The user
// token subject is the user id.
type UserHandler struct {
	requestService service.RequestService
	userService    service.UserService
	summaryService service.SummaryService
}

func NewUserHandler(requestService service.RequestService, userService service.UserService, summaryService service.SummaryService) *UserHandler {
	return &UserHandler{
		requestService: requestService,
		userService:    userService,
		summaryService: summaryService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	user := router.Group("/api/user", middleware.RequireUser())
	{
		user.GET("/requests", h.ListRequests)
		user.POST("/requests", h.CreateRequest)
		user.POST("/requests/:id/approve", h.ApproveRequest)
		user.POST("/requests/:id/reject", h.RejectRequest)
		user.POST("/change_password", h.ChangePassword)
		user.GET("/team_expense", h.TeamExpense)
	}
}

// CreateRequest raises a new expense request for the authenticated user
// @Summary      Create expense request
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Request Payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/user/requests [post]
func (h *UserHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), c.GetString(middleware.CtxSubjectID), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// ListRequests returns the requests raised by the authenticated user
func (h *UserHandler) ListRequests(c *gin.Context) {
	requests, err := h.requestService.ListMine(c.Request.Context(), c.GetString(middleware.CtxSubjectID))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// ApproveRequest records an approval by the authenticated user
// @Summary      Approve request
// @Description  Records an approval; the rule engine decides whether the request becomes approved or stays pending
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Request ID"
// @Success      200 {object}  response.Response{data=service.RequestResponse}
// @Failure      403 {object}  response.Response
// @Failure      404 {object}  response.Response
// @Failure      409 {object}  response.Response
// @Failure      422 {object}  response.Response
// @Router       /api/user/requests/{id}/approve [post]
func (h *UserHandler) ApproveRequest(c *gin.Context) {
	request, err := h.requestService.Approve(c.Request.Context(), c.GetString(middleware.CtxSubjectID), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// RejectRequest records a rejection by the authenticated user; a single
// rejection is terminal
func (h *UserHandler) RejectRequest(c *gin.Context) {
	request, err := h.requestService.Reject(c.Request.Context(), c.GetString(middleware.CtxSubjectID), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// ChangePassword updates the authenticated user's password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), c.GetString(middleware.CtxSubjectID), req); err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Password changed successfully"}))
}

// TeamExpense aggregates the amounts of the manager's direct reports
func (h *UserHandler) TeamExpense(c *gin.Context) {
	summary, err := h.summaryService.TeamExpenses(c.Request.Context(), c.GetString(middleware.CtxSubjectID))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
