package handler

import (
	"net/http"
	"strconv"

	"expenseflow/internal/middleware"
	"expenseflow/internal/service"
	"expenseflow/pkg/pagination"
	"expenseflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the company-admin surface: user management, rule
// attachment and company-wide expense views. The admin token subject is
// the company id.
type AdminHandler struct {
	userService    service.UserService
	requestService service.RequestService
	summaryService service.SummaryService
	auditService   service.AuditService
}

func NewAdminHandler(userService service.UserService, requestService service.RequestService, summaryService service.SummaryService, auditService service.AuditService) *AdminHandler {
	return &AdminHandler{
		userService:    userService,
		requestService: requestService,
		summaryService: summaryService,
		auditService:   auditService,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin", middleware.RequireAdmin())
	{
		admin.POST("/users", h.CreateUser)
		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:id/role", h.ChangeRole)
		admin.POST("/users/:id/manager", h.ChangeManager)
		admin.POST("/users/:id/send_password", h.SendPassword)
		admin.GET("/requests", h.ListRequests)
		admin.GET("/requests/:id", h.GetRequest)
		admin.POST("/requests/:id/rules", h.AttachRule)
		admin.GET("/expenses", h.ExpenseSummary)
		admin.GET("/audit", h.AuditLog)
	}
}

// CreateUser provisions a user in the admin's company
// @Summary      Create a user
// @Description  Creates an employee or manager; the generated password is emailed to them
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), c.GetString(middleware.CtxSubjectID), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// ListUsers returns all users of the admin's company
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), c.GetString(middleware.CtxSubjectID))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, users))
}

// ChangeRole updates a user's role
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	var req service.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.userService.ChangeRole(c.Request.Context(), c.GetString(middleware.CtxSubjectID), c.Param("id"), req.Role); err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User role changed successfully"}))
}

// ChangeManager reassigns a user's manager; a null manager_id clears it
func (h *AdminHandler) ChangeManager(c *gin.Context) {
	var req service.ChangeManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.userService.ChangeManager(c.Request.Context(), c.GetString(middleware.CtxSubjectID), c.Param("id"), req.ManagerID); err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User manager changed successfully"}))
}

// SendPassword regenerates a user's password and emails it to them
func (h *AdminHandler) SendPassword(c *gin.Context) {
	if err := h.userService.SendPassword(c.Request.Context(), c.GetString(middleware.CtxSubjectID), c.Param("id")); err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User password sent successfully"}))
}

// ListRequests returns the company's requests, paginated
func (h *AdminHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.requestService.ListCompany(c.Request.Context(), c.GetString(middleware.CtxSubjectID), params)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetRequest returns one request with full detail
func (h *AdminHandler) GetRequest(c *gin.Context) {
	request, err := h.requestService.Get(c.Request.Context(), c.GetString(middleware.CtxSubjectID), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// AttachRule binds an approval rule to a request and moves it to pending
// @Summary      Attach approval rule
// @Description  Creates the request's approval rule; a second attachment is rejected with a conflict
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Request ID"
// @Param        payload  body      service.AttachRuleDTO  true  "Rule Payload"
// @Success      201      {object}  response.Response{data=service.RuleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/requests/{id}/rules [post]
func (h *AdminHandler) AttachRule(c *gin.Context) {
	var req service.AttachRuleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.requestService.AttachRule(c.Request.Context(), c.GetString(middleware.CtxSubjectID), c.Param("id"), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// AuditLog returns the company's most recent audit entries
func (h *AdminHandler) AuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.auditService.List(c.Request.Context(), c.GetString(middleware.CtxSubjectID), limit)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// ExpenseSummary aggregates company request amounts by status
func (h *AdminHandler) ExpenseSummary(c *gin.Context) {
	summary, err := h.summaryService.CompanyExpenses(c.Request.Context(), c.GetString(middleware.CtxSubjectID))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
