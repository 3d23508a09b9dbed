package handler

import (
	"net/http"

	"expenseflow/internal/middleware"
	"expenseflow/internal/service"
	"expenseflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler sets up the routing dependencies for auth endpoints
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes binds the public auth endpoints
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/admin/signup", h.AdminSignup)
	router.POST("/api/admin/signin", h.AdminSignin)
	router.POST("/api/user/signin", h.UserSignin)
	router.POST("/api/auth/refresh", h.Refresh)
	router.GET("/api/admin/company", middleware.RequireAdmin(), h.CompanyProfile)
}

// AdminSignup onboards a new company and signs its admin in
// @Summary      Company signup
// @Description  Creates a company, resolving its currency from the country, and returns a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignupRequest  true  "Signup Payload"
// @Success      201      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /api/admin/signup [post]
func (h *AuthHandler) AdminSignup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tokens, err := h.authService.SignupCompany(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tokens))
}

// AdminSignin authenticates a company admin
// @Summary      Admin signin
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SigninRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      401      {object}  response.Response
// @Router       /api/admin/signin [post]
func (h *AuthHandler) AdminSignin(c *gin.Context) {
	var req service.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokens, err := h.authService.AdminSignin(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// UserSignin authenticates a user
// @Summary      User signin
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SigninRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      401      {object}  response.Response
// @Router       /api/user/signin [post]
func (h *AuthHandler) UserSignin(c *gin.Context) {
	var req service.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokens, err := h.authService.UserSignin(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// CompanyProfile returns the signed-in admin's company record
func (h *AuthHandler) CompanyProfile(c *gin.Context) {
	company, err := h.authService.CompanyProfile(c.Request.Context(), c.GetString(middleware.CtxSubjectID))
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// Refresh rotates a refresh token into a fresh token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req service.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}
