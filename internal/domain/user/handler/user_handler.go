package handler

import (
	"net/http"

	"linenloft/internal/domain/user/service"
	"linenloft/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileInput struct {
	Name string `json:"name" binding:"required"`
}

// Register 注册
// @Summary 注册账号
// @Tags User
// @Accept json
// @Produce json
// @Param input body RegisterInput true "Account Info"
// @Success 200 {object} response.Response{data=string} "Token"
// @Router /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, err := h.service.Register(input.Email, input.Password, input.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{"token": token})
}

// Login 登录
// @Summary 登录
// @Tags User
// @Accept json
// @Produce json
// @Param input body LoginInput true "Credentials"
// @Success 200 {object} response.Response{data=string} "Token"
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, err := h.service.Login(input.Email, input.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{"token": token})
}

// GetProfile 获取当前用户资料
// @Summary 获取当前用户资料
// @Tags User
// @Produce json
// @Router /users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.GetString("userID")

	user, err := h.service.GetUser(userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, user)
}

// UpdateProfile 更新当前用户资料
// @Summary 更新当前用户资料
// @Tags User
// @Accept json
// @Produce json
// @Router /users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	userID := c.GetString("userID")
	user, err := h.service.UpdateProfile(userID, input.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, user)
}
