package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"despatch-advice-service/internal/dto"
	"despatch-advice-service/internal/logging"
	"despatch-advice-service/internal/middleware"
	"despatch-advice-service/internal/service"
)

type AuthController struct {
	Service *service.AuthService
	Log     *logrus.Logger
}

func NewAuthController(s *service.AuthService, log *logrus.Logger) *AuthController {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthController{Service: s, Log: log}
}

// POST /register
func (ctl *AuthController) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingCredentials.Error()})
		return
	}

	token, err := ctl.Service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		ctl.Log.WithError(err).WithField(logging.FieldEmail, req.Email).Warn("register rejected")
		c.JSON(authStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctl.Log.WithField(logging.FieldEmail, req.Email).Info("user registered")
	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: token})
}

// POST /login
func (ctl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingCredentials.Error()})
		return
	}

	token, err := ctl.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ctl.Log.WithField(logging.FieldEmail, req.Email).Warn("login failed")
		c.JSON(authStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: token})
}

// POST /logout (requiere token)
func (ctl *AuthController) Logout(c *gin.Context) {
	if err := ctl.Service.Logout(c.GetString(middleware.CtxToken)); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out"})
}

// GET /me (requiere token)
func (ctl *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetString(middleware.CtxUserID),
		"email": c.GetString(middleware.CtxUserEmail),
	})
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
