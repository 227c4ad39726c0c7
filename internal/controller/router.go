package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"despatch-advice-service/internal/metrics"
	"despatch-advice-service/internal/middleware"
	"despatch-advice-service/internal/service"
)

// NewRouter registra todas las rutas del servicio.
func NewRouter(despatch *service.DespatchService, auth *service.AuthService, reg *metrics.Registry, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), reg.Middleware())

	dc := NewDespatchController(despatch)
	ac := NewAuthController(auth, log)
	requireAuth := middleware.AuthMiddleware(auth)

	// Rutas públicas
	r.GET("/health", Health)
	r.GET("/metrics", gin.WrapH(reg.Handler()))
	r.POST("/register", ac.Register)
	r.POST("/login", ac.Login)

	v1 := r.Group("/api/v1")
	v1.POST("/order/parse", dc.ParseOrder)
	v1.GET("/despatch-advice/:uuid", dc.GetXML)
	v1.GET("/despatch-advice/:uuid/pdf", dc.GetPDF)

	// Rutas protegidas (requieren token)
	v1.POST("/despatch-advice/generate", requireAuth, dc.Generate)
	v1.DELETE("/despatch-advice/cancel", requireAuth, dc.Cancel)
	r.POST("/logout", requireAuth, ac.Logout)
	r.GET("/me", requireAuth, ac.Me)

	return r
}
