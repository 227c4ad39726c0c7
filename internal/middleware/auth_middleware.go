// auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"despatch-advice-service/internal/service"
)

// Claves que el middleware deja en el contexto de gin.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxToken     = "token"
)

type TokenValidator interface {
	ValidateToken(token string) (*service.AuthUser, error)
}

// Middleware que valida el token y guarda la info del usuario en el contexto.
// Sin token responde 401; token inválido o revocado, 403.
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access denied. No token provided."})
			return
		}

		user, err := auth.ValidateToken(token)
		if err != nil {
			msg := "Invalid or expired token."
			if errors.Is(err, service.ErrRevokedToken) {
				msg = "Token has been revoked."
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
			return
		}

		// Guardamos los datos del usuario en el contexto
		c.Set(CtxUserID, user.ID)
		c.Set(CtxUserEmail, user.Email)
		c.Set(CtxToken, token)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
