// dto.go
package dto

import "despatch-advice-service/internal/model"

type ParseOrderResponse struct {
	ParsedOrder *model.ParsedOrder `json:"parsedOrder"`
}

// GenerateDespatchRequest es el cuerpo de POST /api/v1/despatch-advice/generate.
// userInputs se recibe como mapa para poder rechazar claves desconocidas.
type GenerateDespatchRequest struct {
	ParsedOrder *model.ParsedOrder `json:"parsedOrder"`
	UserInputs  map[string]string  `json:"userInputs"`
}

type CancelDespatchRequest struct {
	DespatchAdviceID   string `json:"despatchAdviceId" binding:"required"`
	CancellationReason string `json:"cancellationReason"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
