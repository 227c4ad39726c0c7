package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"despatch-advice-service/internal/dto"
	"despatch-advice-service/internal/service"
	"despatch-advice-service/internal/ubl"
)

type DespatchController struct {
	Service *service.DespatchService
}

func NewDespatchController(s *service.DespatchService) *DespatchController {
	return &DespatchController{Service: s}
}

// GET /health
func Health(c *gin.Context) {
	c.String(http.StatusOK, "Server is running")
}

// POST /api/v1/order/parse: el cuerpo es el XML tal cual
func (ctl *DespatchController) ParseOrder(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No XML found in request body."})
		return
	}

	order, err := ctl.Service.ParseOrder(string(body))
	if err != nil {
		switch ubl.MalformedKindOf(err) {
		case ubl.MissingRoot:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case ubl.NotWellFormed:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ParseOrderResponse{ParsedOrder: order})
}

// POST /api/v1/despatch-advice/generate (requiere token)
func (ctl *DespatchController) Generate(c *gin.Context) {
	var req dto.GenerateDespatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := ctl.Service.Generate(c.Request.Context(), req.ParsedOrder, req.UserInputs)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(doc.XML))
}

// GET /api/v1/despatch-advice/:uuid
func (ctl *DespatchController) GetXML(c *gin.Context) {
	xml, err := ctl.Service.GetXML(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(xml))
}

// GET /api/v1/despatch-advice/:uuid/pdf
func (ctl *DespatchController) GetPDF(c *gin.Context) {
	docUUID := c.Param("uuid")
	pdf, err := ctl.Service.RenderPDF(c.Request.Context(), docUUID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="despatch-advice-%s.pdf"`, docUUID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// DELETE /api/v1/despatch-advice/cancel (requiere token)
func (ctl *DespatchController) Cancel(c *gin.Context) {
	var req dto.CancelDespatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "despatchAdviceId is required"})
		return
	}

	doc, err := ctl.Service.Cancel(c.Request.Context(), req.DespatchAdviceID, req.CancellationReason)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Despatch advice cancelled",
		"docUUID":            doc.DocUUID,
		"despatchId":         doc.DespatchID,
		"cancellationReason": doc.CancellationReason,
	})
}

// statusFor traduce los errores de negocio a códigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingOrder),
		errors.Is(err, service.ErrMissingDocumentKey),
		errors.Is(err, service.ErrInvalidOverrideKey),
		errors.Is(err, service.ErrInvalidReason):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateDocument),
		errors.Is(err, service.ErrAlreadyCancelled):
		return http.StatusConflict
	case errors.Is(err, ubl.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
