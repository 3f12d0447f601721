package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler serves document generation and delivery
type InvoiceHandler struct {
	BaseHandler
	pipeline DocumentPipeline
	verifier auth.TokenVerifier
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(pipeline DocumentPipeline, verifier auth.TokenVerifier) *InvoiceHandler {
	return &InvoiceHandler{pipeline: pipeline, verifier: verifier}
}

// GeneratePDF godoc
// @ID           generateInvoicePdf
// @Summary      Render and publish an invoice PDF
// @Description  Renders the invoice, stores it under invoices/{id}.pdf and returns a signed URL.
// @Description  The invoiceId check runs before authentication.
// @Description  The URL is requested for 30 days; S3 backends cap presigned URLs at 7 days.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.GeneratePDFRequest true "Invoice to render"
// @Success      200 {object} dto.GeneratePDFResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /generate-pdf [post]
func (h *InvoiceHandler) GeneratePDF(c *gin.Context) {
	var req dto.GeneratePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}
	req.InvoiceID = strings.TrimSpace(req.InvoiceID)
	if req.InvoiceID == "" {
		h.Error(c, shared.NewDomainError(shared.CodeValidation, "invoiceId is required"), "")
		return
	}

	principal := middleware.Authenticate(c, h.verifier, logger.GetGinLogger(c))
	if principal == nil {
		return
	}

	result, err := h.pipeline.RenderAndPublish(c.Request.Context(), principal.ID, req.InvoiceID)
	if err != nil {
		h.Error(c, err, "Failed to generate PDF")
		return
	}

	c.JSON(http.StatusOK, dto.GeneratePDFResponse{
		Success: true,
		PDFURL:  result.URL,
		Message: "PDF generated successfully",
	})
}

// SendInvoiceEmail godoc
// @ID           sendInvoiceEmail
// @Summary      Email a published invoice
// @Description  Sends the stored PDF from the caller's connected Gmail account.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.SendInvoiceEmailRequest true "Email request"
// @Success      200 {object} dto.SuccessResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      502 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /send-invoice-email [post]
func (h *InvoiceHandler) SendInvoiceEmail(c *gin.Context) {
	var req dto.SendInvoiceEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	err := h.pipeline.SendByEmail(c.Request.Context(), middleware.GetPrincipalID(c), invoicingapp.SendRequest{
		InvoiceID: req.InvoiceID,
		Recipient: req.RecipientEmail,
		Subject:   req.Subject,
		Message:   req.Message,
	})
	if err != nil {
		h.Error(c, err, "Failed to send email")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Email sent successfully"})
}
