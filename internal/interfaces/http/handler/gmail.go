package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Callback outcomes reported to the frontend in the "gmail" query parameter.
const (
	CallbackConnected = "connected"
	CallbackError     = "error"
)

// GmailHandler serves the mailbox connection flow
type GmailHandler struct {
	BaseHandler
	connector   MailConnector
	frontendURL string
}

// NewGmailHandler creates a new GmailHandler. The OAuth callback redirects
// back to frontendURL.
func NewGmailHandler(connector MailConnector, frontendURL string) *GmailHandler {
	return &GmailHandler{connector: connector, frontendURL: frontendURL}
}

// AuthURL godoc
// @ID           getGmailAuthUrl
// @Summary      Gmail consent URL
// @Tags         gmail
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.AuthURLResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /gmail/auth-url [get]
func (h *GmailHandler) AuthURL(c *gin.Context) {
	authURL, err := h.connector.AuthorizationURL(c.Request.Context(), middleware.GetPrincipalID(c))
	if err != nil {
		h.Error(c, err, "Failed to create authorization URL")
		return
	}
	c.JSON(http.StatusOK, dto.AuthURLResponse{AuthURL: authURL})
}

// Callback godoc
// @ID           gmailOAuthCallback
// @Summary      Gmail OAuth callback
// @Description  Completes the authorization and redirects to the frontend with gmail=connected or gmail=error.
// @Tags         gmail
// @Param        code  query string false "Authorization code"
// @Param        state query string false "State issued with the consent URL"
// @Param        error query string false "Provider error, e.g. access_denied"
// @Success      302
// @Router       /gmail/callback [get]
func (h *GmailHandler) Callback(c *gin.Context) {
	log := logger.GetGinLogger(c)

	if providerErr := c.Query("error"); providerErr != "" {
		log.Warn("gmail authorization declined", zap.String("error", providerErr))
		h.redirect(c, CallbackError)
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		h.redirect(c, CallbackError)
		return
	}

	if _, err := h.connector.CompleteAuthorization(c.Request.Context(), code, state); err != nil {
		log.Warn("gmail authorization failed", zap.Error(err))
		h.redirect(c, CallbackError)
		return
	}
	h.redirect(c, CallbackConnected)
}

func (h *GmailHandler) redirect(c *gin.Context, outcome string) {
	target, err := url.Parse(h.frontendURL)
	if err != nil || h.frontendURL == "" {
		target = &url.URL{Path: "/"}
	}
	q := target.Query()
	q.Set("gmail", outcome)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

// Disconnect godoc
// @ID           disconnectGmail
// @Summary      Disconnect Gmail
// @Description  Forgets the stored mail credential and mailbox.
// @Tags         gmail
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SuccessResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /gmail/disconnect [post]
func (h *GmailHandler) Disconnect(c *gin.Context) {
	if err := h.connector.Disconnect(c.Request.Context(), middleware.GetPrincipalID(c)); err != nil {
		h.Error(c, err, "Failed to disconnect Gmail")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Gmail disconnected"})
}
