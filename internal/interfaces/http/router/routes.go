package router

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
)

// Handlers bundles the endpoint handlers mounted by Register.
type Handlers struct {
	System  *handler.SystemHandler
	Invoice *handler.InvoiceHandler
	Gmail   *handler.GmailHandler
}

// Register mounts the service routes. authenticate guards every route except
// the liveness probes, the OAuth callback and /generate-pdf, which validates
// its body before authenticating.
func Register(r *Router, h Handlers, authenticate gin.HandlerFunc) {
	systemRoutes := NewDomainGroup("system", "")
	systemRoutes.GET("/", h.System.Root)
	systemRoutes.GET("/healthz", h.System.Healthz)

	invoiceRoutes := NewDomainGroup("invoices", "")
	invoiceRoutes.POST("/generate-pdf", h.Invoice.GeneratePDF)
	invoiceRoutes.POST("/send-invoice-email", authenticate, h.Invoice.SendInvoiceEmail)

	gmailRoutes := NewDomainGroup("gmail", "/gmail")
	gmailRoutes.GET("/auth-url", authenticate, h.Gmail.AuthURL)
	gmailRoutes.GET("/callback", h.Gmail.Callback)
	gmailRoutes.POST("/disconnect", authenticate, h.Gmail.Disconnect)

	r.Register(systemRoutes).
		Register(invoiceRoutes).
		Register(gmailRoutes)
}
