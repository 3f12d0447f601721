package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newInvoiceRouter(pipeline DocumentPipeline) *gin.Engine {
	verifier := newVerifier()
	h := NewInvoiceHandler(pipeline, verifier)
	r := newEngine()
	r.POST("/generate-pdf", h.GeneratePDF)
	r.POST("/send-invoice-email", middleware.BearerAuth(verifier, nil), h.SendInvoiceEmail)
	return r
}

func TestInvoiceHandler_GeneratePDF(t *testing.T) {
	verifier := newVerifier()

	t.Run("success", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)
		pipeline.On("RenderAndPublish", mock.Anything, "user-1", "inv-174").
			Return(&invoicingapp.PublishResult{URL: "https://signed.example/inv-174.pdf", GeneratedAt: time.Now()}, nil)

		w := doJSON(r, http.MethodPost, "/generate-pdf", map[string]string{"invoiceId": "inv-174"}, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"pdfUrl":"https://signed.example/inv-174.pdf","message":"PDF generated successfully"}`, w.Body.String())
		pipeline.AssertExpectations(t)
	})

	t.Run("missing invoiceId is rejected before authentication", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)

		for _, body := range []any{nil, map[string]string{}, map[string]string{"invoiceId": "  "}} {
			w := doJSON(r, http.MethodPost, "/generate-pdf", body, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invoiceId is required", decode(t, w)["error"])
		}
		pipeline.AssertNotCalled(t, "RenderAndPublish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)

		w := doJSON(r, http.MethodPost, "/generate-pdf", `{"invoiceId":`, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", decode(t, w)["error"])
	})

	t.Run("missing token", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)

		w := doJSON(r, http.MethodPost, "/generate-pdf", map[string]string{"invoiceId": "inv-174"}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decode(t, w)["error"])
		pipeline.AssertNotCalled(t, "RenderAndPublish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid token", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)

		w := doJSON(r, http.MethodPost, "/generate-pdf", map[string]string{"invoiceId": "inv-174"}, "Bearer not-a-jwt")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid token", decode(t, w)["error"])
	})

	errorCases := []struct {
		name    string
		err     error
		status  int
		summary string
	}{
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"not found", shared.ErrNotFound, http.StatusNotFound, "Invoice not found"},
		{"render timeout", shared.Wrap(shared.CodeRenderTimeout, "rendering timed out", nil), http.StatusInternalServerError, "Failed to generate PDF"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Failed to generate PDF"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := new(MockPipeline)
			r := newInvoiceRouter(pipeline)
			pipeline.On("RenderAndPublish", mock.Anything, "user-2", "inv-174").Return(nil, tc.err)

			w := doJSON(r, http.MethodPost, "/generate-pdf", map[string]string{"invoiceId": "inv-174"}, bearer(t, verifier, "user-2"))

			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tc.summary, body["error"])
			assert.NotEmpty(t, body["request_id"])
		})
	}

	t.Run("server errors carry the cause as message", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)
		pipeline.On("RenderAndPublish", mock.Anything, "user-1", "inv-174").
			Return(nil, shared.Wrap(shared.CodeStorageUnavailable, `storage bucket "invoices" does not exist`, nil))

		w := doJSON(r, http.MethodPost, "/generate-pdf", map[string]string{"invoiceId": "inv-174"}, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, `storage bucket "invoices" does not exist`, decode(t, w)["message"])
	})
}

func TestInvoiceHandler_SendInvoiceEmail(t *testing.T) {
	verifier := newVerifier()
	valid := map[string]string{
		"invoiceId":      "inv-174",
		"recipientEmail": "ap@globex.example",
		"subject":        "Invoice INV-174",
		"message":        "Thanks!",
	}

	t.Run("success", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)
		pipeline.On("SendByEmail", mock.Anything, "user-1", invoicingapp.SendRequest{
			InvoiceID: "inv-174",
			Recipient: "ap@globex.example",
			Subject:   "Invoice INV-174",
			Message:   "Thanks!",
		}).Return(nil)

		w := doJSON(r, http.MethodPost, "/send-invoice-email", valid, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Email sent successfully"}`, w.Body.String())
		pipeline.AssertExpectations(t)
	})

	t.Run("requires authentication", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)

		w := doJSON(r, http.MethodPost, "/send-invoice-email", valid, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		pipeline.AssertNotCalled(t, "SendByEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)
		body := map[string]string{"invoiceId": "inv-174", "recipientEmail": "not-an-email", "subject": "Hi"}

		w := doJSON(r, http.MethodPost, "/send-invoice-email", body, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		details := resp["details"].([]any)
		assert.Equal(t, "recipientEmail", details[0].(map[string]any)["field"])
	})

	t.Run("missing subject", func(t *testing.T) {
		pipeline := new(MockPipeline)
		r := newInvoiceRouter(pipeline)
		body := map[string]string{"invoiceId": "inv-174", "recipientEmail": "ap@globex.example"}

		w := doJSON(r, http.MethodPost, "/send-invoice-email", body, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "subject is required", decode(t, w)["error"])
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		error  string
	}{
		{"mail not connected", shared.ErrMailNotConnected, http.StatusBadRequest, "Gmail not connected"},
		{"attachment missing", shared.ErrAttachmentMissing, http.StatusBadRequest, "PDF not generated"},
		{"provider failure", shared.Wrap(shared.CodeMailSendFailure, "quota exceeded", nil), http.StatusBadGateway, "Failed to send email"},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"not found", shared.ErrNotFound, http.StatusNotFound, "Invoice not found"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := new(MockPipeline)
			r := newInvoiceRouter(pipeline)
			pipeline.On("SendByEmail", mock.Anything, "user-1", mock.Anything).Return(tc.err)

			w := doJSON(r, http.MethodPost, "/send-invoice-email", valid, bearer(t, verifier, "user-1"))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.error, decode(t, w)["error"])
		})
	}
}
