package dto

// ErrorResponse is the body of every failed request
// @name ErrorResponse
type ErrorResponse struct {
	Error     string `json:"error" example:"Failed to generate PDF"`
	Message   string `json:"message,omitempty" example:"storage bucket \"invoices\" does not exist"`
	Code      string `json:"code,omitempty" example:"STORAGE_UNAVAILABLE"`
	RequestID string `json:"request_id,omitempty" example:"4f1c2a9e0b7d4e3f8a6b5c4d3e2f1a0b"`
}

// ServiceStatusResponse is returned by the root endpoint
type ServiceStatusResponse struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"invoice-renderer"`
}

// HealthResponse reports bucket and database reachability
type HealthResponse struct {
	OK     bool   `json:"ok" example:"true"`
	Bucket string `json:"bucket,omitempty" example:"invoices"`
	Error  string `json:"error,omitempty"`
}

// GeneratePDFRequest asks for an invoice document to be rendered
type GeneratePDFRequest struct {
	InvoiceID string `json:"invoiceId" example:"9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4"`
}

// GeneratePDFResponse carries the signed document URL
type GeneratePDFResponse struct {
	Success bool   `json:"success" example:"true"`
	PDFURL  string `json:"pdfUrl" example:"https://storage.example.com/invoices/9b2f6c1e.pdf?X-Amz-Signature=..."`
	Message string `json:"message" example:"PDF generated successfully"`
}

// SendInvoiceEmailRequest asks for the stored invoice document to be emailed
type SendInvoiceEmailRequest struct {
	InvoiceID      string `json:"invoiceId" binding:"required" example:"9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4"`
	RecipientEmail string `json:"recipientEmail" binding:"required,email" example:"ap@client.example"`
	Subject        string `json:"subject" binding:"required,max=255" example:"Invoice INV-202403-0174"`
	Message        string `json:"message" binding:"max=10000" example:"Thanks for your business."`
}

// SuccessResponse acknowledges an operation without a payload
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Email sent successfully"`
}

// AuthURLResponse carries the mail provider consent URL
type AuthURLResponse struct {
	AuthURL string `json:"authUrl" example:"https://accounts.google.com/o/oauth2/auth?access_type=offline&prompt=consent"`
}

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned when request binding fails
type ValidationErrorResponse struct {
	Error     string             `json:"error" example:"Request validation failed"`
	Code      string             `json:"code" example:"VALIDATION_FAILED"`
	Details   []ValidationDetail `json:"details,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}
