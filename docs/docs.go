// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service status",
                "operationId": "getServiceStatus",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ServiceStatusResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Verifies that the document bucket exists and the database answers",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "operationId": "getHealthz",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HealthResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/generate-pdf": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Renders the invoice, stores it under invoices/{id}.pdf and returns a signed URL.\nThe invoiceId check runs before authentication.\nThe URL is requested for 30 days; S3 backends cap presigned URLs at 7 days.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Render and publish an invoice PDF",
                "operationId": "generateInvoicePdf",
                "parameters": [
                    {"description": "Invoice to render", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.GeneratePDFRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.GeneratePDFResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/send-invoice-email": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Sends the stored PDF from the caller's connected Gmail account.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Email a published invoice",
                "operationId": "sendInvoiceEmail",
                "parameters": [
                    {"description": "Email request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SendInvoiceEmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/gmail/auth-url": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["gmail"],
                "summary": "Gmail consent URL",
                "operationId": "getGmailAuthUrl",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AuthURLResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/gmail/callback": {
            "get": {
                "description": "Completes the authorization and redirects to the frontend with gmail=connected or gmail=error.",
                "tags": ["gmail"],
                "summary": "Gmail OAuth callback",
                "operationId": "gmailOAuthCallback",
                "parameters": [
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query"},
                    {"type": "string", "description": "State issued with the consent URL", "name": "state", "in": "query"},
                    {"type": "string", "description": "Provider error, e.g. access_denied", "name": "error", "in": "query"}
                ],
                "responses": {
                    "302": {"description": "Found"}
                }
            }
        },
        "/gmail/disconnect": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Forgets the stored mail credential and mailbox.",
                "produces": ["application/json"],
                "tags": ["gmail"],
                "summary": "Disconnect Gmail",
                "operationId": "disconnectGmail",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "STORAGE_UNAVAILABLE"},
                "error": {"type": "string", "example": "Failed to generate PDF"},
                "message": {"type": "string", "example": "storage bucket \"invoices\" does not exist"},
                "request_id": {"type": "string", "example": "4f1c2a9e0b7d4e3f8a6b5c4d3e2f1a0b"}
            }
        },
        "dto.AuthURLResponse": {
            "type": "object",
            "properties": {
                "authUrl": {"type": "string", "example": "https://accounts.google.com/o/oauth2/auth?access_type=offline&prompt=consent"}
            }
        },
        "dto.GeneratePDFRequest": {
            "type": "object",
            "properties": {
                "invoiceId": {"type": "string", "example": "9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4"}
            }
        },
        "dto.GeneratePDFResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "PDF generated successfully"},
                "pdfUrl": {"type": "string", "example": "https://storage.example.com/invoices/9b2f6c1e.pdf?X-Amz-Signature=..."},
                "success": {"type": "boolean", "example": true}
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "bucket": {"type": "string", "example": "invoices"},
                "error": {"type": "string"},
                "ok": {"type": "boolean", "example": true}
            }
        },
        "dto.SendInvoiceEmailRequest": {
            "type": "object",
            "required": ["invoiceId", "recipientEmail", "subject"],
            "properties": {
                "invoiceId": {"type": "string", "example": "9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4"},
                "message": {"type": "string", "maxLength": 10000, "example": "Thanks for your business."},
                "recipientEmail": {"type": "string", "example": "ap@client.example"},
                "subject": {"type": "string", "maxLength": 255, "example": "Invoice INV-202403-0174"}
            }
        },
        "dto.ServiceStatusResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "invoice-renderer"},
                "status": {"type": "string", "example": "ok"}
            }
        },
        "dto.SuccessResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Email sent successfully"},
                "success": {"type": "boolean", "example": true}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Identity token as \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Invoice Renderer API",
	Description:      "Renders invoices to PDF, publishes them to object storage and emails them through Gmail.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
