// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: shared timestamp columns
//   - invoice.go: invoices, line items stored as JSON
//   - client.go: billed clients
//   - issuer.go: per-principal issuer settings and the sealed mail credential
package models
