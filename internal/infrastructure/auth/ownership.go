package auth

import (
	"fmt"
	"net/http"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AuthorizeOwnership allows access only when the principal owns the resource.
func AuthorizeOwnership(p *Principal, resource invoicing.Ownable) error {
	if p == nil || p.ID == "" {
		return shared.ErrUnauthorized
	}
	if resource == nil || resource.OwnerID() != p.ID {
		return shared.ErrForbidden
	}
	return nil
}

// NewVerifier builds the token verifier selected by cfg.Mode.
func NewVerifier(cfg config.AuthConfig, client *http.Client, logger *zap.Logger) (TokenVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeFirebase:
		return NewFirebaseVerifier(FirebaseConfig{
			ProjectID:  cfg.ProjectID,
			CertsURL:   cfg.CertsURL,
			HTTPClient: client,
			Logger:     logger,
		})
	case config.AuthModeHMAC:
		if cfg.HMACSecret == "" {
			return nil, fmt.Errorf("auth.hmac_secret is required in %s mode", cfg.Mode)
		}
		return NewHMACVerifier(cfg.HMACSecret, cfg.HMACIssuer), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
