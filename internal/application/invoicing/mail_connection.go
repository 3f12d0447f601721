package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// MailConnectionService connects and disconnects a principal's Gmail mailbox.
type MailConnectionService struct {
	provider MailAuthorizer
	states   StateIssuer
	sealer   TokenSealer
	profiles invoicing.IssuerProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewMailConnectionService creates a new MailConnectionService
func NewMailConnectionService(
	provider MailAuthorizer,
	states StateIssuer,
	sealer TokenSealer,
	profiles invoicing.IssuerProfileRepository,
	logger *zap.Logger,
) *MailConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailConnectionService{
		provider: provider,
		states:   states,
		sealer:   sealer,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *MailConnectionService) WithClock(now func() time.Time) *MailConnectionService {
	s.now = now
	return s
}

// AuthorizationURL returns the consent URL for principalID. The embedded state
// is single-use and names the principal.
func (s *MailConnectionService) AuthorizationURL(ctx context.Context, principalID string) (string, error) {
	if principalID == "" {
		return "", shared.ErrUnauthorized
	}
	state, err := s.states.Issue(ctx, principalID)
	if err != nil {
		return "", shared.Wrap(shared.CodeInternal, "failed to issue authorization state", err)
	}
	return s.provider.AuthorizationURL(state), nil
}

// CompleteAuthorization redeems the callback code and stores the sealed
// refresh token on the principal's profile. When the provider issues no
// refresh token the profile is left untouched.
func (s *MailConnectionService) CompleteAuthorization(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", shared.NewDomainError(shared.CodeValidation, "code and state are required")
	}

	principalID, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", shared.Wrap(shared.CodeValidation, "invalid authorization state", err)
	}

	log := logger.Enrich(ctx, s.logger).With(zap.String("principal_id", principalID))

	grant, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNoRefreshTokenIssued) {
			log.Warn("authorization returned no refresh token")
		}
		return principalID, err
	}

	sealed, err := s.sealer.Seal(grant.RefreshToken, principalID)
	if err != nil {
		return principalID, shared.Wrap(shared.CodeInternal, "failed to seal mail credential", err)
	}

	if err := s.profiles.ConnectMail(ctx, principalID, grant.MailboxAddress, sealed, s.now().UTC()); err != nil {
		return principalID, err
	}

	log.Info("gmail connected", zap.String("mailbox", grant.MailboxAddress))
	return principalID, nil
}

// Disconnect forgets the principal's mail credential.
func (s *MailConnectionService) Disconnect(ctx context.Context, principalID string) error {
	if principalID == "" {
		return shared.ErrUnauthorized
	}
	if err := s.profiles.DisconnectMail(ctx, principalID, s.now().UTC()); err != nil {
		return err
	}
	logger.Enrich(ctx, s.logger).Info("gmail disconnected", zap.String("principal_id", principalID))
	return nil
}
