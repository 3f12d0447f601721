package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateAudience = "gmail-connect"

// ErrInvalidState is returned for a state that is forged, expired or already used.
var ErrInvalidState = errors.New("invalid oauth state")

// NonceStore records issued state nonces until they are consumed.
type NonceStore interface {
	Put(ctx context.Context, nonce, principalID string, ttl time.Duration) error
	Consume(ctx context.Context, nonce string) (string, bool, error)
}

// StateCodec issues and redeems the OAuth state parameter. The state is a
// signed token naming the principal; its nonce is single-use.
type StateCodec struct {
	secret []byte
	ttl    time.Duration
	store  NonceStore
	now    func() time.Time
}

// NewStateCodec creates a codec signing with secret.
func NewStateCodec(secret string, ttl time.Duration, store NonceStore) *StateCodec {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateCodec{secret: []byte(secret), ttl: ttl, store: store, now: time.Now}
}

// Issue returns a state value bound to principalID.
func (c *StateCodec) Issue(ctx context.Context, principalID string) (string, error) {
	if principalID == "" {
		return "", errors.New("principal id is required")
	}
	now := c.now()
	nonce := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		Subject:   principalID,
		Audience:  jwt.ClaimStrings{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	if err := c.store.Put(ctx, nonce, principalID, c.ttl); err != nil {
		return "", err
	}
	return state, nil
}

// Consume verifies state and returns the principal it was issued to. A state
// can be consumed once.
func (c *StateCodec) Consume(ctx context.Context, state string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return "", ErrInvalidState
	}

	principalID, ok, err := c.store.Consume(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if !ok || principalID != claims.Subject {
		return "", ErrInvalidState
	}
	return principalID, nil
}
