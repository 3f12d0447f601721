package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Principal is the authenticated caller.
type Principal struct {
	ID    string
	Email string
}

// Claims represents the ID token claims this service reads
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// TokenVerifier validates a bearer token and returns the principal it names.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*Principal, error)
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", shared.ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", shared.ErrUnauthorized
	}
	return token, nil
}

// Verify authenticates an Authorization header. A missing or malformed header
// fails with Unauthorized; a token that does not verify fails with InvalidToken.
func Verify(ctx context.Context, v TokenVerifier, header string) (*Principal, error) {
	token, err := ParseBearer(header)
	if err != nil {
		return nil, err
	}
	return v.VerifyToken(ctx, token)
}

func invalidToken(cause error) error {
	return shared.Wrap(shared.CodeInvalidToken, "Invalid token", cause)
}

func principalFromClaims(claims *Claims) (*Principal, error) {
	if claims.Subject == "" || len(claims.Subject) > 128 {
		return nil, invalidToken(errors.New("subject claim is missing or too long"))
	}
	return &Principal{ID: claims.Subject, Email: claims.Email}, nil
}

// HMACVerifier verifies HS256 tokens signed with a shared secret. It is used
// for local development and tests.
type HMACVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewHMACVerifier creates a new HMAC verifier
func NewHMACVerifier(secret, issuer string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for subject valid for ttl.
func (v *HMACVerifier) Issue(subject, email string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    v.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// VerifyToken validates an HS256 token
func (v *HMACVerifier) VerifyToken(_ context.Context, raw string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, invalidToken(err)
	}
	return principalFromClaims(claims)
}

var _ TokenVerifier = (*HMACVerifier)(nil)
