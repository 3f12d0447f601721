package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultFirebaseCertsURL serves the x509 certificates that sign Firebase ID tokens.
const DefaultFirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	defaultCertsMaxAge = time.Hour
	// minRefetchInterval limits refetches triggered by unknown key ids.
	minRefetchInterval = time.Minute
	clockSkewLeeway    = 30 * time.Second
)

// FirebaseConfig contains configuration for the Firebase verifier
type FirebaseConfig struct {
	ProjectID  string
	CertsURL   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// FirebaseVerifier validates Firebase Authentication ID tokens (RS256)
// against Google's published signing certificates.
type FirebaseVerifier struct {
	projectID string
	issuer    string
	certsURL  string
	client    *http.Client
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
	group     singleflight.Group
}

// NewFirebaseVerifier creates a verifier for projectID.
func NewFirebaseVerifier(cfg FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	certsURL := cfg.CertsURL
	if certsURL == "" {
		certsURL = DefaultFirebaseCertsURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseVerifier{
		projectID: cfg.ProjectID,
		issuer:    "https://securetoken.google.com/" + cfg.ProjectID,
		certsURL:  certsURL,
		client:    client,
		logger:    logger.Named("firebase"),
		now:       time.Now,
	}, nil
}

// VerifyToken validates signature, audience, issuer, expiry and subject.
func (v *FirebaseVerifier) VerifyToken(ctx context.Context, raw string) (*Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no key id")
		}
		return v.publicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(v.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkewLeeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		v.logger.Debug("ID token rejected", zap.Error(err))
		return nil, invalidToken(err)
	}
	return principalFromClaims(claims)
}

func (v *FirebaseVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := v.now().Before(v.expiresAt)
	recent := v.now().Sub(v.fetchedAt) < minRefetchInterval
	v.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}
	if !ok && fresh && recent {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}

	if _, err, _ := v.group.Do("certs", func() (any, error) {
		return nil, v.refresh(ctx)
	}); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("unknown signing key %q", kid)
}

func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fetch signing certificates: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode signing certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			v.logger.Warn("skipping unparsable signing certificate", zap.String("kid", kid), zap.Error(err))
			continue
		}
		keys[kid] = key
	}
	if len(keys) == 0 {
		return errors.New("no usable signing certificates")
	}

	now := v.now()
	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = now
	v.expiresAt = now.Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()

	v.logger.Debug("signing certificates refreshed", zap.Int("keys", len(keys)))
	return nil
}

// maxAge reads the max-age directive of a Cache-Control header.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultCertsMaxAge
}

var _ TokenVerifier = (*FirebaseVerifier)(nil)
