// Package mail sends invoice emails through a Gmail identity authorized with
// OAuth2.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultSendEndpoint is the Gmail API send method for the authorized mailbox.
	DefaultSendEndpoint = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"
	// DefaultUserinfoEndpoint returns the mailbox address of the authorized account.
	DefaultUserinfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"

	scopeGmailSend     = "https://www.googleapis.com/auth/gmail.send"
	scopeUserinfoEmail = "https://www.googleapis.com/auth/userinfo.email"
)

// GmailConfig contains configuration for the Gmail client
type GmailConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	SendEndpoint     string
	UserinfoEndpoint string
	// Endpoint overrides Google's OAuth2 endpoints.
	Endpoint   *oauth2.Endpoint
	HTTPClient *http.Client
	Logger     *zap.Logger
	Now        func() time.Time
}

// Grant is the long-lived result of a completed authorization.
type Grant struct {
	RefreshToken   string
	MailboxAddress string
}

// Gmail implements the OAuth authorization flow and message sending.
type Gmail struct {
	oauth            *oauth2.Config
	httpClient       *http.Client
	sendEndpoint     string
	userinfoEndpoint string
	logger           *zap.Logger
	now              func() time.Time
}

// NewGmail creates a new Gmail client.
func NewGmail(cfg GmailConfig) (*Gmail, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("gmail client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("gmail client secret is required")
	}

	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	g := &Gmail{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{scopeGmailSend, scopeUserinfoEmail},
			Endpoint:     endpoint,
		},
		httpClient:       cfg.HTTPClient,
		sendEndpoint:     cfg.SendEndpoint,
		userinfoEndpoint: cfg.UserinfoEndpoint,
		logger:           cfg.Logger,
		now:              cfg.Now,
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if g.sendEndpoint == "" {
		g.sendEndpoint = DefaultSendEndpoint
	}
	if g.userinfoEndpoint == "" {
		g.userinfoEndpoint = DefaultUserinfoEndpoint
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.logger = g.logger.Named("gmail")
	return g, nil
}

// AuthorizationURL returns the consent page URL. Offline access with a
// forced consent prompt makes Google issue a refresh token every time.
func (g *Gmail) AuthorizationURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades an authorization code for a refresh token and looks up
// the mailbox it belongs to.
func (g *Gmail) ExchangeCode(ctx context.Context, code string) (*Grant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		g.logger.Warn("token response carried no refresh token")
		return nil, shared.ErrNoRefreshTokenIssued
	}

	mailbox, err := g.fetchMailbox(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Grant{RefreshToken: token.RefreshToken, MailboxAddress: mailbox}, nil
}

type userinfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (g *Gmail) fetchMailbox(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoEndpoint, nil)
	if err != nil {
		return "", err
	}
	token.SetAuthHeader(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("userinfo request failed: status=%d body=%s", resp.StatusCode, body)
	}

	var info userinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return "", errors.New("userinfo response has no email")
	}
	return info.Email, nil
}

type sendRequest struct {
	Raw string `json:"raw"`
}

type sendResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Send refreshes an access token, builds the message and submits it. It
// returns the provider's message id.
func (g *Gmail) Send(ctx context.Context, refreshToken string, env Envelope) (string, error) {
	if refreshToken == "" {
		return "", shared.ErrMailNotConnected
	}

	now := g.now()
	msg, err := BuildMessage(env, BuildOptions{
		Date:      now,
		MessageID: MessageID(env.InvoiceID, env.FromEmail, now),
	})
	if err != nil {
		return "", shared.Wrap(shared.CodeValidation, "Invalid email", err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	token, err := g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			g.logger.Warn("access token refresh rejected",
				zap.String("error_code", retrieveErr.ErrorCode),
				zap.Int("status", retrieveErr.Response.StatusCode))
		}
		return "", shared.Wrap(shared.CodeMailSendFailure, "Failed to refresh Gmail access token", err)
	}

	payload, err := json.Marshal(sendRequest{Raw: EncodeRaw(msg.Bytes())})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.sendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", shared.Wrap(shared.CodeMailSendFailure, "Failed to send email", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", shared.Wrap(shared.CodeMailSendFailure, "Failed to send email", providerError(resp.StatusCode, body))
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		g.logger.Warn("unreadable send response", zap.Error(err))
	}
	g.logger.Info("email sent",
		zap.String("invoice_id", env.InvoiceID),
		zap.String("gmail_message_id", out.ID))
	return out.ID, nil
}

// EncodeRaw encodes a serialized message the way the Gmail API expects:
// base64url without padding.
func EncodeRaw(message []byte) string {
	return base64.RawURLEncoding.EncodeToString(message)
}

func providerError(status int, body []byte) error {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return fmt.Errorf("gmail api: status=%d %s: %s", status, e.Error.Status, e.Error.Message)
	}
	return fmt.Errorf("gmail api: status=%d body=%s", status, strings.TrimSpace(string(body)))
}
