// Package invoicing orchestrates the invoice document pipeline: rendering,
// publishing to the object store, and delivery by email.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultSignedURLTTL is the lifetime requested for published document URLs.
	DefaultSignedURLTTL = 30 * 24 * time.Hour

	defaultLockTTL      = 2 * time.Minute
	defaultLockWait     = 45 * time.Second
	lockPollInterval    = 200 * time.Millisecond
	pdfContentType      = "application/pdf"
	documentCacheHeader = "private, max-age=0"
)

// PublishResult is the outcome of a successful render and publish.
type PublishResult struct {
	URL         string
	GeneratedAt time.Time
}

// SendRequest describes an invoice email.
type SendRequest struct {
	InvoiceID string
	Recipient string
	Subject   string
	Message   string
}

// PublishOptions tunes the pipeline. Zero values select the defaults.
type PublishOptions struct {
	SignedURLTTL time.Duration
	LockTTL      time.Duration
	LockWait     time.Duration
}

// PublishDeps are the collaborators of PublishService. Locker, Metrics,
// Logger and Now are optional.
type PublishDeps struct {
	Invoices   invoicing.InvoiceRepository
	Clients    invoicing.ClientRepository
	Profiles   invoicing.IssuerProfileRepository
	Renderer   MarkupRenderer
	Rasterizer Rasterizer
	Store      ObjectStore
	Mailer     MailSender
	Sealer     TokenSealer
	Locker     Locker
	Metrics    *telemetry.PipelineMetrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// PublishService turns invoices into stored PDFs and emails them.
type PublishService struct {
	invoices   invoicing.InvoiceRepository
	clients    invoicing.ClientRepository
	profiles   invoicing.IssuerProfileRepository
	renderer   MarkupRenderer
	rasterizer Rasterizer
	store      ObjectStore
	mailer     MailSender
	sealer     TokenSealer
	locker     Locker
	metrics    *telemetry.PipelineMetrics
	logger     *zap.Logger
	now        func() time.Time
	opts       PublishOptions
}

// NewPublishService creates a new PublishService
func NewPublishService(deps PublishDeps, opts PublishOptions) *PublishService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = DefaultSignedURLTTL
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	return &PublishService{
		invoices:   deps.Invoices,
		clients:    deps.Clients,
		profiles:   deps.Profiles,
		renderer:   deps.Renderer,
		rasterizer: deps.Rasterizer,
		store:      deps.Store,
		mailer:     deps.Mailer,
		sealer:     deps.Sealer,
		locker:     deps.Locker,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Now,
		opts:       opts,
	}
}

// =============================================================================
// Render and publish
// =============================================================================

// RenderAndPublish renders the invoice to PDF, stores it under its fixed key
// and records the signed URL on the invoice. Invoice status is not changed.
func (s *PublishService) RenderAndPublish(ctx context.Context, principalID, invoiceID string) (result *PublishResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "invoice.render_and_publish",
		attribute.String("invoice.id", invoiceID))
	started := s.now()
	defer func() {
		if err != nil {
			s.metrics.RecordRender(ctx, s.now().Sub(started), shared.CodeOf(err))
		} else {
			s.metrics.RecordRender(ctx, s.now().Sub(started), "")
		}
		telemetry.EndSpan(span, err)
	}()

	log := logger.Enrich(ctx, s.logger).With(zap.String("invoice_id", invoiceID))

	invoice, err := s.authorizedInvoice(ctx, principalID, invoiceID)
	if err != nil {
		return nil, err
	}

	unlock := s.acquireRenderLock(ctx, invoiceID, log)
	defer unlock()

	view := printing.InvoiceView{
		Invoice: invoice,
		Client:  s.lookupClient(ctx, invoice, log),
		Issuer:  s.lookupIssuer(ctx, principalID, log),
	}

	markup, err := s.renderer.Render(view)
	if err != nil {
		return nil, shared.Wrap(shared.CodeInternal, "failed to render invoice markup", err)
	}

	var pdf []byte
	telemetry.WithOperation(ctx, "rasterize", func(ctx context.Context) {
		var rendered *printing.RenderResult
		rendered, err = s.rasterizer.Rasterize(ctx, markup)
		if err == nil {
			pdf = rendered.PDF
		}
	})
	if err != nil {
		log.Error("rasterization failed", zap.Error(err))
		return nil, err
	}

	generatedAt := s.now().UTC()
	key := invoicing.StorageKey(invoice.ID)
	meta := ObjectMetadata{
		ContentType:  pdfContentType,
		CacheControl: documentCacheHeader,
		Attributes: map[string]string{
			"invoiceid":   invoice.ID,
			"generatedat": generatedAt.Format(time.RFC3339),
		},
	}
	if err := s.store.Put(ctx, key, pdf, meta); err != nil {
		log.Error("failed to store invoice document", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	url, err := s.store.SignedReadURL(ctx, key, s.opts.SignedURLTTL)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.MarkPublished(ctx, invoice.ID, url, generatedAt); err != nil {
		return nil, fmt.Errorf("failed to record published document: %w", err)
	}

	log.Info("invoice document published",
		zap.String("key", key),
		zap.Int("bytes", len(pdf)))
	return &PublishResult{URL: url, GeneratedAt: generatedAt}, nil
}

// authorizedInvoice loads the invoice and checks that principalID owns it.
func (s *PublishService) authorizedInvoice(ctx context.Context, principalID, invoiceID string) (*invoicing.Invoice, error) {
	if invoiceID == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "invoiceId is required")
	}
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwnership(&auth.Principal{ID: principalID}, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// acquireRenderLock serializes renders of one invoice. If the lock cannot be
// taken within LockWait the render proceeds anyway.
func (s *PublishService) acquireRenderLock(ctx context.Context, invoiceID string, log *zap.Logger) func() {
	noop := func() {}
	if s.locker == nil {
		return noop
	}

	key := "render:" + invoiceID
	deadline := time.NewTimer(s.opts.LockWait)
	defer deadline.Stop()
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		unlock, err := s.locker.TryLock(ctx, key, s.opts.LockTTL)
		if err != nil {
			log.Warn("render lock unavailable, continuing unlocked", zap.Error(err))
			return noop
		}
		if unlock != nil {
			return unlock
		}
		select {
		case <-ctx.Done():
			return noop
		case <-deadline.C:
			log.Warn("render lock wait exceeded, continuing unlocked",
				zap.Duration("waited", s.opts.LockWait))
			return noop
		case <-ticker.C:
		}
	}
}

func (s *PublishService) lookupClient(ctx context.Context, invoice *invoicing.Invoice, log *zap.Logger) *invoicing.Client {
	if invoice.ClientID == "" || s.clients == nil {
		return nil
	}
	client, err := s.clients.FindByID(ctx, invoice.ClientID)
	if err != nil {
		log.Warn("client lookup failed, rendering without client",
			zap.String("client_id", invoice.ClientID), zap.Error(err))
		return nil
	}
	return client
}

func (s *PublishService) lookupIssuer(ctx context.Context, principalID string, log *zap.Logger) *invoicing.IssuerProfile {
	if s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.FindByPrincipal(ctx, principalID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			log.Warn("issuer profile lookup failed, rendering without issuer", zap.Error(err))
		}
		return nil
	}
	return profile
}

// =============================================================================
// Email delivery
// =============================================================================

// SendByEmail mails the stored PDF of an invoice from the principal's
// connected mailbox. Nothing is sent unless a document has been published.
func (s *PublishService) SendByEmail(ctx context.Context, principalID string, req SendRequest) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "invoice.send_by_email",
		attribute.String("invoice.id", req.InvoiceID))
	defer func() {
		if err != nil {
			s.metrics.RecordEmail(ctx, shared.CodeOf(err))
		} else {
			s.metrics.RecordEmail(ctx, "")
		}
		telemetry.EndSpan(span, err)
	}()

	if req.Recipient == "" || req.Subject == "" {
		return shared.NewDomainError(shared.CodeValidation, "recipient and subject are required")
	}

	log := logger.Enrich(ctx, s.logger).With(zap.String("invoice_id", req.InvoiceID))

	invoice, err := s.authorizedInvoice(ctx, principalID, req.InvoiceID)
	if err != nil {
		return err
	}

	profile, err := s.profiles.FindByPrincipal(ctx, principalID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if profile.MailState() != invoicing.MailConnected {
		return shared.ErrMailNotConnected
	}

	if !invoice.HasDocument() {
		return shared.ErrAttachmentMissing
	}

	pdf, err := s.store.Get(ctx, invoicing.StorageKey(invoice.ID))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return shared.Wrap(shared.CodeAttachmentMissing, "stored PDF not found", err)
		}
		return err
	}

	refreshToken, err := s.sealer.Open(profile.GmailRefreshToken, principalID)
	if err != nil {
		log.Error("stored mail credential cannot be opened", zap.Error(err))
		return shared.Wrap(shared.CodeMailNotConnected, "stored mail credential is unusable; reconnect Gmail", err)
	}

	body := req.Message
	if body == "" {
		body = fmt.Sprintf("Please find attached invoice %s.", invoice.Number)
	}
	env := mail.Envelope{
		InvoiceID: invoice.ID,
		FromName:  profile.SenderName(),
		FromEmail: profile.GmailEmail,
		ReplyTo:   profile.ReplyTo(),
		To:        req.Recipient,
		Subject:   req.Subject,
		BodyText:  body,
		Attached: mail.Attachment{
			Filename:    invoicing.AttachmentName(invoice.Number),
			ContentType: pdfContentType,
			Data:        pdf,
		},
	}

	messageID, err := s.mailer.Send(ctx, refreshToken, env)
	if err != nil {
		log.Error("invoice email failed", zap.Error(err))
		return err
	}

	if err := s.invoices.MarkEmailed(ctx, invoice.ID, req.Recipient, s.now().UTC()); err != nil {
		// The message is already out; report the bookkeeping failure.
		return fmt.Errorf("email sent but not recorded: %w", err)
	}

	log.Info("invoice emailed", zap.String("message_id", messageID))
	return nil
}
