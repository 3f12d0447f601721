package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/invoicer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultMarginPx      = 20.0
)

// settleScript resolves once the document has finished loading, web fonts
// are ready, every image has loaded or failed, and no new network resource
// has completed for 500ms.
const settleScript = `(async () => {
  await new Promise(resolve => {
    const check = () => document.readyState === "complete" ? resolve() : setTimeout(check, 25);
    check();
  });
  if (document.fonts) { await document.fonts.ready; }
  await Promise.all(Array.from(document.images)
    .filter(img => !img.complete)
    .map(img => new Promise(resolve => { img.onload = img.onerror = resolve; })));
  let seen = -1;
  for (;;) {
    const n = performance.getEntriesByType("resource").length;
    if (n === seen) { break; }
    seen = n;
    await new Promise(resolve => setTimeout(resolve, 500));
  }
  return true;
})()`

// ChromedpConfig contains configuration for the chromedp rasterizer
type ChromedpConfig struct {
	// Timeout bounds a whole render: launch, load, settle and print.
	Timeout time.Duration
	// RemoteURL is the websocket URL of a running Chrome. When empty a local
	// browser is launched for every render.
	RemoteURL string
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	// MarginPx is the uniform page margin in CSS pixels.
	MarginPx float64
	// MaxConcurrent caps simultaneous renders; 0 means unlimited.
	MaxConcurrent int
	Logger        *zap.Logger
}

// ChromedpRasterizer renders HTML to PDF using the Chrome DevTools Protocol.
// Every call gets its own top-level browser context, which chromedp backs
// with a dedicated browser process (or a fresh target on a remote browser).
type ChromedpRasterizer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	slots       chan struct{}
}

// NewChromedpRasterizer creates a new chromedp-based rasterizer
func NewChromedpRasterizer(config ChromedpConfig) *ChromedpRasterizer {
	if config.Timeout == 0 {
		config.Timeout = defaultChromeTimeout
	}
	if config.MarginPx == 0 {
		config.MarginPx = defaultMarginPx
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{
		config: config,
		logger: logger.Named("chromedp"),
	}
	if config.MaxConcurrent > 0 {
		r.slots = make(chan struct{}, config.MaxConcurrent)
	}
	r.allocCtx, r.allocCancel = r.newAllocator()
	return r
}

func (r *ChromedpRasterizer) newAllocator() (context.Context, context.CancelFunc) {
	if r.config.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.config.ExecPath))
	}
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

// Rasterize converts HTML content to an A4 PDF
func (r *ChromedpRasterizer) Rasterize(ctx context.Context, markup []byte) (*RenderResult, error) {
	if len(markup) == 0 {
		return nil, shared.NewDomainError(shared.CodeRenderProcessFailure, "markup is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	release, err := r.acquire(ctx)
	if err != nil {
		return nil, r.classify(ctx, err)
	}
	defer release()

	start := time.Now()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	// Cancelling the top-level context closes the browser it launched.
	defer browserCancel()

	// Tie the browser context to the caller's deadline.
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	crashed := make(chan struct{}, 1)
	chromedp.ListenTarget(browserCtx, func(ev any) {
		if _, ok := ev.(*inspector.EventTargetCrashed); ok {
			select {
			case crashed <- struct{}{}:
			default:
			}
			browserCancel()
		}
	})

	params := r.printParams()
	var (
		settled bool
		pdf     []byte
	)
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(markup)).Do(ctx)
		}),
		chromedp.Evaluate(settleScript, &settled, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)

	select {
	case <-crashed:
		return nil, shared.Wrap(shared.CodeRenderProcessFailure, "browser tab crashed", err)
	default:
	}
	if err != nil {
		return nil, r.classify(ctx, err)
	}
	if len(pdf) == 0 {
		return nil, shared.NewDomainError(shared.CodeRenderProcessFailure, "generated PDF is empty")
	}

	duration := time.Since(start)
	r.logger.Debug("PDF rasterized",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", duration))

	return &RenderResult{PDF: pdf, RenderDuration: duration}, nil
}

// printParams builds the A4 print command with uniform margins and
// background graphics.
func (r *ChromedpRasterizer) printParams() *page.PrintToPDFParams {
	margin := pxToInches(r.config.MarginPx)
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(A4WidthInches).
		WithPaperHeight(A4HeightInches).
		WithMarginTop(margin).
		WithMarginRight(margin).
		WithMarginBottom(margin).
		WithMarginLeft(margin).
		WithPreferCSSPageSize(false)
}

func (r *ChromedpRasterizer) acquire(ctx context.Context) (func(), error) {
	if r.slots == nil {
		return func() {}, nil
	}
	select {
	case r.slots <- struct{}{}:
		return func() { <-r.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// classify maps a chromedp failure onto the render error taxonomy.
func (r *ChromedpRasterizer) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return shared.Wrap(shared.CodeRenderTimeout,
			fmt.Sprintf("PDF rendering timed out after %v", r.config.Timeout), err)
	}
	r.logger.Error("chromedp rendering failed", zap.Error(err))
	return shared.Wrap(shared.CodeRenderProcessFailure, "chromedp execution failed", err)
}

// Close releases the allocator. A remote browser is left running.
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

var _ Rasterizer = (*ChromedpRasterizer)(nil)
