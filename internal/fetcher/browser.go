package fetcher

import (
	"context"
	"log/slog"

	"github.com/chromedp/chromedp"

	apperrors "natgascli/internal/errors"
)

// anchorsJS returns the raw href attribute of every anchor, in document order
const anchorsJS = `Array.from(document.querySelectorAll('a')).map(a => a.getAttribute('href') || '')`

// BrowserLinkSource renders the page in headless Chrome before reading its
// anchors, for index pages whose links are built by script.
type BrowserLinkSource struct {
	UserAgent string
	Headless  bool
	logger    *slog.Logger
}

// NewBrowserLinkSource creates a headless browser link source
func NewBrowserLinkSource(userAgent string, logger *slog.Logger) *BrowserLinkSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserLinkSource{
		UserAgent: userAgent,
		Headless:  true,
		logger:    logger,
	}
}

// Links navigates to pageURL and collects the anchors once the body is ready
func (b *BrowserLinkSource) Links(ctx context.Context, pageURL string) ([]string, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", b.Headless))
	if b.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var hrefs []string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(anchorsJS, &hrefs),
	)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to render index page", err).
			WithContext("url", pageURL)
	}

	b.logger.DebugContext(ctx, "Index page rendered",
		slog.String("url", pageURL),
		slog.Int("anchors", len(hrefs)))
	return hrefs, nil
}
