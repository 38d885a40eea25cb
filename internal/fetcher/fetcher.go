package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	apperrors "natgascli/internal/errors"
	"natgascli/internal/files"
	"natgascli/internal/validation"
)

// Options configures the HTTP side of the fetcher
type Options struct {
	UserAgent string
	// Timeout bounds each request; zero means no timeout
	Timeout   time.Duration
	RateLimit float64 // requests per second, zero disables limiting
	Burst     int
	// Browser renders the index page in headless Chrome
	Browser bool
	// Client overrides the HTTP client; Timeout is ignored when set
	Client *http.Client
}

// DownloadResult describes a successfully saved spreadsheet
type DownloadResult struct {
	URL   string
	Path  string
	Name  string
	Bytes int64
}

// DownloadError is returned when the spreadsheet request fails, either in
// transport or with a non-success status. No retry is attempted.
type DownloadError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	}
	return fmt.Sprintf("%v", e.Cause)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

// Fetcher locates the spreadsheet link on the index page and downloads it
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	links     LinkSource
	files     *files.Manager
	validator *validation.FileValidator
	logger    *slog.Logger
}

// New creates a fetcher that saves files through fm
func New(opts Options, fm *files.Manager, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	f := &Fetcher{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: opts.UserAgent,
		files:     fm,
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}

	if opts.Browser {
		f.links = NewBrowserLinkSource(opts.UserAgent, logger)
	} else {
		f.links = &httpLinkSource{f: f}
	}
	return f
}

// WithLinkSource replaces the index page reader
func (f *Fetcher) WithLinkSource(src LinkSource) *Fetcher {
	f.links = src
	return f
}

// FindSpreadsheetLink returns the absolute URL of the first .xls/.xlsx
// anchor on the page, or ErrSpreadsheetLinkNotFound
func (f *Fetcher) FindSpreadsheetLink(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", apperrors.NewConfigError("invalid index url", err).
			WithContext("url", pageURL)
	}

	hrefs, err := f.links.Links(ctx, pageURL)
	if err != nil {
		return "", err
	}

	link, err := SelectSpreadsheetLink(base, hrefs)
	var downloadErr *DownloadError
	switch {
	case errors.As(err, &downloadErr):
		f.logger.WarnContext(ctx, "Spreadsheet link is not a valid URL",
			slog.String("url", pageURL),
			slog.String("href", downloadErr.URL),
			slog.String("error", downloadErr.Cause.Error()))
		return "", err
	case err != nil:
		f.logger.WarnContext(ctx, "No spreadsheet link on index page",
			slog.String("url", pageURL),
			slog.Int("anchors", len(hrefs)))
		return "", err
	}

	f.logger.InfoContext(ctx, "Spreadsheet link found",
		slog.String("url", link))
	return link, nil
}

// Download saves fileURL into destDir under its basename, replacing any
// existing file. Request failures come back as *DownloadError.
func (f *Fetcher) Download(ctx context.Context, fileURL, destDir string) (*DownloadResult, error) {
	name, err := fileName(fileURL)
	if err != nil {
		return nil, &DownloadError{URL: fileURL, Cause: err}
	}

	resp, err := f.get(ctx, fileURL)
	if err != nil {
		return nil, &DownloadError{URL: fileURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{
			URL:        fileURL,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	dest := filepath.Join(destDir, name)
	n, err := f.files.WriteStream(dest, resp.Body)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to save spreadsheet", err).
			WithContext("path", dest)
	}

	result := &DownloadResult{
		URL:   fileURL,
		Path:  f.files.CleanPath(dest),
		Name:  name,
		Bytes: n,
	}

	f.logger.InfoContext(ctx, "File downloaded successfully",
		slog.String("file", name),
		slog.String("path", result.Path),
		slog.Int64("size_bytes", n))

	if err := f.validator.ValidateExcelFile(result.Path); err != nil {
		f.logger.WarnContext(ctx, "Downloaded file may not be a workbook",
			slog.String("path", result.Path),
			slog.String("error", err.Error()))
	}

	return result, nil
}

// Run finds the spreadsheet link and downloads it
func (f *Fetcher) Run(ctx context.Context, pageURL, destDir string) (*DownloadResult, error) {
	link, err := f.FindSpreadsheetLink(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, link, destDir)
}

// get issues a rate limited GET
func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	return f.client.Do(req)
}

// fileName is the last path segment of the URL
func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("no file name in %s", rawURL)
	}
	return name, nil
}
