// Package fetcher downloads the price workbook.
//
// The index page is read over HTTP (or rendered in headless Chrome when the
// browser option is set), its anchors are scanned in document order, and
// the first href ending in .xls or .xlsx is resolved against the page URL
// and downloaded into the work directory under its basename.
//
// Requests go through a token bucket limiter and carry the configured
// User-Agent. Nothing is retried: a failed download returns a
// *DownloadError and a page without a workbook link returns
// errors.ErrSpreadsheetLinkNotFound.
package fetcher
