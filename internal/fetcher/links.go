package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apperrors "natgascli/internal/errors"
)

// spreadsheetSuffixes are the href endings that identify the workbook link
var spreadsheetSuffixes = []string{".xls", ".xlsx"}

// LinkSource lists the href values of every anchor on a page, in document order
type LinkSource interface {
	Links(ctx context.Context, pageURL string) ([]string, error)
}

// IsSpreadsheetHref reports whether href ends in a workbook extension.
// The match is on the raw attribute value and is case-sensitive.
func IsSpreadsheetHref(href string) bool {
	for _, suffix := range spreadsheetSuffixes {
		if strings.HasSuffix(href, suffix) {
			return true
		}
	}
	return false
}

// SelectSpreadsheetLink picks the first spreadsheet href and resolves it
// against base. Later matches are ignored, even when the first one is not a
// valid URL; that case is reported as a DownloadError.
func SelectSpreadsheetLink(base *url.URL, hrefs []string) (string, error) {
	for _, href := range hrefs {
		if !IsSpreadsheetHref(href) {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return "", &DownloadError{URL: href, Cause: err}
		}
		return base.ResolveReference(ref).String(), nil
	}
	return "", apperrors.ErrSpreadsheetLinkNotFound
}

// ExtractSpreadsheetLink scans an HTML document for the spreadsheet link
func ExtractSpreadsheetLink(base *url.URL, r io.Reader) (string, error) {
	hrefs, err := extractHrefs(r)
	if err != nil {
		return "", apperrors.NewParsingError("failed to parse index page", err)
	}
	return SelectSpreadsheetLink(base, hrefs)
}

// extractHrefs returns the href of every anchor; anchors without one
// contribute an empty string
func extractHrefs(r io.Reader) ([]string, error) {
	var hrefs []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return hrefs, nil
			}
			return hrefs, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.A {
				continue
			}
			href := ""
			for _, attr := range tok.Attr {
				if attr.Key == "href" {
					href = attr.Val
					break
				}
			}
			hrefs = append(hrefs, href)
		}
	}
}

// httpLinkSource fetches the page over plain HTTP
type httpLinkSource struct {
	f *Fetcher
}

func (s *httpLinkSource) Links(ctx context.Context, pageURL string) ([]string, error) {
	resp, err := s.f.get(ctx, pageURL)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to fetch index page", err).
			WithContext("url", pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("index page returned status %d", resp.StatusCode), nil).
			WithContext("url", pageURL)
	}

	hrefs, err := extractHrefs(resp.Body)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse index page", err).
			WithContext("url", pageURL)
	}
	return hrefs, nil
}
