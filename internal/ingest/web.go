package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	// DefaultUserAgent identifies the fetcher to job boards.
	DefaultUserAgent = "ats-matcher/1.0"
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 5 << 20
)

// Fetcher downloads job postings and reduces them to plain text.
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

func NewFetcher(logger *zap.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  DefaultUserAgent,
		logger:     logger,
	}
}

// FromURL fetches the page and returns its visible text. Any transport failure
// or a status outside 2xx yields a *FetchError.
func (f *Fetcher) FromURL(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", parsed.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	req = f.setHeaders(req)

	f.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	text := StripHTML(string(body))

	f.logger.Debug("fetched job posting",
		zap.String("url", rawURL),
		zap.Int("body_bytes", len(body)),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}

func (f *Fetcher) setHeaders(req *http.Request) *http.Request {
	userAgent := f.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	return req
}

// StripHTML reduces an HTML page to its text. Script and style contents are
// dropped, every tag acts as a word separator and whitespace runs collapse to
// a single space. Entities are decoded by the parser.
func StripHTML(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.Join(strings.Fields(body), " ")
	}

	// noscript bodies are parsed as raw text and would leak markup
	doc.Find("script, style, noscript").Remove()

	var builder strings.Builder
	for _, node := range doc.Nodes {
		writeText(&builder, node)
	}

	return strings.Join(strings.Fields(builder.String()), " ")
}

func writeText(builder *strings.Builder, node *html.Node) {
	if node.Type == html.TextNode {
		builder.WriteString(node.Data)
		builder.WriteString(" ")
		return
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(builder, child)
	}
}
