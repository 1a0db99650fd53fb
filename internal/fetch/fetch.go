package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const (
	ExtractorHTML        = "html"
	ExtractorReadability = "readability"

	defaultMaxChars  = 2000
	defaultUserAgent = "perspost/1.0 (post generator)"
	maxBodyBytes     = 5 << 20
)

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
	Extractor string
	Logger    *zap.Logger
}

// Fetcher retrieves a web page and reduces it to plain text.
type Fetcher struct {
	client    *http.Client
	maxChars  int
	userAgent string
	extractor string
	logger    *zap.Logger
}

// New creates a new content fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = defaultMaxChars
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Extractor == "" {
		opts.Extractor = ExtractorHTML
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxChars:  opts.MaxChars,
		userAgent: opts.UserAgent,
		extractor: opts.Extractor,
		logger:    opts.Logger,
	}
}

// Extract fetches articleURL and returns its plain text, truncated to the
// configured character cap. Any failure yields an empty string.
func (f *Fetcher) Extract(ctx context.Context, articleURL string) string {
	text, err := f.extract(ctx, articleURL)
	if err != nil {
		f.logger.Warn("content extraction failed", zap.String("url", articleURL), zap.Error(err))
		return ""
	}
	return text
}

func (f *Fetcher) extract(ctx context.Context, articleURL string) (string, error) {
	parsedURL, err := url.Parse(articleURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", parsedURL.Scheme)
	}

	body, err := f.fetchBody(ctx, articleURL)
	if err != nil {
		return "", err
	}

	var text string
	if f.extractor == ExtractorReadability {
		text = readableText(body, parsedURL)
		if text == "" {
			f.logger.Debug("readability found no article, falling back to html", zap.String("url", articleURL))
		}
	}
	if text == "" {
		text, err = PlainText(bytes.NewReader(body))
		if err != nil {
			return "", err
		}
	}

	return Truncate(text, f.maxChars), nil
}

func (f *Fetcher) fetchBody(ctx context.Context, articleURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// PlainText strips script and style elements from an HTML document and
// collapses the remaining text to one non-blank chunk per line.
func PlainText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("script, style").Remove()
	return collapse(doc.Text()), nil
}

func readableText(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	return collapse(article.TextContent)
}

// collapse trims every line, splits lines on runs of two spaces so that
// multi-headline lines become one chunk each, and drops blank chunks.
func collapse(text string) string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				chunks = append(chunks, phrase)
			}
		}
	}
	return strings.Join(chunks, "\n")
}

// Truncate returns the first n characters of text.
func Truncate(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
