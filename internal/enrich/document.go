package enrich

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
)

const (
	DefaultFetchTimeout  = 20 * time.Second
	DefaultBodyByteLimit = 8 * 1024 * 1024

	defaultUserAgent = "breakdown-sync/1.0"
	bodyElement      = "legis-body"

	// htmlBillBanner heads every GPO plain-text bill rendition.
	htmlBillBanner = "congressional bills"
)

// ErrNoText reports a document that was fetched but holds no bill text.
var ErrNoText = errors.New("document has no bill text")

// FetchOptions controls HTTP behavior for document retrieval.
type FetchOptions struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
	HTTPClient    *http.Client
}

// DocumentFetcher retrieves bill documents and extracts their body text.
type DocumentFetcher struct {
	opts   FetchOptions
	client *http.Client
}

func NewDocumentFetcher(opts FetchOptions) *DocumentFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.BodyByteLimit <= 0 {
		opts.BodyByteLimit = DefaultBodyByteLimit
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &DocumentFetcher{opts: opts, client: client}
}

// FetchText downloads documentURL and returns the bill text it carries.
// XML locations must answer with an XML media type and are read from their
// first legis-body. HTML text versions (.htm, .html) must carry the GPO bill
// banner and are reduced with readability. Anything else is ErrNoText, so a
// soft-404 page never becomes bill text.
func (f *DocumentFetcher) FetchText(ctx context.Context, documentURL string) (string, error) {
	if f == nil || f.client == nil {
		return "", fmt.Errorf("document fetcher is not initialized")
	}
	page := strings.TrimSpace(documentURL)
	if page == "" {
		return "", fmt.Errorf("document URL is required")
	}
	pageURL, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("parse document url: %w", err)
	}
	htmlVersion := isHTMLPath(pageURL.Path)

	fetchCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, page, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if htmlVersion {
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9")
	} else {
		req.Header.Set("Accept", "application/xml,text/xml;q=0.9")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	mediaType := responseMediaType(resp.Header.Get("Content-Type"))
	if htmlVersion {
		if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return "", fmt.Errorf("%w: content type %q at text version", ErrNoText, mediaType)
		}
	} else if !isXMLMediaType(mediaType) {
		return "", fmt.Errorf("%w: content type %q at XML document", ErrNoText, mediaType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.BodyByteLimit))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if htmlVersion {
		if !bytes.Contains(bytes.ToLower(body), []byte(htmlBillBanner)) {
			return "", fmt.Errorf("%w: text version lacks bill banner", ErrNoText)
		}
		return readableText(body, pageURL)
	}
	return ExtractBodyText(bytes.NewReader(body))
}

func isHTMLPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html")
}

func responseMediaType(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(header)
	}
	return strings.ToLower(mediaType)
}

// isXMLMediaType accepts XML media types. A missing Content-Type is left to
// the parser, which reports ErrNoText when there is no legis-body.
func isXMLMediaType(mediaType string) bool {
	switch {
	case mediaType == "":
		return true
	case mediaType == "application/xml", mediaType == "text/xml":
		return true
	case strings.HasSuffix(mediaType, "+xml") && mediaType != "application/xhtml+xml":
		return true
	}
	return false
}

// ExtractBodyText concatenates every character data token under the first
// legis-body element. Whitespace runs collapse to single spaces.
func ExtractBodyText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	depth := 0
	var b strings.Builder
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
			} else if el.Name.Local == bodyElement {
				depth = 1
			}
		case xml.EndElement:
			if depth > 0 {
				depth--
				if depth == 0 {
					return finishText(b.String())
				}
			}
		case xml.CharData:
			if depth > 0 {
				b.Write(el)
				b.WriteByte(' ')
			}
		}
	}
	if depth > 0 {
		return finishText(b.String())
	}
	return "", ErrNoText
}

func finishText(raw string) (string, error) {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func readableText(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability parse: %w", err)
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return "", fmt.Errorf("render readability text: %w", err)
	}
	return finishText(rendered.String())
}
