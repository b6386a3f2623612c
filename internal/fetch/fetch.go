// Package fetch retrieves recipe pages and extracts their main text so the
// LLM sees prose instead of markup.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrUnreachable is returned when the recipe URL cannot be fetched.
var ErrUnreachable = errors.New("url unreachable")

const maxFallbackText = 50000

// Browser-like headers so some sites don't return 403 for bots.
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Client fetches recipe pages over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a page fetcher with a sensible timeout.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s returned %d", ErrUnreachable, pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return string(body), nil
}

// Text fetches a URL and returns the main readable text (HTML, nav and ads
// stripped). Falls back to the raw body, truncated, if extraction comes up empty.
func (c *Client) Text(ctx context.Context, pageURL string) (string, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	extracted := extractText(body)
	if strings.TrimSpace(extracted) == "" {
		if len(body) > maxFallbackText {
			body = body[:maxFallbackText]
		}
		return body, nil
	}
	return extracted, nil
}

// ImageURL fetches a URL and returns its og:image (or twitter:image) URL,
// resolved against the page URL. Returns "" when the page has none.
func (c *Client) ImageURL(ctx context.Context, pageURL string) (string, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	raw := extractMetaImage(body)
	if raw == "" {
		return "", nil
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return raw, nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", nil
	}
	return base.ResolveReference(ref).String(), nil
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "svg": true, "iframe": true,
}

func extractText(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}

func extractMetaImage(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var prop, content string
			for _, a := range n.Attr {
				switch a.Key {
				case "property", "name":
					prop = a.Val
				case "content":
					content = a.Val
				}
			}
			if (prop == "og:image" || prop == "twitter:image") && strings.TrimSpace(content) != "" {
				found = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
