package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxFetchSize = 5 << 20 // 5MB
	fetchTimeout = 15 * time.Second
)

// FetchHTML downloads a terms-of-service page and extracts its visible
// text as a single-page Document. Script and style content is dropped.
// HTML sources carry no page structure, so everything lands on page 1.
func FetchHTML(ctx context.Context, client *http.Client, url string) (Document, error) {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Document{}, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	text, err := extractText(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return Document{}, fmt.Errorf("parsing html from %s: %w", url, err)
	}

	return Document{
		Source: url,
		Pages:  []Page{{Number: 1, Text: text}},
	}, nil
}

// extractText walks the HTML tree collecting text nodes, skipping
// script/style/noscript subtrees.
func extractText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return sb.String(), nil
}
