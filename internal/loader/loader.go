// Package loader fetches web pages and turns them into plain-text documents.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("invalid URL")

// Document is the readable text of one page.
type Document struct {
	URL   string
	Title string
	Text  string
}

// Loader fetches every URL it can. Pages that fail or have no readable text
// are left out of the result rather than reported as errors.
type Loader interface {
	Load(ctx context.Context, urls []string) ([]Document, error)
	Close()
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CleanURLs trims every URL and fails on the first one ValidateURL rejects.
func CleanURLs(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: at least one URL is required", ErrInvalidURL)
	}
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		if !ValidateURL(u) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidURL, u)
		}
		urls = append(urls, strings.TrimSpace(u))
	}
	return urls, nil
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}

func truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
