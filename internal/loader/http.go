package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
)

const maxBodyBytes = 20 << 20

// HTTP fetches pages without rendering JavaScript. HTML goes through
// readability; PDF responses are converted with the pdf reader.
type HTTP struct {
	client   *http.Client
	MaxChars int
}

func NewHTTP(timeout time.Duration, maxChars int) *HTTP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTP{
		client:   &http.Client{Timeout: timeout},
		MaxChars: maxChars,
	}
}

func (h *HTTP) Close() {}

func (h *HTTP) Load(ctx context.Context, urls []string) ([]Document, error) {
	docs := make([]Document, 0, len(urls))
	for _, link := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := h.loadOne(ctx, link)
		if err != nil {
			log.Printf("Skipping %s: %v", link, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (h *HTTP) loadOne(ctx context.Context, link string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Document{}, fmt.Errorf("bad request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Document{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Document{}, fmt.Errorf("read body: %w", err)
	}

	var title, text string
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/pdf" || bytes.HasPrefix(body, []byte("%PDF-")):
		text, err = pdfText(body)
		if err != nil {
			return Document{}, err
		}
	case mediaType == "text/plain":
		text = string(body)
	default:
		article, err := readability.FromReader(bytes.NewReader(body), mustParseURL(link))
		if err != nil {
			return Document{}, fmt.Errorf("readability failed: %w", err)
		}
		title = article.Title
		text = article.TextContent
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, fmt.Errorf("no readable text")
	}
	return Document{
		URL:   link,
		Title: strings.TrimSpace(title),
		Text:  truncate(text, h.MaxChars),
	}, nil
}

func pdfText(body []byte) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}
