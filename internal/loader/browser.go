package loader

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
)

const browserUserAgent = "ResearchAssistant/1.0 (+https://gwi.com)"

// Browser renders pages in a long-lived headless Chrome and extracts the
// main content with readability. Each URL gets its own tab.
type Browser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelBr    context.CancelFunc

	Timeout  time.Duration
	MaxChars int
}

func NewBrowser(timeout time.Duration, maxChars int) (*Browser, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(browserUserAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	bctx, cancelBr := chromedp.NewContext(actx)

	// Start the browser now so the first request does not pay for it.
	if err := chromedp.Run(bctx); err != nil {
		cancelBr()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start headless browser: %w", err)
	}

	return &Browser{
		allocCtx:    actx,
		cancelAlloc: cancelAlloc,
		browserCtx:  bctx,
		cancelBr:    cancelBr,
		Timeout:     timeout,
		MaxChars:    maxChars,
	}, nil
}

func (b *Browser) Close() {
	if b.cancelBr != nil {
		b.cancelBr()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
	log.Println("Headless browser closed.")
}

func (b *Browser) Load(ctx context.Context, urls []string) ([]Document, error) {
	docs := make([]Document, 0, len(urls))
	for _, link := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := b.loadOne(ctx, link)
		if err != nil {
			log.Printf("Skipping %s: %v", link, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (b *Browser) loadOne(ctx context.Context, link string) (Document, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, b.Timeout)
	defer cancel()
	// Tabs hang off the browser context, so tie them to the caller by hand.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(link),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return Document{}, fmt.Errorf("render failed: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(link))
	if err != nil {
		return Document{}, fmt.Errorf("readability failed: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Document{}, fmt.Errorf("no readable text")
	}
	return Document{
		URL:   link,
		Title: strings.TrimSpace(article.Title),
		Text:  truncate(text, b.MaxChars),
	}, nil
}
