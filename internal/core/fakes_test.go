package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"gwi.com/research-assistant/internal/loader"
)

type fakeLoader struct {
	pages map[string]string
	err   error
}

func (f *fakeLoader) Load(ctx context.Context, urls []string) ([]loader.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var docs []loader.Document
	for _, u := range urls {
		if text, ok := f.pages[u]; ok && strings.TrimSpace(text) != "" {
			docs = append(docs, loader.Document{URL: u, Text: text})
		}
	}
	return docs, nil
}

func (f *fakeLoader) Close() {}

// letterEmbedder builds a 27-dim vector of letter counts plus a bias term.
type letterEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (e *letterEmbedder) vector(text string) []float32 {
	v := make([]float32, 27)
	v[26] = 0.01
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' && unicode.IsLetter(r) {
			v[r-'a']++
		}
	}
	return v
}

func (e *letterEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("embedding service unavailable")
	}
	return e.vector(text), nil
}

func (e *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type recordingAnswerer struct {
	mu       sync.Mutex
	requests []AnswerRequest
	err      error
}

func (a *recordingAnswerer) Answer(ctx context.Context, req AnswerRequest) (*Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	if a.err != nil {
		return nil, a.err
	}
	var sources []string
	seen := map[string]bool{}
	for _, c := range req.Chunks {
		if !seen[c.Chunk.Source] {
			seen[c.Chunk.Source] = true
			sources = append(sources, c.Chunk.Source)
		}
	}
	return &Answer{Answer: "answer to " + req.Question, Sources: strings.Join(sources, ", ")}, nil
}

func (a *recordingAnswerer) last() AnswerRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[len(a.requests)-1]
}
