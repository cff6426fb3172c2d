package core

import (
	"strings"
	"testing"

	"gwi.com/research-assistant/internal/store"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantAnswer  string
		wantSources string
	}{
		{
			name:        "plain marker",
			reply:       "Goroutines are cheap.\nSOURCES: https://a.example, https://b.example",
			wantAnswer:  "Goroutines are cheap.",
			wantSources: "https://a.example, https://b.example",
		},
		{
			name:        "markdown marker",
			reply:       "Channels pass values.\n\n**SOURCES:** https://a.example",
			wantAnswer:  "Channels pass values.",
			wantSources: "https://a.example",
		},
		{
			name:        "final answer prefix and lower case",
			reply:       "FINAL ANSWER: It depends.\nsources: https://c.example",
			wantAnswer:  "It depends.",
			wantSources: "https://c.example",
		},
		{
			name:        "last marker wins",
			reply:       "Sources: are discussed here.\nMore detail.\nSOURCES: https://d.example",
			wantAnswer:  "Sources: are discussed here.\nMore detail.",
			wantSources: "https://d.example",
		},
		{
			name:        "no marker",
			reply:       "  I don't know.  ",
			wantAnswer:  "I don't know.",
			wantSources: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAnswer(tt.reply)
			if got.Answer != tt.wantAnswer {
				t.Errorf("Answer = %q, want %q", got.Answer, tt.wantAnswer)
			}
			if got.Sources != tt.wantSources {
				t.Errorf("Sources = %q, want %q", got.Sources, tt.wantSources)
			}
		})
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	prompt := buildAnswerPrompt(AnswerRequest{
		Question: "What do channels do?",
		Chunks: []store.ScoredChunk{
			{Chunk: store.Chunk{Source: "https://a.example", Content: " Channels pass values. "}},
			{Chunk: store.Chunk{Source: "https://b.example", Content: "Select waits."}},
		},
		History: []string{"user: hi", "ai: hello"},
	})

	for _, want := range []string{
		"Content: Channels pass values.\nSource: https://a.example",
		"Content: Select waits.\nSource: https://b.example",
		"Conversation so far:\nuser: hi\nai: hello\n",
		"Question: What do channels do?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Index(prompt, "--- CONTENT END ---") > strings.Index(prompt, "Question:") {
		t.Errorf("question must follow the content block")
	}
}

func TestBuildAnswerPromptWithoutHistory(t *testing.T) {
	prompt := buildAnswerPrompt(AnswerRequest{Question: "q"})
	if strings.Contains(prompt, "Conversation so far") {
		t.Errorf("empty history should not render a conversation block:\n%s", prompt)
	}
}
