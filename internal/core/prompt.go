package core

import (
	"fmt"
	"regexp"
	"strings"
)

const answerSystemInstruction = "You are a research assistant. Answer the question using only the extracted page content provided. " +
	"If the content does not contain the answer, say that you don't know instead of making one up. " +
	"Take the earlier conversation into account when the question refers back to it. " +
	"End every reply with a line that starts with \"SOURCES:\" followed by the comma-separated source URLs you relied on."

var sourcesMarker = regexp.MustCompile(`(?im)^[ \t]*\**[ \t]*SOURCES?[ \t]*:[ \t]*\**[ \t]*`)

func buildAnswerPrompt(req AnswerRequest) string {
	var b strings.Builder

	b.WriteString("--- CONTENT START ---\n")
	for _, c := range req.Chunks {
		fmt.Fprintf(&b, "Content: %s\nSource: %s\n\n", strings.TrimSpace(c.Chunk.Content), c.Chunk.Source)
	}
	b.WriteString("--- CONTENT END ---\n\n")

	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range req.History {
			b.WriteString(turn)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	return b.String()
}

// parseAnswer splits a model reply at its last SOURCES line.
func parseAnswer(reply string) *Answer {
	reply = strings.TrimSpace(reply)
	locs := sourcesMarker.FindAllStringIndex(reply, -1)
	if len(locs) == 0 {
		return &Answer{Answer: reply}
	}
	last := locs[len(locs)-1]
	answer := strings.TrimSpace(reply[:last[0]])
	answer = strings.TrimSpace(strings.TrimPrefix(answer, "FINAL ANSWER:"))
	return &Answer{
		Answer:  answer,
		Sources: strings.TrimSpace(reply[last[1]:]),
	}
}
