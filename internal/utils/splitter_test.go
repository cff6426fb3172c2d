package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewSplitterValidation(t *testing.T) {
	if _, err := NewSplitter(0, 0); err == nil {
		t.Fatalf("expected error for size 0")
	}
	if _, err := NewSplitter(10, 10); err == nil {
		t.Fatalf("expected error for overlap == size")
	}
	if _, err := NewSplitter(10, -1); err == nil {
		t.Fatalf("expected error for negative overlap")
	}
	s, err := NewSplitter(10, 3)
	if err != nil {
		t.Fatalf("NewSplitter(10, 3) error = %v", err)
	}
	if s.Size != 10 || s.Overlap != 3 {
		t.Fatalf("unexpected splitter %+v", s)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s := DefaultSplitter()
	if got := s.Split(""); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(got))
	}
	if got := s.Split(" \n\t "); len(got) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(got))
	}
}

func TestSplitShortDocumentIsSingleChunk(t *testing.T) {
	s := DefaultSplitter()
	text := strings.Repeat("a", DefaultChunkSize)
	got := s.Split(text)
	if len(got) != 1 || got[0] != text {
		t.Fatalf("expected the whole document as one chunk, got %d chunks", len(got))
	}
}

func TestSplitSmallWindow(t *testing.T) {
	s, _ := NewSplitter(4, 1)
	got := s.Split("abcdefghij")
	want := []string{"abcd", "defg", "ghij"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitChunkCountAndOverlap(t *testing.T) {
	s := DefaultSplitter()
	for _, length := range []int{1001, 1800, 2600, 5000, 12345} {
		var b strings.Builder
		for i := 0; i < length; i++ {
			b.WriteByte(byte('a' + i%26))
		}
		chunks := s.Split(b.String())

		if got, want := len(chunks), expectedChunks(s, length); got != want {
			t.Errorf("length %d: got %d chunks, want %d", length, got, want)
		}
		for i, c := range chunks {
			if n := utf8.RuneCountInString(c); n > s.Size {
				t.Errorf("length %d: chunk %d has %d runes", length, i, n)
			}
			if i == 0 {
				continue
			}
			prev := chunks[i-1]
			tail := prev[len(prev)-s.Overlap:]
			if !strings.HasPrefix(c, tail) {
				t.Errorf("length %d: chunk %d does not start with the previous %d runes", length, i, s.Overlap)
			}
		}
	}
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	s, _ := NewSplitter(5, 2)
	got := s.Split("ééééééééé")
	for i, c := range got {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if n := utf8.RuneCountInString(c); n > 5 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
	if len(got) != expectedChunks(s, 9) {
		t.Fatalf("got %d chunks, want %d", len(got), expectedChunks(s, 9))
	}
}

func TestCosineSimilarity(t *testing.T) {
	same, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	if err != nil || same < 0.99 {
		t.Fatalf("cosine of identical vectors = %v, %v", same, err)
	}
	orth, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil || orth > 0.01 {
		t.Fatalf("cosine of orthogonal vectors = %v, %v", orth, err)
	}
	if _, err := CosineSimilarity([]float32{1}, []float32{1, 2}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
	if _, err := CosineSimilarity(nil, []float32{1}); err == nil {
		t.Fatalf("expected empty vector error")
	}
	zero, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil || zero != 0 {
		t.Fatalf("cosine with zero vector = %v, %v", zero, err)
	}
}

// expectedChunks is ceil((L - overlap) / (size - overlap)) for L > size.
func expectedChunks(s *Splitter, length int) int {
	if length <= 0 {
		return 0
	}
	if length <= s.Size {
		return 1
	}
	step := s.Size - s.Overlap
	return (length - s.Overlap + step - 1) / step
}
