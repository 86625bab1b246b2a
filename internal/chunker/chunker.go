package chunker

import (
	"fmt"
	"strings"
)

// Splitter cuts page text into bounded, overlapping chunks. Cuts prefer
// the last space at or before maxLength; a run without spaces is cut hard
// at maxLength. The next chunk starts overlap characters before the cut.
type Splitter struct {
	maxLength int
	overlap   int
}

func NewSplitter(maxLength, overlap int) (*Splitter, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLength)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", overlap)
	}
	// overlap >= maxLength would re-consume entire chunks and never
	// terminate.
	if overlap >= maxLength {
		return nil, fmt.Errorf("overlap (%d) must be smaller than max length (%d)", overlap, maxLength)
	}
	return &Splitter{maxLength: maxLength, overlap: overlap}, nil
}

// Split returns the chunks of text in source order. Empty or
// whitespace-only input yields no chunks. Every chunk is at most
// maxLength characters long.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	for len(text) > s.maxLength {
		cut := strings.LastIndex(text[:s.maxLength], " ")
		if cut == -1 {
			cut = s.maxLength
		}
		chunks = append(chunks, text[:cut])

		next := cut - s.overlap
		if next < 0 {
			next = 0
		}
		rest := strings.TrimSpace(text[next:])
		if len(rest) >= len(text) {
			// The cut landed inside the overlap window; backing up would
			// make no progress, so advance without overlap.
			rest = strings.TrimSpace(text[cut:])
		}
		text = rest
	}
	return append(chunks, text)
}
