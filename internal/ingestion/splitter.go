package ingestion

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Splitter breaks cleaned text into overlapping chunks, preferring to cut
// at paragraph, then line, then word boundaries.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	separators []string
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Splitter{
		ChunkSize:  chunkSize,
		Overlap:    overlap,
		separators: []string{"\n\n", "\n", " ", ""},
	}
}

func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	chunks := s.split(text, s.separators)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	rest := []string{}
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = splitEvery(text, s.ChunkSize)
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, sep)...)
			pending = nil
		}
	}

	for _, piece := range pieces {
		if len(piece) < s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		flush()
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	flush()
	return chunks
}

// merge joins pieces into chunks up to ChunkSize, carrying Overlap worth of
// trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	join := func(parts []string) string {
		return strings.TrimSpace(strings.Join(parts, sep))
	}

	for _, piece := range pieces {
		pieceLen := len(piece)
		if total+pieceLen+len(sep)*len(window) > s.ChunkSize && len(window) > 0 {
			if doc := join(window); doc != "" {
				chunks = append(chunks, doc)
			}
			// Drop leading pieces until the carryover fits the overlap.
			for total > s.Overlap || (total+pieceLen+len(sep)*len(window) > s.ChunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen
	}
	if doc := join(window); doc != "" {
		chunks = append(chunks, doc)
	}
	return chunks
}

func splitEvery(text string, n int) []string {
	if n <= 0 {
		return []string{text}
	}
	var out []string
	for len(text) > n {
		// Back off to a rune boundary so the cut never splits a multibyte
		// character across chunks.
		cut := n
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = n
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
