package enrich

import (
	"strings"
	"unicode"
)

// DefaultChunkChars bounds the text sent in one summarization call.
const DefaultChunkChars = 8000

// Chunk splits text into pieces of at most maxChars runes. Splits prefer the
// last whitespace inside the window and never cut a rune in half. Pieces are
// trimmed and empty pieces are dropped.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	runes := []rune(strings.TrimSpace(text))
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= maxChars {
			chunks = appendChunk(chunks, runes)
			break
		}
		cut := maxChars
		for i := maxChars; i > maxChars/2; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		chunks = appendChunk(chunks, runes[:cut])
		runes = runes[cut:]
	}
	return chunks
}

func appendChunk(chunks []string, runes []rune) []string {
	piece := strings.TrimSpace(string(runes))
	if piece == "" {
		return chunks
	}
	return append(chunks, piece)
}
