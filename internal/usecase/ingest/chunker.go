package ingest

import (
	"regexp"
	"strings"

	"github.com/civicassist/civicassist/internal/domain"
)

// Chunk is one unit of text ready for embedding, with its provenance.
type Chunk struct {
	Text     string
	Metadata domain.ChunkMetadata
}

// sentenceBoundary matches a terminator followed by whitespace. A bare
// terminator inside a token ("Clause 3.14") is not a boundary.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// splitSentences splits text on sentence boundaries. The terminator stays
// with its sentence; text after the last terminator, or text without any
// terminator at all, comes back as the final sentence so no input is lost.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sentences = append(sentences, strings.TrimSpace(text[start:loc[0]+1]))
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// ChunkText splits text into sentence-aligned chunks. Sentences accumulate
// until the word-count target is reached; each following chunk is seeded
// with the trailing overlapSentences sentences of the previous one. The
// overlap is a fixed sentence count, not a word count. Every chunk carries
// baseMeta plus its zero-based chunk index.
func ChunkText(text string, baseMeta domain.ChunkMetadata, chunkSizeWords, overlapSentences int) []Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var current []string
	currentWords := 0

	flush := func() {
		meta := baseMeta
		meta.ChunkIndex = len(chunks)
		chunks = append(chunks, Chunk{Text: strings.Join(current, " "), Metadata: meta})
	}

	for _, sentence := range sentences {
		words := len(strings.Fields(sentence))

		if currentWords+words > chunkSizeWords && len(current) > 0 {
			flush()

			overlap := current
			if len(current) > overlapSentences {
				overlap = current[len(current)-overlapSentences:]
			}
			current = append(append([]string{}, overlap...), sentence)
			currentWords = 0
			for _, s := range current {
				currentWords += len(strings.Fields(s))
			}
		} else {
			current = append(current, sentence)
			currentWords += words
		}
	}

	if len(current) > 0 {
		flush()
	}

	return chunks
}
