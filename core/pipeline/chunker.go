package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skovert/docquery/model"
)

// proseLengthThreshold is the content length above which text with sentence
// terminators is chunked by sentence instead of semantically.
const proseLengthThreshold = 512

var (
	tabularFileTypes = map[string]bool{
		"csv":     true,
		"tsv":     true,
		"json":    true,
		"jsonl":   true,
		"xls":     true,
		"xlsx":    true,
		"parquet": true,
	}

	sentenceTerminatorRegex = regexp.MustCompile(`[.!?]\s`)
	headingRegex            = regexp.MustCompile(`^(#{1,6}\s|={3,}\s*$|-{3,}\s*$)`)
)

// DetectStrategy picks a chunking strategy from the content and file type.
// Tabular file types always chunk fixed; long prose with sentence terminators
// chunks by sentence; everything else (short text, code, mixed markdown)
// chunks semantically. The decision is deterministic and input-only.
func DetectStrategy(content string, fileType string) model.ChunkStrategy {
	if tabularFileTypes[strings.ToLower(strings.TrimPrefix(fileType, "."))] {
		return model.ChunkStrategyFixed
	}
	if len(content) > proseLengthThreshold && sentenceTerminatorRegex.MatchString(content) {
		return model.ChunkStrategySentence
	}
	return model.ChunkStrategySemantic
}

// FixedChunker creates a chunker that slides a maxSize character window over
// the text, advancing by maxSize-overlap. The invariant overlap < maxSize is
// enforced; violating it would loop forever.
func FixedChunker(maxSize int, overlap int) ChunkFunc {
	return func(text string) ([]string, error) {
		if maxSize <= 0 {
			return nil, fmt.Errorf("max size must be positive")
		}
		if overlap < 0 || overlap >= maxSize {
			return nil, fmt.Errorf("overlap must be in [0, maxSize), got overlap=%d maxSize=%d", overlap, maxSize)
		}

		runes := []rune(text)
		if len(runes) == 0 {
			return []string{}, nil
		}

		step := maxSize - overlap
		var chunks []string
		for start := 0; start < len(runes); start += step {
			end := start + maxSize
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, string(runes[start:end]))
			if end == len(runes) {
				break
			}
		}

		return chunks, nil
	}
}

// SentenceChunker creates a chunker that accumulates sentences into chunks of
// at most maxSize characters. When a sentence would overflow the buffer, the
// buffer is flushed and the next one is seeded with the last ~10% of the
// flushed words (word-granularity overlap).
func SentenceChunker(maxSize int) ChunkFunc {
	return func(text string) ([]string, error) {
		if maxSize <= 0 {
			return nil, fmt.Errorf("max size must be positive")
		}
		if strings.TrimSpace(text) == "" {
			return []string{}, nil
		}

		sentences := splitSentences(text)

		var chunks []string
		var buffer string
		for _, sentence := range sentences {
			if buffer == "" {
				buffer = sentence
				continue
			}
			if len(buffer)+1+len(sentence) > maxSize {
				chunks = append(chunks, buffer)
				buffer = seedOverlap(buffer) + sentence
				continue
			}
			buffer = buffer + " " + sentence
		}
		if buffer != "" {
			chunks = append(chunks, buffer)
		}

		return chunks, nil
	}
}

// SemanticChunker creates a chunker that splits on blank lines and
// heading-like boundaries, accumulating blocks into chunks of at most maxSize
// characters. Overflow flushes the buffer; no overlap is carried between
// chunks (paragraph granularity).
func SemanticChunker(maxSize int) ChunkFunc {
	return func(text string) ([]string, error) {
		if maxSize <= 0 {
			return nil, fmt.Errorf("max size must be positive")
		}
		if strings.TrimSpace(text) == "" {
			return []string{}, nil
		}

		blocks := splitBlocks(text)

		var chunks []string
		var buffer string
		for _, block := range blocks {
			if buffer == "" {
				buffer = block
				continue
			}
			if len(buffer)+2+len(block) > maxSize {
				chunks = append(chunks, buffer)
				buffer = block
				continue
			}
			buffer = buffer + "\n\n" + block
		}
		if buffer != "" {
			chunks = append(chunks, buffer)
		}

		return chunks, nil
	}
}

// splitSentences splits text on sentence-terminator-followed-by-whitespace
// boundaries. Any whitespace counts, so terminators before newlines or tabs
// split too.
func splitSentences(text string) []string {
	text = sentenceTerminatorRegex.ReplaceAllStringFunc(text, func(match string) string {
		return match[:1] + "|"
	})

	parts := strings.Split(text, "|")
	var sentences []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// splitBlocks splits text into paragraph blocks on blank lines and
// heading-like lines
func splitBlocks(text string) []string {
	lines := strings.Split(text, "\n")

	var blocks []string
	var current []string
	flush := func() {
		block := strings.TrimSpace(strings.Join(current, "\n"))
		if block != "" {
			blocks = append(blocks, block)
		}
		current = nil
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if headingRegex.MatchString(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return blocks
}

// seedOverlap returns the last ~10% of the words of a flushed buffer,
// with a trailing space, to seed the next buffer.
func seedOverlap(flushed string) string {
	words := strings.Fields(flushed)
	if len(words) == 0 {
		return ""
	}
	carry := len(words) / 10
	if carry < 1 {
		carry = 1
	}
	return strings.Join(words[len(words)-carry:], " ") + " "
}
