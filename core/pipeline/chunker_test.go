package pipeline

import (
	"strings"
	"testing"

	"github.com/skovert/docquery/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectStrategy(t *testing.T) {
	longProse := strings.Repeat("This is a sentence about something. ", 30)

	t.Run("Tabular file types chunk fixed", func(t *testing.T) {
		for _, fileType := range []string{"csv", "tsv", "json", "jsonl", "xlsx", "parquet"} {
			strategy := DetectStrategy("a,b,c\n1,2,3", fileType)
			assert.Equal(t, model.ChunkStrategyFixed, strategy, "file type %s should chunk fixed", fileType)
		}
	})

	t.Run("File type detection is case insensitive and dot tolerant", func(t *testing.T) {
		assert.Equal(t, model.ChunkStrategyFixed, DetectStrategy("a,b", ".CSV"))
	})

	t.Run("Long prose chunks by sentence", func(t *testing.T) {
		strategy := DetectStrategy(longProse, "txt")
		assert.Equal(t, model.ChunkStrategySentence, strategy)
	})

	t.Run("Short text chunks semantically", func(t *testing.T) {
		strategy := DetectStrategy("A short note. Nothing more.", "txt")
		assert.Equal(t, model.ChunkStrategySemantic, strategy)
	})

	t.Run("Long text without sentence terminators chunks semantically", func(t *testing.T) {
		strategy := DetectStrategy(strings.Repeat("word ", 200), "txt")
		assert.Equal(t, model.ChunkStrategySemantic, strategy)
	})
}

func TestFixedChunker(t *testing.T) {
	t.Run("Chunks respect max size", func(t *testing.T) {
		chunker := FixedChunker(10, 3)
		chunks, err := chunker(strings.Repeat("abcde", 10))
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		for i, chunk := range chunks {
			assert.LessOrEqual(t, len([]rune(chunk)), 10, "chunk %d should not exceed max size", i)
		}
	})

	t.Run("Zero overlap reconstructs the input", func(t *testing.T) {
		text := "the quick brown fox jumps over the lazy dog"
		chunker := FixedChunker(8, 0)
		chunks, err := chunker(text)
		require.NoError(t, err)
		assert.Equal(t, text, strings.Join(chunks, ""), "concatenated chunks should equal the input")
	})

	t.Run("Consecutive chunks share the overlap", func(t *testing.T) {
		chunker := FixedChunker(10, 4)
		chunks, err := chunker("0123456789abcdefghij")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(chunks), 2)

		first := []rune(chunks[0])
		second := []rune(chunks[1])
		assert.Equal(t, string(first[len(first)-4:]), string(second[:4]), "second chunk should start with the first chunk's tail")
	})

	t.Run("Multi-byte runes are not split", func(t *testing.T) {
		chunker := FixedChunker(4, 0)
		chunks, err := chunker("héllo wörld")
		require.NoError(t, err)
		assert.Equal(t, "héllo wörld", strings.Join(chunks, ""))
	})

	t.Run("Empty text yields no chunks", func(t *testing.T) {
		chunker := FixedChunker(10, 0)
		chunks, err := chunker("")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Invalid max size errors", func(t *testing.T) {
		chunker := FixedChunker(0, 0)
		_, err := chunker("text")
		assert.Error(t, err)
	})

	t.Run("Overlap equal to max size errors", func(t *testing.T) {
		chunker := FixedChunker(10, 10)
		_, err := chunker("text")
		assert.Error(t, err, "overlap >= maxSize would never advance")
	})

	t.Run("Negative overlap errors", func(t *testing.T) {
		chunker := FixedChunker(10, -1)
		_, err := chunker("text")
		assert.Error(t, err)
	})
}

func TestSentenceChunker(t *testing.T) {
	t.Run("Short text stays in one chunk", func(t *testing.T) {
		chunker := SentenceChunker(200)
		chunks, err := chunker("First sentence. Second sentence. Third one!")
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})

	t.Run("Overflow flushes and seeds the next chunk", func(t *testing.T) {
		chunker := SentenceChunker(60)
		text := "The first sentence carries some weight here. The second sentence continues the thought. A third sentence closes it."
		chunks, err := chunker(text)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1, "text longer than max size should produce multiple chunks")

		// The second chunk starts with words carried over from the first
		firstWords := strings.Fields(chunks[0])
		lastWord := firstWords[len(firstWords)-1]
		assert.True(t, strings.HasPrefix(chunks[1], lastWord), "next chunk should be seeded with the previous tail")
	})

	t.Run("Question and exclamation marks split sentences", func(t *testing.T) {
		chunker := SentenceChunker(10)
		chunks, err := chunker("Really? Yes! Sure.")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(chunks), 2)
	})

	t.Run("Terminators before newlines and tabs split sentences", func(t *testing.T) {
		sentences := splitSentences("First line ends here.\nSecond follows.\tThird follows. Fourth follows.")
		require.Len(t, sentences, 4)
		assert.Equal(t, "First line ends here.", sentences[0])
		assert.Equal(t, "Second follows.", sentences[1])
		assert.Equal(t, "Third follows.", sentences[2])
		assert.Equal(t, "Fourth follows.", sentences[3])
	})

	t.Run("Whitespace-only text yields no chunks", func(t *testing.T) {
		chunker := SentenceChunker(100)
		chunks, err := chunker("   \n\t ")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Invalid max size errors", func(t *testing.T) {
		chunker := SentenceChunker(0)
		_, err := chunker("text")
		assert.Error(t, err)
	})
}

func TestSemanticChunker(t *testing.T) {
	t.Run("Blank lines separate blocks", func(t *testing.T) {
		chunker := SemanticChunker(20)
		chunks, err := chunker("first paragraph\n\nsecond paragraph\n\nthird paragraph")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(chunks), 2, "paragraphs exceeding max size should split")
	})

	t.Run("Small blocks accumulate into one chunk", func(t *testing.T) {
		chunker := SemanticChunker(200)
		chunks, err := chunker("first paragraph\n\nsecond paragraph")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0], "first paragraph")
		assert.Contains(t, chunks[0], "second paragraph")
	})

	t.Run("Headings start new blocks", func(t *testing.T) {
		chunker := SemanticChunker(30)
		chunks, err := chunker("intro text here\n# Heading\nbody under the heading")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(chunks), 2)
		assert.True(t, strings.HasPrefix(chunks[1], "# Heading"), "heading should open a new chunk")
	})

	t.Run("Whitespace-only text yields no chunks", func(t *testing.T) {
		chunker := SemanticChunker(100)
		chunks, err := chunker("  \n\n  ")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Invalid max size errors", func(t *testing.T) {
		chunker := SemanticChunker(-1)
		_, err := chunker("text")
		assert.Error(t, err)
	})
}

func TestChunk(t *testing.T) {
	t.Run("Dispatches fixed strategy", func(t *testing.T) {
		opts := ChunkOptions{MaxSize: 5, Overlap: 0, Strategy: model.ChunkStrategyFixed}
		chunks, err := Chunk("0123456789", opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"01234", "56789"}, chunks)
	})

	t.Run("Unknown strategy falls back to semantic", func(t *testing.T) {
		opts := ChunkOptions{MaxSize: 100, Strategy: model.ChunkStrategy("bogus")}
		chunks, err := Chunk("some text", opts)
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})
}
