package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	require.Empty(t, Split("", DefaultConfig()))
	require.Empty(t, Split("   \n\n  ", DefaultConfig()))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := "A short paragraph that easily fits in one chunk."
	chunks := Split(text, DefaultConfig())
	require.Len(t, chunks, 1)
	require.Equal(t, text, chunks[0])
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("This is sentence number one of the test corpus. ")
	}
	cfg := Config{ChunkSize: 100, ChunkOverlap: 20, MinChunk: 5}
	chunks := Split(sb.String(), cfg)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(chunk), cfg.ChunkSize, "chunk %d too long", i)
	}
}

func TestSplit_ConsecutiveChunksShareOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("alpha beta gamma delta epsilon zeta. ")
	}
	cfg := Config{ChunkSize: 120, ChunkOverlap: 30, MinChunk: 5}
	chunks := Split(sb.String(), cfg)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		require.NotEmpty(t, prevWords)
		lastWord := prevWords[len(prevWords)-1]
		require.Contains(t, chunks[i], lastWord, "chunk %d carries no trailing context", i)
	}
}

func TestSplit_DropsTinyChunks(t *testing.T) {
	chunks := Split("ab", Config{ChunkSize: 100, ChunkOverlap: 10, MinChunk: 5})
	require.Empty(t, chunks)
}

func TestSplit_HardCutsOversizedWord(t *testing.T) {
	word := strings.Repeat("x", 250)
	cfg := Config{ChunkSize: 100, ChunkOverlap: 0, MinChunk: 5}
	chunks := Split(word, cfg)
	require.NotEmpty(t, chunks)
	total := 0
	for _, chunk := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(chunk), cfg.ChunkSize)
		total += utf8.RuneCountInString(strings.ReplaceAll(chunk, " ", ""))
	}
	require.Equal(t, 250, total)
}

func TestSplit_PreservesAllContentWithoutOverlap(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one closes."
	chunks := Split(text, Config{ChunkSize: 30, ChunkOverlap: 0, MinChunk: 1})
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		require.Contains(t, joined, word)
	}
}

func TestSplit_MultibyteRunesCountAsOneChar(t *testing.T) {
	text := strings.Repeat("日本語のテキストです。", 40)
	cfg := Config{ChunkSize: 50, ChunkOverlap: 0, MinChunk: 1}
	for _, chunk := range Split(text, cfg) {
		require.LessOrEqual(t, utf8.RuneCountInString(chunk), cfg.ChunkSize)
	}
}
