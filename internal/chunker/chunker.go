package chunker

import (
	"strings"
	"unicode/utf8"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int // Maximum chunk size.
	ChunkOverlap int // Context shared between consecutive chunks.
	MinChunk     int // Chunks shorter than this are dropped.
}

// DefaultConfig returns the standard 1000/200 splitter.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunk:     5,
	}
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 5
	}
	if c.MinChunk <= 0 {
		c.MinChunk = 5
	}
	return c
}

// Split breaks text into chunks of at most ChunkSize characters, preferring
// paragraph, then sentence, then word boundaries before cutting mid-word.
// Consecutive chunks share up to ChunkOverlap characters of trailing context.
func Split(text string, cfg Config) []string {
	cfg = cfg.withDefaults()

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() string {
		if curLen == 0 {
			return ""
		}
		emitted := cur.String()
		chunks = append(chunks, emitted)
		cur.Reset()
		curLen = 0
		return emitted
	}

	add := func(unit, sep string) {
		ulen := charLen(unit)
		if curLen > 0 && curLen+charLen(sep)+ulen > cfg.ChunkSize {
			prev := flush()
			// Carry overlap only when the next unit still fits beside it.
			if cfg.ChunkOverlap+charLen(sep)+ulen <= cfg.ChunkSize {
				if overlap := tailWords(prev, cfg.ChunkOverlap); overlap != "" {
					cur.WriteString(overlap)
					curLen = charLen(overlap)
				}
			}
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += charLen(sep)
		}
		cur.WriteString(unit)
		curLen += ulen
	}

	for _, para := range splitParagraphs(text) {
		if charLen(para) <= cfg.ChunkSize {
			add(para, "\n\n")
			continue
		}
		for _, sent := range splitSentences(para) {
			if charLen(sent) <= cfg.ChunkSize {
				add(sent, " ")
				continue
			}
			for _, piece := range splitWords(sent, cfg.ChunkSize) {
				add(piece, " ")
			}
		}
	}
	flush()

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if charLen(strings.TrimSpace(chunk)) >= cfg.MinChunk {
			out = append(out, chunk)
		}
	}
	return out
}

// splitParagraphs splits on blank lines.
func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting on terminal punctuation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// splitWords packs words into pieces of at most max characters, hard-cutting
// only words that exceed max on their own.
func splitWords(text string, max int) []string {
	var pieces []string
	var current strings.Builder
	curLen := 0

	emit := func() {
		if curLen > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		wlen := charLen(word)
		if wlen > max {
			emit()
			pieces = append(pieces, hardCut(word, max)...)
			continue
		}
		if curLen > 0 && curLen+1+wlen > max {
			emit()
		}
		if curLen > 0 {
			current.WriteString(" ")
			curLen++
		}
		current.WriteString(word)
		curLen += wlen
	}
	emit()
	return pieces
}

// hardCut slices a string into rune-safe pieces of at most max characters.
func hardCut(s string, max int) []string {
	var pieces []string
	runes := []rune(s)
	for len(runes) > max {
		pieces = append(pieces, string(runes[:max]))
		runes = runes[max:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}

// tailWords returns the trailing whole words of s within a character budget.
func tailWords(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	words := strings.Fields(s)
	total := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		wlen := charLen(words[i])
		if total > 0 {
			wlen++ // joining space
		}
		if total+wlen > budget {
			break
		}
		total += wlen
		start = i
	}
	if start == len(words) {
		return ""
	}
	return strings.Join(words[start:], " ")
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
