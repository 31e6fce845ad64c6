package rag

import (
	"regexp"
	"strings"

	"shakespeare-rag-api/internal/domain/corpus"
)

const (
	defaultMaxChars         = 1200
	defaultMinChars         = 200
	defaultOverlapSentences = 1
)

// Sentence boundaries: terminal punctuation followed by whitespace.
// Splitting on boundaries keeps every character of the input inside
// exactly one sentence.
var sentenceBoundaryRe = regexp.MustCompile(`[.!?]+\s+`)

// Chunker slices scene text into embeddable chunks. It accumulates
// whole sentences up to maxChars, repeats the last overlapSentences
// sentences at the start of the next chunk, and hard-splits only when
// a single sentence alone exceeds maxChars, flagging those chunks as
// truncated. Output is deterministic for a given input.
type Chunker struct {
	maxChars         int
	minChars         int
	overlapSentences int
}

// NewChunker creates a Chunker. Non-positive parameters fall back to
// defaults.
func NewChunker(maxChars, minChars, overlapSentences int) *Chunker {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	if minChars <= 0 {
		minChars = defaultMinChars
	}
	if overlapSentences < 0 {
		overlapSentences = defaultOverlapSentences
	}
	return &Chunker{
		maxChars:         maxChars,
		minChars:         minChars,
		overlapSentences: overlapSentences,
	}
}

// pendingChunk is a chunk under construction. overlap counts the
// leading sentences repeated from the previous chunk.
type pendingChunk struct {
	sentences []string
	overlap   int
	truncated bool
}

func (p *pendingChunk) text() string {
	return strings.Join(p.sentences, " ")
}

// ownText is the chunk text minus the repeated overlap prefix, i.e.
// the part this chunk contributes to coverage.
func (p *pendingChunk) ownText() string {
	return strings.Join(p.sentences[p.overlap:], " ")
}

// ChunkPlay chunks every scene of a parsed play and stamps each chunk
// with its full metadata and stable id.
func (c *Chunker) ChunkPlay(play *corpus.Play) []corpus.Chunk {
	var out []corpus.Chunk
	for _, act := range play.Acts {
		for _, scene := range act.Scenes {
			pendings := c.chunkText(scene.Text)
			for i, p := range pendings {
				out = append(out, corpus.Chunk{
					ID:           corpus.ChunkID(play.Title, act.Ordinal, scene.Ordinal, i+1),
					Text:         p.text(),
					Play:         play.Title,
					Category:     play.Category,
					ActLabel:     act.Label,
					ActOrdinal:   act.Ordinal,
					SceneTitle:   scene.Title,
					SceneOrdinal: scene.Ordinal,
					ChunkOrdinal: i + 1,
					Characters:   scene.Characters,
					Truncated:    p.truncated,
				})
			}
		}
	}
	return out
}

func (c *Chunker) chunkText(text string) []pendingChunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []pendingChunk
	cur := pendingChunk{}
	curLen := 0

	flush := func() {
		if len(cur.sentences) > cur.overlap {
			chunks = append(chunks, cur)
		}
		cur = pendingChunk{}
		curLen = 0
	}

	startWithOverlap := func(prev pendingChunk) {
		n := c.overlapSentences
		if n > len(prev.sentences) {
			n = len(prev.sentences)
		}
		cur = pendingChunk{
			sentences: append([]string(nil), prev.sentences[len(prev.sentences)-n:]...),
			overlap:   n,
		}
		curLen = len(cur.text())
	}

	for _, sentence := range sentences {
		if len(sentence) > c.maxChars {
			// A single oversized sentence: emit what we have, then
			// hard-split it into flagged pieces.
			flush()
			for _, piece := range hardSplit(sentence, c.maxChars) {
				chunks = append(chunks, pendingChunk{sentences: []string{piece}, truncated: true})
			}
			continue
		}

		added := len(sentence)
		if curLen > 0 {
			added++ // joining space
		}
		if curLen+added > c.maxChars && len(cur.sentences) > cur.overlap {
			prev := cur
			flush()
			startWithOverlap(prev)
			if curLen > 0 {
				curLen++
			}
			curLen += len(sentence)
			cur.sentences = append(cur.sentences, sentence)
			continue
		}

		cur.sentences = append(cur.sentences, sentence)
		curLen += added
	}
	flush()

	// A short tail chunk folds into its predecessor when that still
	// fits under the size limit.
	if n := len(chunks); n > 1 {
		last := chunks[n-1]
		prev := &chunks[n-2]
		if !last.truncated && !prev.truncated && len(last.ownText()) < c.minChars {
			merged := append(prev.sentences, last.sentences[last.overlap:]...)
			if len(strings.Join(merged, " ")) <= c.maxChars {
				prev.sentences = merged
				chunks = chunks[:n-1]
			}
		}
	}

	return chunks
}

// splitSentences partitions text into sentences without dropping any
// characters.
func splitSentences(text string) []string {
	bounds := sentenceBoundaryRe.FindAllStringIndex(text, -1)
	var out []string
	start := 0
	for _, b := range bounds {
		if s := strings.TrimSpace(text[start:b[1]]); s != "" {
			out = append(out, s)
		}
		start = b[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// hardSplit cuts an oversized sentence into rune-safe pieces of at
// most maxChars bytes.
func hardSplit(sentence string, maxChars int) []string {
	var pieces []string
	runes := []rune(sentence)
	for start := 0; start < len(runes); {
		end := start
		size := 0
		for end < len(runes) {
			rl := len(string(runes[end]))
			if size+rl > maxChars && size > 0 {
				break
			}
			size += rl
			end++
		}
		pieces = append(pieces, string(runes[start:end]))
		start = end
	}
	return pieces
}
