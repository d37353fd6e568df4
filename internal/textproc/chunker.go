package textproc

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap budget between chunks.
const DefaultChunkOverlap = 200

// DefaultMinChunkLength is the floor below which fragments are dropped.
const DefaultMinChunkLength = 20

// sentenceEnd matches a sentence boundary: terminal punctuation,
// optional closing quote or bracket, then whitespace.
var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]*\s+`)

// paragraphBreak matches a blank-line paragraph separator.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Splitter splits text into overlapping, size-bounded chunks along
// sentence and paragraph boundaries.
type Splitter struct {
	chunkSize int
	overlap   int
	minLength int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap budget between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithMinChunkLength sets the minimum emitted chunk length.
func WithMinChunkLength(min int) Option {
	return func(s *Splitter) {
		if min >= 0 {
			s.minLength = min
		}
	}
}

// NewSplitter creates a splitter with the given options.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		minLength: DefaultMinChunkLength,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room for new content in each chunk.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Split divides text into chunks of at most the configured size.
// Paragraphs are accumulated until the next would overflow; oversized
// paragraphs are re-split into sentences and packed greedily. Chunk
// boundaries are seeded with trailing sentences of the previous chunk
// up to the overlap budget. Fragments at or below the minimum length
// are dropped rather than emitted. Splitting never fails; empty or
// malformed input yields an empty result.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if len(text) <= s.chunkSize {
		if len(text) > s.minLength {
			return []string{text}
		}
		return nil
	}

	var chunks []string
	emit := func(chunk string) {
		chunk = strings.TrimSpace(chunk)
		if len(chunk) > s.minLength {
			chunks = append(chunks, chunk)
		}
	}

	var acc string
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > s.chunkSize {
			emit(acc)
			acc = ""
			for _, chunk := range s.packSentences(para) {
				emit(chunk)
			}
			continue
		}

		switch {
		case acc == "":
			acc = para
		case len(acc)+2+len(para) <= s.chunkSize:
			acc += "\n\n" + para
		default:
			emit(acc)
			acc = s.seedOverlap(acc, para)
		}
	}
	emit(acc)

	return chunks
}

// packSentences greedily packs the sentences of one oversized paragraph
// into chunks, carrying trailing sentences forward as overlap at each
// boundary. A lone sentence longer than the chunk size is emitted whole;
// sentences are never split mid-word.
func (s *Splitter) packSentences(para string) []string {
	sentences := splitSentences(para)

	var chunks []string
	var current []string
	size := 0

	for _, sent := range sentences {
		if size+len(sent) > s.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			current = s.overlapSentences(current)
			size = joinedLen(current)

			// Drop overlap from the front when the incoming sentence
			// would not fit beside it.
			for len(current) > 0 && size+len(sent)+1 > s.chunkSize {
				size -= len(current[0]) + 1
				current = current[1:]
			}
		}
		current = append(current, sent)
		size = joinedLen(current)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// seedOverlap builds a fresh accumulator from the tail sentences of a
// just-flushed chunk plus the next paragraph, trimming the overlap when
// the combination would overflow the chunk size.
func (s *Splitter) seedOverlap(flushed, para string) string {
	tail := s.overlapSentences(splitSentences(flushed))
	for len(tail) > 0 && joinedLen(tail)+2+len(para) > s.chunkSize {
		tail = tail[1:]
	}
	if len(tail) == 0 {
		return para
	}
	return strings.Join(tail, " ") + "\n\n" + para
}

// overlapSentences walks backward through a chunk's sentences,
// collecting them until the overlap budget is met.
func (s *Splitter) overlapSentences(sentences []string) []string {
	if s.overlap <= 0 {
		return nil
	}
	size := 0
	i := len(sentences)
	for i > 0 {
		i--
		size += len(sentences[i])
		if size >= s.overlap {
			break
		}
	}
	return append([]string(nil), sentences[i:]...)
}

// splitSentences splits text on sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sent := strings.TrimSpace(text[start:loc[1]])
		if sent != "" {
			sentences = append(sentences, sent)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += len(p)
	}
	return n
}
