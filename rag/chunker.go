package rag

import "strings"

// Chunk is one piece of a larger document, with its position and size
// recorded alongside the text itself.
type Chunk struct {
	Text      string
	Index     int
	CharStart int
	CharEnd   int
	CharCount int
	WordCount int
}

// ChunkOptions configures a single Chunker.Chunk call.
type ChunkOptions struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

func (o ChunkOptions) withDefaults() ChunkOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 500
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		o.Overlap = 0
	}
	if len(o.Separators) == 0 {
		o.Separators = []string{"\n\n", "\n", ". ", " "}
	}
	return o
}

// Chunker splits text into overlapping, size-bounded pieces.
type Chunker interface {
	Chunk(text string, opts ChunkOptions) []Chunk
}

// RecursiveChunker splits on an ordered list of separators, coarsest
// first, merging adjacent pieces back up to ChunkSize before recursing
// into a finer separator, and falls back to fixed-stride slicing once no
// separator is left to split a fragment that still exceeds ChunkSize.
// Adjacent chunks carry the trailing Overlap characters of their
// predecessor, so splitting never loses context at a boundary.
type RecursiveChunker struct{}

// NewRecursiveChunker returns a stateless RecursiveChunker; size, overlap,
// and separators are supplied per call via ChunkOptions.
func NewRecursiveChunker() *RecursiveChunker {
	return &RecursiveChunker{}
}

func (c *RecursiveChunker) Chunk(text string, opts ChunkOptions) []Chunk {
	opts = opts.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := split(text, opts.ChunkSize, opts.Overlap, opts.Separators)

	chunks := make([]Chunk, 0, len(pieces))
	cursor := 0
	for _, raw := range pieces {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		start := locate(text, trimmed, cursor)
		if start < 0 {
			start = locate(text, trimmed, 0)
		}
		if start < 0 {
			start = cursor
		}

		chunks = append(chunks, Chunk{
			Text:      trimmed,
			Index:     len(chunks),
			CharStart: start,
			CharEnd:   start + len(trimmed),
			CharCount: len(trimmed),
			WordCount: len(strings.Fields(trimmed)),
		})
		cursor = start
	}
	return chunks
}

// locate finds needle in text starting the search at from, falling back to
// -1 when an overlap prefix spliced onto needle keeps it from being a
// literal substring of text anymore.
func locate(text, needle string, from int) int {
	if from < 0 || from > len(text) {
		from = 0
	}
	idx := strings.Index(text[from:], needle)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func split(text string, chunkSize, overlap int, seps []string) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	if len(seps) == 0 {
		return fixedStride(text, chunkSize, overlap)
	}

	sep := seps[0]
	parts := strings.Split(text, sep)
	if len(parts) <= 1 {
		return split(text, chunkSize, overlap, seps[1:])
	}

	merged := mergeUpToSize(parts, sep, chunkSize)

	var out []string
	for _, m := range merged {
		if len(m) > chunkSize {
			out = append(out, split(m, chunkSize, overlap, seps[1:])...)
		} else {
			out = append(out, m)
		}
	}

	return withOverlap(out, overlap)
}

func mergeUpToSize(parts []string, sep string, size int) []string {
	var merged []string
	var current strings.Builder

	for _, part := range parts {
		candidate := part
		if current.Len() > 0 {
			candidate = current.String() + sep + part
		}

		if len(candidate) > size && current.Len() > 0 {
			merged = append(merged, current.String())
			current.Reset()
			current.WriteString(part)
		} else {
			current.Reset()
			current.WriteString(candidate)
		}
	}

	if current.Len() > 0 {
		merged = append(merged, current.String())
	}

	return merged
}

// withOverlap prepends the tail overlap characters of each piece onto the
// next, so splitting never loses context at a boundary.
func withOverlap(pieces []string, overlap int) []string {
	if overlap <= 0 || len(pieces) < 2 {
		return pieces
	}

	out := make([]string, len(pieces))
	out[0] = pieces[0]

	for i := 1; i < len(pieces); i++ {
		prev := pieces[i-1]
		tail := prev
		if len(tail) > overlap {
			tail = tail[len(tail)-overlap:]
		}
		out[i] = tail + pieces[i]
	}

	return out
}

// fixedStride is the fallback for an atomic piece with no usable
// separator: fixed windows of chunkSize, advancing by chunkSize-overlap
// each step.
func fixedStride(text string, chunkSize, overlap int) []string {
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	if step <= 0 {
		step = 1
	}

	var out []string
	for i := 0; i < len(text); i += step {
		end := i + chunkSize
		if end > len(text) {
			end = len(text)
		}

		out = append(out, text[i:end])

		if end == len(text) {
			break
		}
	}

	return out
}
