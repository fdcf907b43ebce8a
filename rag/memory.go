package rag

import "github.com/lucelabs/vessel/engine"

// NewEpisodicMemory returns a Pipeline over a small, tightly-chunked,
// tenant-tagged collection intended for turn-by-turn conversational
// history: short chunks, no overlap, since episodic entries are read back
// whole far more often than they are split mid-thought.
func NewEpisodicMemory(e *engine.Engine, embedder Embedder) (*Pipeline, error) {
	return NewBuilder().
		WithEmbedder(embedder).
		WithChunkOptions(ChunkOptions{ChunkSize: 200, Overlap: 0}).
		WithRequireTenant().
		Build(e, "episodic_memory")
}

// NewSemanticMemory returns a Pipeline over a tenant-tagged collection
// intended for longer-lived facts and knowledge: larger chunks with
// generous overlap, so a fact split across a chunk boundary still carries
// enough surrounding context to retrieve correctly.
func NewSemanticMemory(e *engine.Engine, embedder Embedder) (*Pipeline, error) {
	return NewBuilder().
		WithEmbedder(embedder).
		WithChunkOptions(ChunkOptions{ChunkSize: 800, Overlap: 100}).
		WithRequireTenant().
		Build(e, "semantic_memory")
}

// NewProceduralMemory returns a Pipeline over a tenant-tagged collection
// intended for stored procedures and learned action sequences: medium
// chunks with moderate overlap, and a forced flat scan by default since
// procedural stores are typically small enough that HNSW's overhead isn't
// worth paying.
func NewProceduralMemory(e *engine.Engine, embedder Embedder) (*Pipeline, error) {
	return NewBuilder().
		WithEmbedder(embedder).
		WithChunkOptions(ChunkOptions{ChunkSize: 500, Overlap: 50}).
		WithRequireTenant().
		WithForceFlat().
		Build(e, "procedural_memory")
}
