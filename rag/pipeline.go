// Package rag ties a Chunker and an Embedder onto an engine.Engine
// collection, providing the ingest/query surface a retrieval-augmented
// generation caller expects instead of the engine's lower-level
// vector/metadata API.
package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lucelabs/vessel/collection"
	"github.com/lucelabs/vessel/engine"
	"github.com/lucelabs/vessel/metadata"
)

// Result is one retrieval hit, hydrated with the chunk's original text.
type Result struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

// Pipeline chunks, embeds, and indexes text into one collection shared
// across tenants, and resolves text queries against it. Every Ingest,
// Query, and Remove call takes the tenant it is acting on; a collection
// built with WithRequireTenant rejects any call that omits one.
type Pipeline struct {
	engine     *engine.Engine
	collection string
	chunker    Chunker
	chunkOpts  ChunkOptions
	embedder   Embedder
	forceFlat  bool

	mu       sync.RWMutex
	contents map[string]string // chunk id -> original chunk text
}

// Builder configures a Pipeline.
type Builder struct {
	chunker       Chunker
	chunkOpts     ChunkOptions
	embedder      Embedder
	forceFlat     bool
	requireTenant bool
}

// NewBuilder starts building a Pipeline.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithChunker(c Chunker) *Builder              { b.chunker = c; return b }
func (b *Builder) WithChunkOptions(opts ChunkOptions) *Builder { b.chunkOpts = opts; return b }
func (b *Builder) WithEmbedder(e Embedder) *Builder            { b.embedder = e; return b }

// WithForceFlat makes every Query issued by the built Pipeline default to a
// brute-force scan instead of the HNSW graph, useful for collections small
// enough that the graph's overhead outweighs its benefit.
func (b *Builder) WithForceFlat() *Builder { b.forceFlat = true; return b }

// WithRequireTenant creates the backing collection with RequireTenant set,
// rejecting any Ingest/Query/Remove call that omits a tenant.
func (b *Builder) WithRequireTenant() *Builder { b.requireTenant = true; return b }

// Build constructs the Pipeline over collectionName, owned by e, creating
// the backing collection if one with this name does not already exist.
func (b *Builder) Build(e *engine.Engine, collectionName string) (*Pipeline, error) {
	chunker := b.chunker
	if chunker == nil {
		chunker = NewRecursiveChunker()
	}
	embedder := b.embedder
	if embedder == nil {
		embedder = NewHashingEmbedder(256)
	}

	if _, ok := e.GetCollection(collectionName); !ok {
		if _, err := e.CreateCollection(collectionName, engine.CreateCollectionOptions{
			Dimension:     embedder.Dimension(),
			RequireTenant: b.requireTenant,
		}); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		engine:     e,
		collection: collectionName,
		chunker:    chunker,
		chunkOpts:  b.chunkOpts.withDefaults(),
		embedder:   embedder,
		forceFlat:  b.forceFlat,
		contents:   make(map[string]string),
	}, nil
}

// Ingest chunks text, embeds each chunk, and inserts them into the backing
// collection under freshly minted chunk ids, which it returns. tenantID is
// the tenant this ingest is acting on; pass "" for a non-tenant-scoped
// collection.
func (p *Pipeline) Ingest(ctx context.Context, tenantID, text string, meta map[string]any) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	chunks := p.chunker.Chunk(text, p.chunkOpts)
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("rag: embed: %w", err)
	}

	ids := make([]string, len(chunks))
	docs := make([]engine.InsertDoc, len(chunks))
	for i, c := range chunks {
		chunkID := uuid.NewString()

		docMeta := make(map[string]any, len(meta)+4)
		for k, v := range meta {
			docMeta[k] = v
		}
		docMeta["chunk_index"] = c.Index
		docMeta["char_start"] = c.CharStart
		docMeta["char_end"] = c.CharEnd
		docMeta["word_count"] = c.WordCount

		ids[i] = chunkID
		docs[i] = engine.InsertDoc{ID: chunkID, Vector: vectors[i], Metadata: docMeta}
		p.contents[chunkID] = c.Text
	}

	if err := p.insert(tenantID, docs); err != nil {
		return nil, fmt.Errorf("rag: insert: %w", err)
	}

	p.engine.AuditLog().Append("rag_ingest", p.actor(tenantID), p.collection, len(docs), 0,
		map[string]any{"tenant": tenantID, "chunks": len(docs)})

	return ids, nil
}

// Query embeds query and returns its topK nearest chunks, hydrated with
// their original text. tenantID is the tenant this query is acting on;
// pass "" for a non-tenant-scoped collection.
func (p *Pipeline) Query(ctx context.Context, tenantID, query string, topK int) ([]Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}

	res, err := p.search(tenantID, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("rag: query: %w", err)
	}

	out := make([]Result, len(res.Results))
	for i, r := range res.Results {
		out[i] = Result{
			ID:       r.ID,
			Score:    r.Score,
			Text:     p.contents[r.ID],
			Metadata: nativeAnyMeta(r.Metadata),
		}
	}

	p.engine.AuditLog().Append("rag_query", p.actor(tenantID), p.collection, len(out), 0,
		map[string]any{"tenant": tenantID, "query": query})

	return out, nil
}

// Remove deletes the chunks named by ids, acting as tenantID.
func (p *Pipeline) Remove(tenantID string, ids ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	if err := p.remove(tenantID, ids); err != nil {
		return err
	}

	for _, id := range ids {
		delete(p.contents, id)
	}

	return nil
}

func (p *Pipeline) insert(tenantID string, docs []engine.InsertDoc) error {
	var err error
	if tenantID != "" {
		_, err = p.engine.Tenant(p.collection, tenantID).Insert(docs)
	} else {
		_, err = p.engine.Insert(p.collection, docs)
	}
	return err
}

func (p *Pipeline) search(tenantID string, vector []float64, topK int) (collection.QueryResult, error) {
	opts := engine.QueryOptions{TopK: topK, ForceFlat: p.forceFlat}
	if tenantID != "" {
		return p.engine.Tenant(p.collection, tenantID).Query(vector, opts)
	}
	return p.engine.Query(p.collection, vector, opts)
}

func (p *Pipeline) remove(tenantID string, ids []string) error {
	var err error
	if tenantID != "" {
		_, err = p.engine.Tenant(p.collection, tenantID).Delete(ids)
	} else {
		_, err = p.engine.Delete(p.collection, ids)
	}
	return err
}

func (p *Pipeline) actor(tenantID string) string {
	if tenantID == "" {
		return "rag"
	}
	return "rag:tenant:" + tenantID
}

func nativeAnyMeta(meta metadata.Document) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v.Native()
	}
	return out
}
