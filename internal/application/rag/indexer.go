package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"shakespeare-rag-api/internal/domain/corpus"
	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/logger"
	"shakespeare-rag-api/pkg/metrics"
)

const (
	defaultEmbedBatch  = 64
	defaultConcurrency = 4
)

// Indexer runs the ingestion pipeline: parse, chunk, embed, upsert.
type Indexer struct {
	parser      *Parser
	chunker     *Chunker
	embedder    Embedder
	index       VectorIndex
	catalog     *Catalog
	batchSize   int
	concurrency int
}

// NewIndexer creates an Indexer. catalog may be nil; when set, its
// cached listings are invalidated after a successful run.
func NewIndexer(parser *Parser, chunker *Chunker, embedder Embedder, index VectorIndex, catalog *Catalog, batchSize, concurrency int) *Indexer {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatch
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Indexer{
		parser:      parser,
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		catalog:     catalog,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// IngestDir ingests every play listed in the manifest file. Plays are
// processed concurrently; a play that fails to parse or embed is
// recorded in the report and never blocks the others.
func (ix *Indexer) IngestDir(ctx context.Context, corpusDir, manifestPath string) (*IngestReport, error) {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	if err := ix.index.EnsureReady(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "vector index not ready")
	}

	report := &IngestReport{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)

	for _, info := range manifest {
		info := info
		g.Go(func() error {
			scenes, chunks, err := ix.ingestOne(gctx, corpusDir, info)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Context cancellation stops the run; anything else is
				// isolated to this play.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Error(gctx, "play ingestion failed", err, "play", info.Title)
				metrics.IngestPlaysTotal.WithLabelValues("error").Inc()
				report.PlaysFailed++
				report.Failures = append(report.Failures, PlayFailure{Play: info.Title, Err: err})
				return nil
			}
			metrics.IngestPlaysTotal.WithLabelValues("ok").Inc()
			report.PlaysIngested++
			report.ScenesParsed += scenes
			report.ChunksIndexed += chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if ix.catalog != nil {
		ix.catalog.Invalidate(ctx)
	}

	logger.Info(ctx, "ingestion finished",
		"plays_ingested", report.PlaysIngested,
		"plays_failed", report.PlaysFailed,
		"scenes", report.ScenesParsed,
		"chunks", report.ChunksIndexed,
	)
	return report, nil
}

func (ix *Indexer) ingestOne(ctx context.Context, corpusDir string, info corpus.PlayInfo) (scenes, chunks int, err error) {
	f, err := os.Open(filepath.Join(corpusDir, info.File))
	if err != nil {
		return 0, 0, apperrors.Wrap(err, apperrors.CodeParseError, fmt.Sprintf("play %q: cannot open source file", info.Title))
	}
	defer f.Close()

	play, err := ix.parser.Parse(f, info)
	if err != nil {
		return 0, 0, err
	}
	for _, act := range play.Acts {
		scenes += len(act.Scenes)
	}

	all := ix.chunker.ChunkPlay(play)
	if err := ix.IndexChunks(ctx, all); err != nil {
		return 0, 0, err
	}

	logger.Info(ctx, "play ingested", "play", info.Title, "scenes", scenes, "chunks", len(all))
	return scenes, len(all), nil
}

// IndexChunks embeds chunks in batches and upserts them. Upserts are
// idempotent by chunk id.
func (ix *Indexer) IndexChunks(ctx context.Context, chunks []corpus.Chunk) error {
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Text
		}

		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return apperrors.Newf(apperrors.CodeEmbeddingUnavailable,
				"embedding count mismatch: %d texts, %d vectors", len(batch), len(vectors))
		}

		records := make([]ChunkRecord, len(batch))
		for i := range batch {
			records[i] = ChunkRecord{Chunk: batch[i], Vector: vectors[i]}
		}
		if err := ix.index.Upsert(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

// ReingestPlay replaces the indexed content of one play.
func (ix *Indexer) ReingestPlay(ctx context.Context, corpusDir string, info corpus.PlayInfo) error {
	if err := ix.index.DeleteByPlay(ctx, info.Title); err != nil {
		return err
	}
	_, _, err := ix.ingestOne(ctx, corpusDir, info)
	if err != nil {
		return err
	}
	if ix.catalog != nil {
		ix.catalog.Invalidate(ctx)
	}
	return nil
}

// LoadManifest reads the plays manifest and validates categories.
func LoadManifest(path string) ([]corpus.PlayInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var manifest []corpus.PlayInfo
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	for i, info := range manifest {
		cat, err := corpus.ParseCategory(string(info.Category))
		if err != nil {
			return nil, fmt.Errorf("manifest entry %q: %w", info.Title, err)
		}
		manifest[i].Category = cat
	}
	return manifest, nil
}
