// Command ingest parses a corpus directory, chunks and embeds the
// scenes, and upserts them into the vector index.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shakespeare-rag-api/internal/application/rag"
	"shakespeare-rag-api/internal/config"
	"shakespeare-rag-api/internal/domain/corpus"
	"shakespeare-rag-api/internal/infrastructure/openai"
	"shakespeare-rag-api/internal/infrastructure/persistence/milvus"
	redisinfra "shakespeare-rag-api/internal/infrastructure/persistence/redis"
	"shakespeare-rag-api/pkg/logger"
)

func main() {
	corpusDir := flag.String("corpus", "", "corpus directory (default from config)")
	manifest := flag.String("manifest", "", "plays manifest file (default from config)")
	replacePlay := flag.String("replace", "", "re-ingest a single play by title, replacing its chunks")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *corpusDir == "" {
		*corpusDir = cfg.Ingest.CorpusDir
	}
	if *manifest == "" {
		*manifest = cfg.Ingest.PlaysFile
	}

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to milvus", err)
	}
	defer milvusClient.Close()
	index := milvus.NewRepository(milvusClient, cfg.Embedding.Dimension)

	// Cache invalidation only matters when the API serves from redis.
	var catalog *rag.Catalog
	if cfg.Cache.Redis.Enabled {
		if redisClient, err := redisinfra.NewClient(ctx, &cfg.Cache.Redis); err == nil {
			defer redisClient.Close()
			catalog = rag.NewCatalog(index, redisinfra.NewCache(redisClient, cfg.Cache.CatalogTTL))
		} else {
			logger.Warn(ctx, "redis unavailable, skipping catalog invalidation", "error", err.Error())
		}
	}

	providerClient := openai.NewClient(cfg.OpenAI)
	embedder := openai.NewEmbeddingClient(providerClient, cfg.Embedding)

	chunking := cfg.Ingest.Chunking
	indexer := rag.NewIndexer(
		rag.NewParser(),
		rag.NewChunker(chunking.MaxChars, chunking.MinChars, chunking.OverlapSentences),
		embedder,
		index,
		catalog,
		cfg.Embedding.BatchSize,
		cfg.Ingest.Concurrency,
	)

	start := time.Now()

	if *replacePlay != "" {
		if err := replaceOne(ctx, indexer, *corpusDir, *manifest, *replacePlay); err != nil {
			logger.Fatal(ctx, "re-ingestion failed", err, "play", *replacePlay)
		}
		logger.Info(ctx, "play re-ingested", "play", *replacePlay, "elapsed", time.Since(start).String())
		return
	}

	report, err := indexer.IngestDir(ctx, *corpusDir, *manifest)
	if err != nil {
		logger.Fatal(ctx, "ingestion failed", err)
	}

	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", failure.Play, failure.Err)
	}
	fmt.Printf("ingested %d plays (%d scenes, %d chunks), %d failed, in %s\n",
		report.PlaysIngested, report.ScenesParsed, report.ChunksIndexed,
		report.PlaysFailed, time.Since(start).Round(time.Millisecond))

	if report.PlaysIngested == 0 && report.PlaysFailed > 0 {
		os.Exit(1)
	}
}

func replaceOne(ctx context.Context, indexer *rag.Indexer, corpusDir, manifestPath, title string) error {
	manifest, err := rag.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	var info *corpus.PlayInfo
	for i := range manifest {
		if manifest[i].Title == title {
			info = &manifest[i]
			break
		}
	}
	if info == nil {
		return fmt.Errorf("play %q not found in manifest %s", title, manifestPath)
	}
	return indexer.ReingestPlay(ctx, corpusDir, *info)
}
