package milvus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shakespeare-rag-api/internal/application/rag"
	"shakespeare-rag-api/internal/domain/corpus"
	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/metrics"
)

const listPageSize = 1000

// Repository implements the vector index port on Milvus.
type Repository struct {
	client    *Client
	dimension int
}

// NewRepository creates a Repository. dimension must match the
// embedding model in use.
func NewRepository(c *Client, dimension int) *Repository {
	return &Repository{client: c, dimension: dimension}
}

func (r *Repository) collection() string {
	if r.client.config.Collection != "" {
		return r.client.config.Collection
	}
	return DefaultCollection
}

func (r *Repository) opTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := r.client.config.Timeout; t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return ctx, func() {}
}

// EnsureReady creates the collection and index when missing and loads
// the collection. Never drops anything.
func (r *Repository) EnsureReady(ctx context.Context) error {
	ctx, cancel := r.opTimeout(ctx)
	defer cancel()

	collName := r.collection()
	exists, err := r.client.milvus.HasCollection(ctx, collName)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to check collection")
	}
	if !exists {
		schema := SceneChunksSchema(collName, r.dimension)
		if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to create collection")
		}
		if err := r.createIndex(ctx, collName); err != nil {
			return err
		}
	}
	if err := r.client.milvus.LoadCollection(ctx, collName, false); err != nil {
		return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to load collection")
	}
	return nil
}

func (r *Repository) createIndex(ctx context.Context, collName string) error {
	cfg := r.client.config
	m, ef := cfg.HNSWM, cfg.HNSWEfConstruction
	if m <= 0 {
		m = 16
	}
	if ef <= 0 {
		ef = 200
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, m, ef)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to build index spec")
	}
	if err := r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to create index")
	}
	return nil
}

// Upsert inserts or replaces records by chunk id.
func (r *Repository) Upsert(ctx context.Context, records []rag.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Upsert",
		trace.WithAttributes(attribute.Int("count", len(records))))
	defer span.End()

	ctx, cancel := r.opTimeout(ctx)
	defer cancel()

	n := len(records)
	ids := make([]string, n)
	vectors := make([][]float32, n)
	plays := make([]string, n)
	categories := make([]string, n)
	actLabels := make([]string, n)
	actNumbers := make([]int64, n)
	sceneTitles := make([]string, n)
	sceneNumbers := make([]int64, n)
	chunkIndexes := make([]int64, n)
	characters := make([]string, n)
	truncated := make([]bool, n)
	texts := make([]string, n)

	for i, rec := range records {
		ch := rec.Chunk
		ids[i] = ch.ID
		vectors[i] = rec.Vector
		plays[i] = ch.Play
		categories[i] = string(ch.Category)
		actLabels[i] = ch.ActLabel
		actNumbers[i] = int64(ch.ActOrdinal)
		sceneTitles[i] = ch.SceneTitle
		sceneNumbers[i] = int64(ch.SceneOrdinal)
		chunkIndexes[i] = int64(ch.ChunkOrdinal)
		characters[i] = strings.Join(ch.Characters, ", ")
		truncated[i] = ch.Truncated
		texts[i] = ch.Text
	}

	_, err := r.client.milvus.Upsert(ctx, r.collection(), "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("vector", r.dimension, vectors),
		entity.NewColumnVarChar("play", plays),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnVarChar("act_label", actLabels),
		entity.NewColumnInt64("act_number", actNumbers),
		entity.NewColumnVarChar("scene_title", sceneTitles),
		entity.NewColumnInt64("scene_number", sceneNumbers),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnVarChar("characters", characters),
		entity.NewColumnBool("truncated", truncated),
		entity.NewColumnVarChar("text_content", texts),
	)
	if err != nil {
		span.RecordError(err)
		metrics.IndexUpsertTotal.WithLabelValues("milvus", "error").Add(float64(n))
		return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to upsert chunks")
	}
	metrics.IndexUpsertTotal.WithLabelValues("milvus", "ok").Add(float64(n))
	return nil
}

// buildFilter turns a metadata filter into a Milvus boolean expression
// evaluated before ranking.
func buildFilter(filter *rag.SearchFilter) string {
	if filter == nil {
		return ""
	}
	var parts []string
	if filter.Play != "" {
		parts = append(parts, fmt.Sprintf(`play == "%s"`, escape(filter.Play)))
	}
	if filter.Act != "" {
		parts = append(parts, fmt.Sprintf(`act_label == "%s"`, escape(filter.Act)))
	}
	if filter.Character != "" {
		parts = append(parts, fmt.Sprintf(`characters like "%%%s%%"`, escapeLike(filter.Character)))
	}
	return strings.Join(parts, " && ")
}

func escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

// escapeLike additionally drops the like wildcard, which Milvus
// expressions cannot escape. Equality values keep their % characters.
func escapeLike(v string) string {
	return strings.ReplaceAll(escape(v), "%", "")
}

// Search runs a filtered ANN search and returns up to k results ranked
// by similarity descending, ties broken by chunk id ascending.
func (r *Repository) Search(ctx context.Context, vector []float32, k int, filter *rag.SearchFilter) ([]rag.RetrievedResult, error) {
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(attribute.Int("top_k", k)))
	defer span.End()

	ctx, cancel := r.opTimeout(ctx)
	defer cancel()

	ef := r.client.config.SearchEf
	if ef <= 0 {
		ef = 64
	}
	if ef < k {
		ef = k
	}
	sp, err := entity.NewIndexHNSWSearchParam(ef)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to build search param")
	}

	start := time.Now()
	results, err := r.client.milvus.Search(ctx,
		r.collection(),
		nil,
		buildFilter(filter),
		[]string{"id", "play", "category", "act_label", "act_number", "scene_title", "scene_number", "chunk_index", "characters", "truncated", "text_content"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		entity.COSINE,
		k,
		sp,
	)
	metrics.IndexSearchDuration.WithLabelValues("milvus").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.IndexSearchTotal.WithLabelValues("milvus", "error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "search failed")
	}
	metrics.IndexSearchTotal.WithLabelValues("milvus", "ok").Inc()

	out := collectResults(results, k)
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

// collectResults decodes the search response into ranked results. With
// the COSINE metric Milvus scores are similarities, higher is closer,
// so they are used as-is; ties are broken by chunk id ascending.
func collectResults(results []client.SearchResult, k int) []rag.RetrievedResult {
	var out []rag.RetrievedResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			chunk := corpus.Chunk{}
			if col, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				chunk.ID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("play").(*entity.ColumnVarChar); ok {
				chunk.Play = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("category").(*entity.ColumnVarChar); ok {
				chunk.Category = corpus.Category(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("act_label").(*entity.ColumnVarChar); ok {
				chunk.ActLabel = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("act_number").(*entity.ColumnInt64); ok {
				chunk.ActOrdinal = int(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("scene_title").(*entity.ColumnVarChar); ok {
				chunk.SceneTitle = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("scene_number").(*entity.ColumnInt64); ok {
				chunk.SceneOrdinal = int(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("chunk_index").(*entity.ColumnInt64); ok {
				chunk.ChunkOrdinal = int(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("characters").(*entity.ColumnVarChar); ok {
				chunk.Characters = splitCharacters(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("truncated").(*entity.ColumnBool); ok {
				chunk.Truncated = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				chunk.Text = col.Data()[i]
			}

			out = append(out, rag.RetrievedResult{
				Chunk:      chunk,
				Similarity: float64(result.Scores[i]),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// DeleteByPlay removes every chunk of one play.
func (r *Repository) DeleteByPlay(ctx context.Context, play string) error {
	ctx, span := tracer.Start(ctx, "milvus.DeleteByPlay",
		trace.WithAttributes(attribute.String("play", play)))
	defer span.End()

	ctx, cancel := r.opTimeout(ctx)
	defer cancel()

	expr := fmt.Sprintf(`play == "%s"`, escape(play))
	if err := r.client.milvus.Delete(ctx, r.collection(), "", expr); err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to delete chunks")
	}
	return nil
}

// ListPlays returns the distinct plays in the index with their
// categories.
func (r *Repository) ListPlays(ctx context.Context) ([]corpus.PlayRef, error) {
	categories := make(map[string]corpus.Category)
	err := r.scan(ctx, []string{"play", "category"}, func(rs client.ResultSet) {
		playCol, ok := rs.GetColumn("play").(*entity.ColumnVarChar)
		if !ok {
			return
		}
		catCol, _ := rs.GetColumn("category").(*entity.ColumnVarChar)
		for i, title := range playCol.Data() {
			if title == "" {
				continue
			}
			if catCol != nil && i < catCol.Len() {
				categories[title] = corpus.Category(catCol.Data()[i])
			} else if _, seen := categories[title]; !seen {
				categories[title] = ""
			}
		}
	})
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(categories))
	for title := range categories {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	out := make([]corpus.PlayRef, len(titles))
	for i, title := range titles {
		out[i] = corpus.PlayRef{Title: title, Category: categories[title]}
	}
	return out, nil
}

// ListCharacters returns the distinct character names in the index.
func (r *Repository) ListCharacters(ctx context.Context) ([]string, error) {
	set := make(map[string]struct{})
	err := r.scan(ctx, []string{"characters"}, func(rs client.ResultSet) {
		col, ok := rs.GetColumn("characters").(*entity.ColumnVarChar)
		if !ok {
			return
		}
		for _, v := range col.Data() {
			for _, name := range splitCharacters(v) {
				set[name] = struct{}{}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return sortedSet(set), nil
}

// scan pages through the whole collection reading the given metadata
// fields. The first field drives the pagination row count.
func (r *Repository) scan(ctx context.Context, fields []string, visit func(client.ResultSet)) error {
	ctx, span := tracer.Start(ctx, "milvus.Scan",
		trace.WithAttributes(attribute.String("fields", strings.Join(fields, ","))))
	defer span.End()

	for offset := 0; ; offset += listPageSize {
		opCtx, cancel := r.opTimeout(ctx)
		rs, err := r.client.milvus.Query(opCtx, r.collection(), nil, `id != ""`, fields,
			client.WithOffset(int64(offset)), client.WithLimit(listPageSize))
		cancel()
		if err != nil {
			span.RecordError(err)
			return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "failed to scan collection")
		}

		col := rs.GetColumn(fields[0])
		if col == nil || col.Len() == 0 {
			return nil
		}
		visit(rs)
		if col.Len() < listPageSize {
			return nil
		}
	}
}

func splitCharacters(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
