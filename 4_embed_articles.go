package bitewise

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// Embedder maps cleaned texts to fixed-length vectors, one per input.
// Implementations are loaded once and shared by all pipeline runs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
	Model() string
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	batchSize int
	dimension int
}

// OpenAIEmbedderConfig configures NewOpenAIEmbedder.
type OpenAIEmbedderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	BatchSize int
}

// NewOpenAIEmbedder creates the client and embeds one probe text to learn the
// vector dimension. An error here means no clustering can be served.
func NewOpenAIEmbedder(ctx context.Context, cfg OpenAIEmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	e := &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}

	probe, err := e.embedBatch(ctx, []string{""})
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model %s: %w", cfg.Model, err)
	}
	e.dimension = len(probe[0])
	return e, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }
func (e *OpenAIEmbedder) Model() string  { return e.model }

// Embed sends texts in batches and returns vectors in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	// The API rejects empty strings; whitespace still yields a vector.
	inputs := make([]string, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			text = " "
		}
		inputs[i] = text
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: inputs,
		},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data))
	}

	vectors := make([][]float64, len(inputs))
	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", idx)
		}
		vectors[idx] = item.Embedding
	}
	return vectors, nil
}

// HashEmbedder is a deterministic offline embedder built on feature hashing of
// unigrams and bigrams. Texts that share words land close in cosine space.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder producing vectors of length dim
// (256 when dim <= 0).
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimension() int { return h.dim }
func (h *HashEmbedder) Model() string  { return fmt.Sprintf("hash-%d", h.dim) }

func (h *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float64 {
	vec := make([]float64, h.dim)
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		h.add(vec, "", 1)
		return vec
	}
	for i, token := range tokens {
		h.add(vec, token, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+token, 0.5)
		}
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm = math.Sqrt(norm); norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (h *HashEmbedder) add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// CachedEmbedder stores vectors in SQLite keyed by model and text hash so
// repeated runs over the same articles do not call the model again.
type CachedEmbedder struct {
	inner Embedder
	db    *sql.DB
	log   *zap.SugaredLogger
}

// NewCachedEmbedder opens (or creates) the cache database at path.
func NewCachedEmbedder(inner Embedder, path string, log *zap.SugaredLogger) (*CachedEmbedder, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS embeddings (
		model TEXT NOT NULL,
		text_hash TEXT NOT NULL,
		embedding_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (model, text_hash)
	);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		if cerr := db.Close(); cerr != nil {
			log.Warnf("Failed to close embedding cache: %v", cerr)
		}
		return nil, fmt.Errorf("failed to create embeddings table: %w", err)
	}

	return &CachedEmbedder{inner: inner, db: db, log: log}, nil
}

func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }
func (c *CachedEmbedder) Model() string  { return c.inner.Model() }

// Close releases the cache database.
func (c *CachedEmbedder) Close() error {
	return c.db.Close()
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	model := c.inner.Model()

	var missTexts []string
	var missIdx []int
	missByHash := make(map[string][]int)
	for i, text := range texts {
		hash := textHash(text)
		vec, err := c.lookup(ctx, model, hash)
		if err != nil {
			return nil, err
		}
		if vec != nil {
			out[i] = vec
			continue
		}
		if _, pending := missByHash[hash]; !pending {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
		missByHash[hash] = append(missByHash[hash], i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	c.log.Debugf("Embedding cache: %d hits, %d misses", len(texts)-len(missIdx), len(missIdx))
	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		hash := textHash(missTexts[j])
		for _, i := range missByHash[hash] {
			out[i] = vec
		}
		if err := c.store(ctx, model, hash, vec); err != nil {
			c.log.Warnf("Failed to cache embedding: %v", err)
		}
	}
	return out, nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, model, hash string) ([]float64, error) {
	var embeddingJSON string
	err := c.db.QueryRowContext(ctx,
		"SELECT embedding_json FROM embeddings WHERE model = ? AND text_hash = ?", model, hash,
	).Scan(&embeddingJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}
	var vec []float64
	if err := json.Unmarshal([]byte(embeddingJSON), &vec); err != nil {
		return nil, fmt.Errorf("failed to parse cached embedding: %w", err)
	}
	return vec, nil
}

func (c *CachedEmbedder) store(ctx context.Context, model, hash string, vec []float64) error {
	embeddingJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO embeddings (model, text_hash, embedding_json) VALUES (?, ?, ?)",
		model, hash, string(embeddingJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
