package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

// Client stores policy chunks in a single Qdrant collection with a named
// dense vector for semantic search and a named sparse vector for lexical
// search. Both retrieval legs of the pipeline read from it.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID: uuid.NewString(),
			Vector: map[string]any{
				denseVectorName:  vectors[i],
				sparseVectorName: encodeSparseDocument(chunk.Text, doc.Title),
			},
			Payload: map[string]any{
				"chunk_id":     chunk.ID,
				"doc_id":       doc.DocID,
				"title":        doc.Title,
				"category":     doc.Category,
				"applies_to":   doc.AppliesTo,
				"section_path": strings.Join(chunk.SectionPath, " > "),
				"chunk_index":  chunk.Index,
				"text":         chunk.Text,
			},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

// Search runs the dense leg. Qdrant reports cosine similarity in [-1, 1],
// larger = closer; hits carry a distance, smaller = closer, so the score is
// converted and clamped at zero.
func (c *Client) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.VectorHit, error) {
	points, err := c.queryPoints(ctx, map[string]any{
		"query":        queryVector,
		"using":        denseVectorName,
		"limit":        limit,
		"with_payload": true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.VectorHit, 0, len(points))
	for _, p := range points {
		distance := 1.0 - p.Score
		if distance < 0 {
			distance = 0
		}
		out = append(out, domain.VectorHit{
			ID:       getStringPayload(p.Payload, "chunk_id"),
			Text:     getStringPayload(p.Payload, "text"),
			Metadata: payloadMetadata(p.Payload),
			Distance: distance,
		})
	}
	return out, nil
}

// SearchLexical runs the sparse leg over the same collection. Scores are raw
// term-match weights, larger = more relevant.
func (c *Client) SearchLexical(ctx context.Context, queryTokens []string, limit int) ([]domain.LexicalHit, error) {
	sparse := encodeSparseQuery(queryTokens)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	points, err := c.queryPoints(ctx, map[string]any{
		"query":        sparse,
		"using":        sparseVectorName,
		"limit":        limit,
		"with_payload": true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.LexicalHit, 0, len(points))
	for _, p := range points {
		out = append(out, domain.LexicalHit{
			ID:       getStringPayload(p.Payload, "chunk_id"),
			Text:     getStringPayload(p.Payload, "text"),
			Metadata: payloadMetadata(p.Payload),
			Score:    p.Score,
		})
	}
	return out, nil
}

type scoredPoint struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) queryPoints(ctx context.Context, reqBody map[string]any) ([]scoredPoint, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return nil, fmt.Errorf("qdrant query status: %s: %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("qdrant query status: %s", resp.Status)
	}

	var queryResp struct {
		Result struct {
			Points []scoredPoint `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return queryResp.Result.Points, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func payloadMetadata(payload map[string]any) domain.ChunkMetadata {
	return domain.ChunkMetadata{
		DocID:       getStringPayload(payload, "doc_id"),
		Title:       getStringPayload(payload, "title"),
		Category:    getStringPayload(payload, "category"),
		AppliesTo:   getStringPayload(payload, "applies_to"),
		SectionPath: getStringPayload(payload, "section_path"),
		ChunkIndex:  getIntPayload(payload, "chunk_index"),
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// LexicalSearcher adapts the shared client to the lexical retrieval leg so
// both legs can be wired from one connection.
type LexicalSearcher struct {
	client *Client
}

func NewLexicalSearcher(client *Client) *LexicalSearcher {
	return &LexicalSearcher{client: client}
}

func (s *LexicalSearcher) Search(ctx context.Context, queryTokens []string, limit int) ([]domain.LexicalHit, error) {
	return s.client.SearchLexical(ctx, queryTokens, limit)
}
