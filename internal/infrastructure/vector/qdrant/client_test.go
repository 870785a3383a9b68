package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

func testDocument() *domain.Document {
	return &domain.Document{
		ID:        "11111111-1111-1111-1111-111111111111",
		DocID:     "refund-policy",
		Title:     "Refund Policy",
		Category:  "billing",
		AppliesTo: "Pro, Team",
	}
}

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "refund-policy::c0000", Text: "Eligible for refund within 14 days.", SectionPath: []string{"Refund Policy", "Eligibility"}, Index: 0},
		{ID: "refund-policy::c0001", Text: "Open a billing ticket to start.", SectionPath: []string{"Refund Policy", "Process"}, Index: 1},
	}
}

func TestIndexChunksEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/policies":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/policies/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), testDocument(), testChunks(), vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), testDocument(), testChunks(), vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestIndexChunksUpsertsBothVectorsAndFullPayload(t *testing.T) {
	var upsert struct {
		Points []struct {
			Vector  map[string]json.RawMessage `json:"vector"`
			Payload map[string]any             `json:"payload"`
		} `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/policies/points" {
			if err := json.NewDecoder(r.Body).Decode(&upsert); err != nil {
				t.Errorf("decode upsert body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	err := client.IndexChunks(context.Background(), testDocument(), testChunks(), [][]float32{{0.1, 0.2}, {0.3, 0.4}})
	if err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}

	if len(upsert.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(upsert.Points))
	}
	p := upsert.Points[0]
	if _, ok := p.Vector[denseVectorName]; !ok {
		t.Fatalf("missing dense vector in %v", p.Vector)
	}
	if _, ok := p.Vector[sparseVectorName]; !ok {
		t.Fatalf("missing sparse vector in %v", p.Vector)
	}
	if got := p.Payload["chunk_id"]; got != "refund-policy::c0000" {
		t.Fatalf("chunk_id = %v", got)
	}
	if got := p.Payload["applies_to"]; got != "Pro, Team" {
		t.Fatalf("applies_to = %v", got)
	}
	if got := p.Payload["section_path"]; got != "Refund Policy > Eligibility" {
		t.Fatalf("section_path = %v", got)
	}
}

func TestSearchConvertsSimilarityToDistance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/policies/points/query" {
			_, _ = w.Write([]byte(`{"result":{"points":[
				{"score":0.75,"payload":{"chunk_id":"refund-policy::c0000","doc_id":"refund-policy","category":"billing","chunk_index":3,"text":"body"}},
				{"score":1.2,"payload":{"chunk_id":"refund-policy::c0001","text":"other"}}
			]}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	hits, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "refund-policy::c0000" || hits[0].Distance != 0.25 {
		t.Fatalf("unexpected first hit %+v", hits[0])
	}
	if hits[0].Metadata.Category != "billing" || hits[0].Metadata.ChunkIndex != 3 {
		t.Fatalf("metadata not decoded: %+v", hits[0].Metadata)
	}
	// Scores above 1 clamp to distance zero.
	if hits[1].Distance != 0 {
		t.Fatalf("expected clamped distance 0, got %f", hits[1].Distance)
	}
}

func TestSearchLexicalUsesSparseVectorAndRawScores(t *testing.T) {
	var query map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/policies/points/query" {
			if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
				t.Errorf("decode query body: %v", err)
			}
			_, _ = w.Write([]byte(`{"result":{"points":[
				{"score":4.2,"payload":{"chunk_id":"refund-policy::c0000","text":"refund"}}
			]}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	hits, err := NewLexicalSearcher(client).Search(context.Background(), []string{"refund", "window"}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Score != 4.2 {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if got := query["using"]; got != sparseVectorName {
		t.Fatalf("expected sparse leg, using=%v", got)
	}
}

func TestSearchLexicalEmptyTokensSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	hits, err := client.SearchLexical(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("SearchLexical() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v", hits)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/policies" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	err := client.IndexChunks(context.Background(), testDocument(), testChunks()[:1], [][]float32{{0.1, 0.2}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
