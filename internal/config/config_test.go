package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RETRIEVAL_CACHE_SIZE", "")
	t.Setenv("RETRIEVAL_CACHE_TTL_SECONDS", "")

	cfg := Load()
	if cfg.ChunkSize != 900 {
		t.Fatalf("expected default chunk size 900, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 120 {
		t.Fatalf("expected default chunk overlap 120, got %d", cfg.ChunkOverlap)
	}
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.CacheSize != 512 {
		t.Fatalf("expected default cache size 512, got %d", cfg.CacheSize)
	}
	if cfg.CacheTTLSeconds != 300 {
		t.Fatalf("expected default cache ttl 300s, got %d", cfg.CacheTTLSeconds)
	}
}

func TestLoadParsesTrafficOverrides(t *testing.T) {
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_RATE_LIMIT_BURST", "4")
	t.Setenv("API_MAX_IN_FLIGHT", "16")
	t.Setenv("API_QUEUE_TIMEOUT_MS", "250")

	cfg := Load()
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIRateLimitBurst != 4 {
		t.Fatalf("expected rate limit burst 4, got %d", cfg.APIRateLimitBurst)
	}
	if cfg.APIMaxInFlight != 16 {
		t.Fatalf("expected max in-flight 16, got %d", cfg.APIMaxInFlight)
	}
	if cfg.APIQueueTimeoutMS != 250 {
		t.Fatalf("expected queue timeout 250ms, got %d", cfg.APIQueueTimeoutMS)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("RAG_TOP_K", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected fallback top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected fallback rate limit 0, got %v", cfg.APIRateLimitRPS)
	}
}
