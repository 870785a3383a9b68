package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/skobelevs/policy-qa/internal/config"
	"github.com/skobelevs/policy-qa/internal/core/ports"
	"github.com/skobelevs/policy-qa/internal/core/usecase"
	"github.com/skobelevs/policy-qa/internal/infrastructure/cache"
	"github.com/skobelevs/policy-qa/internal/infrastructure/chunking"
	"github.com/skobelevs/policy-qa/internal/infrastructure/extractor"
	"github.com/skobelevs/policy-qa/internal/infrastructure/extractor/markdown"
	"github.com/skobelevs/policy-qa/internal/infrastructure/extractor/pdf"
	"github.com/skobelevs/policy-qa/internal/infrastructure/extractor/plaintext"
	"github.com/skobelevs/policy-qa/internal/infrastructure/llm/ollama"
	natsqueue "github.com/skobelevs/policy-qa/internal/infrastructure/queue/nats"
	"github.com/skobelevs/policy-qa/internal/infrastructure/repository/postgres"
	"github.com/skobelevs/policy-qa/internal/infrastructure/resilience"
	"github.com/skobelevs/policy-qa/internal/infrastructure/storage/localfs"
	"github.com/skobelevs/policy-qa/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	AskUC     ports.QuestionAnswerer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	lexical := qdrant.NewLexicalSearcher(vectorDB)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractors := extractor.NewRegistry(
		markdown.NewExtractor(storage),
		plaintext.NewExtractor(storage),
		pdf.NewExtractor(storage),
	)

	retrievalCache := cache.NewRetrievalCache(cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, extractors)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractors, chunker, embedder, vectorDB)
	askUC := usecase.NewAskUseCase(embedder, vectorDB, lexical, generator, retrievalCache)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AskUC:     askUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
