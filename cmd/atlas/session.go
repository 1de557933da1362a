package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/researchatlas/atlas/internal/chat"
	"github.com/researchatlas/atlas/internal/config"
	"github.com/researchatlas/atlas/internal/embedding"
	"github.com/researchatlas/atlas/internal/logger"
	"github.com/researchatlas/atlas/internal/rag"
	"github.com/researchatlas/atlas/internal/semantic"
	"github.com/researchatlas/atlas/internal/storage"
)

// session holds the handles bound once at startup and reused for every question.
type session struct {
	store    *semantic.Store
	answerer chat.Answerer
}

// sessionIndex requires an existing index and applies the stale policy to it.
// Building is left to 'atlas index build'.
func sessionIndex(ctx context.Context, cfg *config.AppConfig, provider embedding.Provider) (*semantic.EnsureResult, error) {
	if !semantic.Exists(cfg.Index.Dir) {
		return nil, fmt.Errorf("%w: %s", semantic.ErrIndexNotFound, cfg.Index.Dir)
	}
	return ensureIndex(ctx, cfg, provider, false, humanOutput)
}

// mustOpenSession checks the API key, requires an existing index and wires
// the retriever to the answer model. Answers are appended to logPath when set.
// It exits on any failure.
func mustOpenSession(ctx context.Context, cfg *config.AppConfig, logPath string) *session {
	// Missing keys are fatal before any embedding work starts.
	generator := mustGenerator(ctx, cfg)
	provider := mustEmbeddingProvider(cfg)

	_, err := sessionIndex(ctx, cfg, provider)
	if errors.Is(err, semantic.ErrIndexNotFound) {
		exitWithError(ExitConfigError, "Vector index not found at %s\n\nRun 'atlas index build' to create the index.", cfg.Index.Dir)
	}
	exitOnError(err, "preparing index")

	store, err := semantic.OpenStore(cfg.Index.Dir)
	if errors.Is(err, semantic.ErrIndexNotFound) {
		exitWithError(ExitConfigError, "Vector index not found at %s\n\nRun 'atlas index build' to create the index.", cfg.Index.Dir)
	}
	exitOnError(err, "opening index")

	if err := checkDimensions(store, provider); err != nil {
		store.Close()
		exitWithError(ExitIndexStale, "%v\n\nRun 'atlas index build --force' to rebuild the index.", err)
	}
	if built := store.Manifest().Model; built != provider.ModelName() {
		logger.Warn("index was built with %s but queries use %s; results will be poor until it is rebuilt", built, provider.ModelName())
	}
	retriever := rag.NewRetriever(provider, store, cfg.LLM.TopK)
	logger.Debug("answering with %s from the top %d of %d documents", generator.ModelName(), retriever.K(), store.Manifest().DocumentCount)
	var answerer chat.Answerer = rag.NewAnswerer(retriever, generator)
	if logPath != "" {
		answerer = &transcriptAnswerer{Answerer: answerer, path: config.ExpandPath(logPath)}
	}
	return &session{store: store, answerer: answerer}
}

// checkDimensions fails when query vectors could never be compared with the stored ones.
// A provider reporting zero dimensions accepts whatever its model returns.
func checkDimensions(store *semantic.Store, provider embedding.Provider) error {
	want, got := store.Index().Dimensions, provider.Dimensions()
	if got == 0 || got == want {
		return nil
	}
	return fmt.Errorf("index at %s holds %d-dimensional vectors but %s produces %d", store.Dir(), want, provider.ModelName(), got)
}

func (s *session) Close() error {
	return s.store.Close()
}

// TranscriptEntry is one line of the --log file.
type TranscriptEntry struct {
	Time    time.Time      `json:"time"`
	Query   string         `json:"query"`
	Answer  string         `json:"answer"`
	Model   string         `json:"model"`
	Sources []SourceResult `json:"sources"`
}

// transcriptAnswerer appends every successful answer to a JSONL file.
// The file is never read back into prompts.
type transcriptAnswerer struct {
	chat.Answerer
	path string
}

func (t *transcriptAnswerer) Answer(ctx context.Context, query string, opts ...rag.RetrieveOption) (*rag.QueryResult, error) {
	result, err := t.Answerer.Answer(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	entry := TranscriptEntry{
		Time:    time.Now().UTC(),
		Query:   result.Query,
		Answer:  result.Answer,
		Model:   result.Model,
		Sources: sourceResults(result.Documents),
	}
	if err := storage.AppendJSONL(t.path, entry); err != nil {
		logger.Warn("writing transcript: %v", err)
	}
	return result, nil
}
