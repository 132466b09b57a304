package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"goc-notion-sync/db"
	"goc-notion-sync/embedding"
	"goc-notion-sync/notion"
	"goc-notion-sync/pipeline"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 30 * time.Second

// newEmbedder 설정된 제공자의 어댑터를 속도 제한/서킷 브레이커로 감쌉니다
func newEmbedder(ctx context.Context, cfg *Config, taskType genai.TaskType, logger *slog.Logger) (*embedding.Guarded, error) {
	var inner embedding.Embedder
	switch cfg.Provider {
	case embedding.ProviderBedrock:
		e, err := embedding.NewBedrockEmbedder(ctx, embedding.BedrockConfig{
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			Region:    cfg.AWSRegion,
			ModelID:   cfg.EmbeddingModelID,
			Dimension: cfg.Dimension,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		e, err := embedding.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModelID, taskType)
		if err != nil {
			return nil, err
		}
		inner = e
	}
	return embedding.NewGuarded(inner, cfg.EmbedRatePerSec, cfg.Dimension, logger), nil
}

func openStore(ctx context.Context, cfg *Config, logger *slog.Logger) (db.Store, error) {
	return db.Open(ctx, db.Options{
		Backend:       cfg.Backend,
		ChromemPath:   cfg.DBPath,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		Logger:        logger,
	})
}

// checkEmbedder 짧은 텍스트를 임베딩해 자격 증명과 출력 차원을 확인합니다
func checkEmbedder(e embedding.Embedder) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := e.Embed(ctx, "connection check"); err != nil {
			return fmt.Errorf("임베딩 제공자 확인 실패: %w", err)
		}
		return nil
	}
}

// checkStore 컬렉션을 준비해 저장소 스키마가 설정과 맞는지 확인합니다
func checkStore(s db.Store, cfg *Config) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := s.EnsureCollection(ctx, cfg.Collection, cfg.Dimension, cfg.Metric); err != nil {
			return fmt.Errorf("저장소 확인 실패: %w", err)
		}
		return nil
	}
}

// checkAll 시작 시점 연결 확인을 병렬로 실행합니다. 하나라도 실패하면 ErrConnection입니다
func checkAll(ctx context.Context, checks ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		check := check
		g.Go(func() error {
			return check(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
	}
	return nil
}

// syncDeps 동기화에 필요한 협력자들
type syncDeps struct {
	loader   *notion.Loader
	store    db.Store
	embedder *embedding.Guarded
}

func (d *syncDeps) Close() {
	if d.embedder != nil {
		_ = d.embedder.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
}

// connectSync Notion, 임베딩 제공자, 저장소에 연결하고 모두 응답하는지 확인합니다
func connectSync(ctx context.Context, cfg *Config, logger *slog.Logger) (*syncDeps, error) {
	deps := &syncDeps{loader: notion.NewLoader(cfg.NotionAPIKey, logger)}

	embedder, err := newEmbedder(ctx, cfg, genai.TaskTypeRetrievalDocument, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
	}
	deps.embedder = embedder

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
	}
	deps.store = store

	if err := checkAll(ctx, deps.loader.Ping, checkEmbedder(embedder), checkStore(store, cfg)); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}
