package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"goc-notion-sync/db"
	"goc-notion-sync/notion"
	"goc-notion-sync/pipeline"
	"goc-notion-sync/search"
	"goc-notion-sync/ui"

	"github.com/google/generative-ai-go/genai"
)

func main() {
	// 플래그 파싱
	searchMode := flag.Bool("search", false, "동기화된 컬렉션을 검색하는 TUI를 실행합니다")
	exportPath := flag.String("export", "", "모든 페이지를 JSON 파일로 내보냅니다 (임베딩/저장 없음)")
	once := flag.Bool("once", false, "SYNC_INTERVAL이 설정되어 있어도 한 번만 동기화합니다")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 설정 로드
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}
	logger := newLogger(config)
	slog.SetDefault(logger)

	switch {
	case *exportPath != "":
		err = runExport(ctx, config, *exportPath, logger)
	case *searchMode:
		err = runSearch(ctx, config, logger)
	case config.SyncInterval > 0 && !*once:
		err = runSyncLoop(ctx, config, logger)
	default:
		err = runSyncOnce(ctx, config, logger)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		stop()
		log.Fatalf("실행 실패: %v", err)
	}
}

func newCoordinator(config *Config, deps *syncDeps, logger *slog.Logger) (*pipeline.Coordinator, error) {
	return pipeline.New(deps.loader, deps.store, deps.embedder, config.coordinatorOptions(), logger)
}

// runSyncOnce 동기화를 한 번 실행합니다. 페이지 단위 실패가 있어도 에러로 보지 않습니다
func runSyncOnce(ctx context.Context, config *Config, logger *slog.Logger) error {
	fmt.Println("🔌 Notion, 임베딩 제공자, 저장소 연결 확인 중...")
	deps, err := connectSync(ctx, config, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	coordinator, err := newCoordinator(config, deps, logger)
	if err != nil {
		return err
	}

	fmt.Printf("🔄 Notion 동기화를 시작합니다 (%s, %s)...\n", config.Provider, config.Backend)
	stats, err := coordinator.Run(ctx)
	fmt.Println(ui.RenderSummary(stats))
	return err
}

// runSyncLoop SYNC_INTERVAL마다 동기화합니다. 실행 사이 연결은 재사용합니다
func runSyncLoop(ctx context.Context, config *Config, logger *slog.Logger) error {
	deps, err := connectSync(ctx, config, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	coordinator, err := newCoordinator(config, deps, logger)
	if err != nil {
		return err
	}

	fmt.Printf("⏱️  %s마다 동기화합니다. 종료하려면 Ctrl+C를 누르세요.\n", config.SyncInterval)
	return runScheduled(ctx, config.SyncInterval, logger, func(ctx context.Context) {
		stats, err := coordinator.Run(ctx)
		fmt.Println(ui.RenderSummary(stats))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("동기화 실패", "error", err)
		}
	})
}

// runSearch 검색 TUI를 실행합니다. 질의 임베딩은 문서와 같은 모델을 씁니다
func runSearch(ctx context.Context, config *Config, logger *slog.Logger) error {
	embedder, err := newEmbedder(ctx, config, genai.TaskTypeRetrievalQuery, logger)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
	}
	defer embedder.Close()

	store, err := openStore(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrConnection, err)
	}
	defer store.Close()

	if err := checkAll(ctx, checkStore(store, config)); err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		if config.Backend == db.BackendChromem && !db.Exists(config.DBPath) {
			fmt.Println("⚠️  DB가 없습니다.")
		}
		fmt.Println("⚠️  저장된 문서가 없습니다. 먼저 -search 없이 실행해 동기화해주세요.")
		return nil
	}
	fmt.Printf("⚡ 컬렉션 %s를 로드했습니다. (총 %d개 청크)\n\n", config.Collection, count)

	searcher := search.NewSearcher(embedder, store, search.DefaultLimit, float32(config.MinSimilarity))
	if err := ui.Run(ctx, searcher); err != nil {
		return fmt.Errorf("TUI 실행 실패: %w", err)
	}
	return nil
}

// runExport Notion 페이지를 JSON 파일로 내보냅니다
func runExport(ctx context.Context, config *Config, path string, logger *slog.Logger) error {
	loader := notion.NewLoader(config.NotionAPIKey, logger)
	if err := checkAll(ctx, loader.Ping); err != nil {
		return err
	}

	fmt.Println("🔄 Notion에서 데이터를 가져오는 중...")
	n, err := exportToFile(ctx, loader, path, logger)
	if err != nil {
		return err
	}
	fmt.Printf("✅ %d개 페이지를 %s에 저장했습니다.\n", n, path)
	return nil
}
