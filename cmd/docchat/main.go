package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/mitra-ai/docchat/internal/ai"
	"github.com/mitra-ai/docchat/internal/chunker"
	"github.com/mitra-ai/docchat/internal/config"
	"github.com/mitra-ai/docchat/internal/filestore"
	"github.com/mitra-ai/docchat/internal/handler"
	"github.com/mitra-ai/docchat/internal/job"
	"github.com/mitra-ai/docchat/internal/middleware"
	"github.com/mitra-ai/docchat/internal/parser"
	"github.com/mitra-ai/docchat/internal/repo"
	"github.com/mitra-ai/docchat/internal/schedule"
	"github.com/mitra-ai/docchat/internal/service"
	"github.com/mitra-ai/docchat/internal/session"
	"github.com/mitra-ai/docchat/internal/vectorindex"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docchat",
		Short: "document chat backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_path", cfg.DBPath),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("index", cfg.Index.Type),
	)

	store, err := filestore.New(cfg.FileStore.Type, cfg.FileStore.Data)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)

	newIndex := func(provider string, name string) (vectorindex.Index, error) {
		return vectorindex.New(cfg.Index.Type, cfg.Index.Data, provider, name)
	}

	aiTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	docRepo := repo.NewDocumentRepo(db)
	sessions := session.NewStore()
	ref := service.NewIndexRef()
	ingestService := service.NewIngestService(
		parser.NewPDFParser(),
		embedder,
		newIndex,
		chunker.Config{ChunkSize: cfg.Chunk.Size, ChunkOverlap: cfg.Chunk.Overlap},
		cfg.VectorstoreDir,
		aiTimeout,
	)
	chatService := service.NewChatService(
		embedder,
		generator,
		ref,
		sessions,
		cfg.TopK,
		aiTimeout,
		cfg.Cache.Size,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
	)
	documentService := service.NewDocumentService(store, ingestService, docRepo, ref)

	deps := handler.RouterDeps{
		Chat:      handler.NewChatHandler(chatService),
		Sessions:  handler.NewSessionHandler(sessions),
		Documents: handler.NewDocumentHandler(documentService),
		Health:    handler.NewHealthHandler(ref),
	}
	if cfg.RateLimitMs > 0 {
		deps.UploadLimit = middleware.RateLimit(time.Duration(cfg.RateLimitMs) * time.Millisecond)
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := documentService.Bootstrap(ctx, cfg.DefaultDocument); err != nil {
		logutil.GetLogger(ctx).Warn("default document bootstrap failed", zap.Error(err))
	}

	if cfg.Session.TTLHours > 0 {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewSessionSweepJob(sessions, cfg.Session.TTLHours), cfg.Session.SweepSpec); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
