// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/festa/internal/auth"
	"github.com/hitoshi/festa/internal/blog"
	"github.com/hitoshi/festa/internal/config"
	"github.com/hitoshi/festa/internal/database"
	"github.com/hitoshi/festa/internal/handler"
	"github.com/hitoshi/festa/internal/logger"
	"github.com/hitoshi/festa/internal/member"
	"github.com/hitoshi/festa/internal/merch"
	"github.com/hitoshi/festa/internal/metrics"
	"github.com/hitoshi/festa/internal/middleware"
	"github.com/hitoshi/festa/internal/moves"
	"github.com/hitoshi/festa/internal/repository"
	"github.com/hitoshi/festa/internal/schedule"
	"github.com/hitoshi/festa/internal/teaminfo"
	"github.com/hitoshi/festa/internal/video"
	"github.com/hitoshi/festa/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、JSON構造化ログをセットアップしてから設定を読む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// .envはローカル開発用。存在しなくてもエラーにしない。
	_ = godotenv.Load()

	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// 期限切れセッションの掃除ジョブもサーバープロセス内のgoroutineで回す。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	teamRepo := repository.NewPostgresTeamRepo(db)
	dancerRepo := repository.NewPostgresDancerRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	participantRepo := repository.NewPostgresParticipantRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	blogRepo := repository.NewPostgresBlogRepo(db)
	teamInfoRepo := repository.NewPostgresTeamInfoRepo(db)
	videoCategoryRepo := repository.NewPostgresVideoCategoryRepo(db)
	videoRepo := repository.NewPostgresVideoRepo(db)
	itemRepo := repository.NewPostgresItemRepo(db)
	inventoryRepo := repository.NewPostgresInventoryRepo(db)
	purchaseRepo := repository.NewPostgresPurchaseRepo(db)
	moveRepo := repository.NewPostgresDanceMoveRepo(db)
	completionRepo := repository.NewPostgresCompletionRepo(db)

	// 3. ドメインサービスの初期化
	authService := auth.NewService(
		teamRepo, dancerRepo, sessionRepo,
		time.Duration(cfg.SessionMaxAge)*time.Second,
	)
	memberService := member.NewService(dancerRepo)
	scheduleService := schedule.NewService(scheduleRepo, participantRepo, commentRepo)
	blogService := blog.NewService(blogRepo)
	teamInfoService := teaminfo.NewService(teamInfoRepo)
	videoService := video.NewService(
		videoCategoryRepo, videoRepo,
		video.NewOEmbedClient(cfg.OEmbedTimeout),
	)
	moveService := moves.NewService(moveRepo, completionRepo)
	merchService := merch.NewService(itemRepo, inventoryRepo, purchaseRepo)

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. レートリミッターの初期化
	generalLimiter := middleware.NewRateLimiter(cfg.RateLimitGeneral)
	defer generalLimiter.Stop()
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth)
	defer authLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Sessions:          sessionRepo,
		Principals:        dancerRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		GeneralLimiter: generalLimiter,
		AuthLimiter:    authLimiter,
		Logger:         slog.Default(),

		Metrics:         collector,
		MetricsGatherer: registry,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		MemberService:   memberService,
		ScheduleService: scheduleService,
		BlogService:     blogService,
		TeamInfoService: teamInfoService,
		VideoService:    videoService,
		MoveService:     moveService,
		MerchService:    merchService,
	}

	router := handler.NewRouter(deps)

	// 7. セッション掃除ジョブの起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupJob := cleanup.NewCleanupJob(sessionRepo, collector, slog.Default())
	go cleanupJob.RunLoop(ctx, cfg.SessionCleanupInterval)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
