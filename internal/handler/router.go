package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/festa/internal/metrics"
	"github.com/hitoshi/festa/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Sessions          middleware.SessionStore
	Principals        middleware.PrincipalResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	GeneralLimiter    *middleware.RateLimiter
	AuthLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	// サービス
	AuthService     AuthServiceInterface
	AuthConfig      AuthHandlerConfig
	MemberService   MemberServiceInterface
	ScheduleService ScheduleServiceInterface
	BlogService     BlogServiceInterface
	TeamInfoService TeamInfoServiceInterface
	VideoService    VideoServiceInterface
	MoveService     MoveServiceInterface
	MerchService    MerchServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → Logging → SecurityHeaders
//	/auth/* はIPレート制限のみ（未認証）
//	/api/* は Session → CSRF → 踊り子レート制限
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics, deps.AuthConfig)
	memberHandler := NewMemberHandler(deps.MemberService, deps.AuthConfig)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService, deps.Metrics)
	blogHandler := NewBlogHandler(deps.BlogService)
	teamInfoHandler := NewTeamInfoHandler(deps.TeamInfoService)
	videoHandler := NewVideoHandler(deps.VideoService)
	moveHandler := NewMoveHandler(deps.MoveService)
	itemHandler := NewItemHandler(deps.MerchService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/teams", authHandler.ListTeams)
		r.Post("/teams", authHandler.RegisterTeam)
		r.Post("/register", authHandler.Register)
		// ログインとパスワード再設定は総当たり対策のIPレート制限を掛ける
		r.With(middleware.NewIPRateLimitMiddleware(deps.AuthLimiter)).Post("/login", authHandler.Login)
		r.With(middleware.NewIPRateLimitMiddleware(deps.AuthLimiter)).Post("/reset-password", authHandler.ResetPassword)
		r.Post("/logout", authHandler.Logout)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(踊り子単位)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Sessions, deps.Principals))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewDancerRateLimitMiddleware(deps.GeneralLimiter))

		r.Get("/api/me", authHandler.Me)
		r.Put("/api/me/profile", memberHandler.UpdateProfile)
		r.Delete("/api/me", memberHandler.Withdraw)

		// メンバー管理
		r.Route("/api/members", func(r chi.Router) {
			r.Get("/", memberHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memberHandler.Get)
				r.Put("/approval", memberHandler.UpdateApproval)
				r.Put("/role", memberHandler.ChangeRole)
			})
		})

		// 予定管理
		r.Route("/api/schedules", func(r chi.Router) {
			r.Get("/", scheduleHandler.List)
			r.Post("/", scheduleHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", scheduleHandler.Get)
				r.Put("/", scheduleHandler.Update)
				r.Delete("/", scheduleHandler.Delete)
				r.Put("/participation", scheduleHandler.ToggleParticipation)
				r.Post("/comments", scheduleHandler.PostComment)
			})
		})
		r.Delete("/api/comments/{id}", scheduleHandler.DeleteComment)

		// ブログ
		r.Route("/api/blogs", func(r chi.Router) {
			r.Get("/", blogHandler.List)
			r.Post("/", blogHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", blogHandler.Get)
				r.Put("/", blogHandler.Update)
				r.Delete("/", blogHandler.Delete)
			})
		})

		// お知らせ
		r.Route("/api/team-info", func(r chi.Router) {
			r.Get("/", teamInfoHandler.List)
			r.Post("/", teamInfoHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", teamInfoHandler.Get)
				r.Put("/", teamInfoHandler.Update)
				r.Delete("/", teamInfoHandler.Delete)
			})
		})

		// 動画
		r.Route("/api/video-categories", func(r chi.Router) {
			r.Get("/", videoHandler.ListCategories)
			r.Post("/", videoHandler.CreateCategory)
			r.Delete("/{id}", videoHandler.DeleteCategory)
		})
		r.Route("/api/videos", func(r chi.Router) {
			r.Get("/", videoHandler.List)
			r.Post("/", videoHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", videoHandler.Update)
				r.Delete("/", videoHandler.Delete)
			})
		})

		// 技
		r.Route("/api/dance-moves", func(r chi.Router) {
			r.Get("/", moveHandler.List)
			r.Post("/", moveHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", moveHandler.Get)
				r.Put("/", moveHandler.Update)
				r.Delete("/", moveHandler.Delete)
				r.Put("/completion", moveHandler.ToggleCompletion)
			})
		})

		// グッズ・在庫・購入
		r.Route("/api/items", func(r chi.Router) {
			r.Get("/", itemHandler.ListItems)
			r.Post("/", itemHandler.CreateItem)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", itemHandler.GetItem)
				r.Put("/", itemHandler.UpdateItem)
				r.Delete("/", itemHandler.DeleteItem)
				r.Put("/inventory", itemHandler.SetInventory)
				r.Post("/purchases", itemHandler.Purchase)
			})
		})
		r.Route("/api/purchases", func(r chi.Router) {
			r.Get("/", itemHandler.ListPurchases)
			r.Put("/{id}/delivery", itemHandler.MarkDelivered)
			r.Delete("/{id}/delivery", itemHandler.UnmarkDelivered)
		})
	})

	return r
}
