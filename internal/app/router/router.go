// Package router はHTTPルーティングを構成します。
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "review_backend/internal/feature/auth/transport/handler"
	reviewhandler "review_backend/internal/feature/reviews/transport/handler"
	sentimenthandler "review_backend/internal/feature/sentiment/transport/handler"
	platformhandler "review_backend/internal/platform/http/handler"
	jwtmw "review_backend/internal/platform/jwt"
	"review_backend/internal/platform/metrics"
	"review_backend/internal/platform/middleware"
)

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Auth     *authhandler.AuthHandler
	Reviews  *reviewhandler.ReviewHandler
	Realtime *sentimenthandler.RealtimeHandler
	Health   *platformhandler.HealthHandler
}

// NewRouter はミドルウェアとルートを登録したGinエンジンを返します。
// jwtSecret は /me の検証に使います。
func NewRouter(h Handlers, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(metrics.Middleware())
	// ブラウザクライアントはどのオリジンからでも呼び出せる
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:   []string{middleware.HeaderRequestID},
		MaxAge:          12 * time.Hour,
	}))

	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// レビュー
	r.POST("/all-reviews", h.Reviews.AllReviews)
	r.POST("/user-reviews/:userId", h.Reviews.UserReviews)
	r.POST("/save-review", h.Reviews.SaveReview)

	// 新規登録・ログイン
	r.POST("/admin-signup", h.Auth.AdminSignup)
	r.POST("/user-signup", h.Auth.UserSignup)
	r.POST("/admin-login", h.Auth.AdminLogin)
	r.POST("/user-login", h.Auth.UserLogin)

	// リアルタイム予測
	r.GET("/ws", h.Realtime.ServeWS)

	// 認証必須のルート
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(jwtSecret))
	{
		auth.GET("/me", h.Auth.Me)
	}

	return r
}
