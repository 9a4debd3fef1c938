package http

import (
	"mining_webapp/internal/http/handlers"
	"mining_webapp/internal/http/middleware"
	"mining_webapp/internal/ratelimit"
	"mining_webapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the routes are built from. Limiters are injected so tests and
// single-instance deployments can use in-memory stores.
type Deps struct {
	Handler  *handlers.Handler
	Health   *handlers.HealthHandler
	Tokens   *service.TokenIssuer
	Upgrader *websocket.Upgrader

	AntiDDoS  ratelimit.Limiter // burst guard with ban
	RateLimit ratelimit.Limiter // per-IP hourly budget

	// MiningStatusAuth=false lets GET /mining/status through with only a user id.
	MiningStatusAuth bool
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := d.Handler

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	guard := middleware.RateLimit("anti_ddos", d.AntiDDoS, nil)
	limit := middleware.RateLimit("api", d.RateLimit, nil)
	user := middleware.UserAuth(h.Authenticator)

	r.GET("/ws/mining", guard, h.WS(d.Upgrader))

	v1 := r.Group("/api/v1")
	v1.Use(guard, limit)

	// Auth
	v1.POST("/auth", h.Auth)
	v1.GET("/user", user, h.MyProfile)
	v1.GET("/config", h.PublicConfig)

	// Mining
	if d.MiningStatusAuth {
		v1.GET("/mining/status", user, h.MiningStatus)
	} else {
		v1.GET("/mining/status", middleware.Identify(), h.MiningStatus)
	}
	v1.POST("/mining/start", user, h.StartMining)
	v1.POST("/mining/claim", user, h.ClaimMining)
	v1.GET("/boosts", user, h.BoostInfo)
	v1.POST("/boosts/upgrade", user, h.UpgradeBoost)

	// Bonus and referrals
	v1.POST("/bonus/welcome", user, h.ClaimWelcomeBonus)
	v1.GET("/referrals", user, h.GetReferrals)

	// Missions
	v1.GET("/missions", h.GetMissions)
	v1.GET("/user-missions", user, h.GetUserMissions)
	v1.POST("/missions/:id/start", user, h.StartMission)
	v1.POST("/missions/:id/claim", user, h.ClaimMission)
	v1.GET("/verify-telegram", user, h.VerifyTelegram)
	v1.POST("/promo-codes/redeem", user, h.RedeemPromoCode)

	// Conversions
	v1.GET("/conversions", user, h.ListConversions)
	v1.POST("/conversions", user, h.CreateConversion)

	v1.GET("/leaderboard", h.GetLeaderboard)

	// Admin
	v1.POST("/admin/login", h.AdminLogin)
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuth(d.Tokens))
	{
		admin.GET("/stats", h.AdminStats)
		admin.POST("/users/:id/status", h.AdminSetUserStatus)
		admin.GET("/conversions", h.AdminPendingConversions)
		admin.POST("/conversions/:id/resolve", h.AdminResolveConversion)
	}
}
