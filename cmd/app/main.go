package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mining_webapp/internal/bot"
	"mining_webapp/internal/config"
	"mining_webapp/internal/db"
	httpServer "mining_webapp/internal/http"
	"mining_webapp/internal/http/handlers"
	"mining_webapp/internal/http/middleware"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/ratelimit"
	"mining_webapp/internal/repository"
	"mining_webapp/internal/service"
	"mining_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type limiters struct {
	antiDDoS  ratelimit.Limiter
	rateLimit ratelimit.Limiter
	sweep     func(ctx context.Context, now time.Time)
}

// newLimiters keeps everything in Redis when it is reachable. Otherwise the hourly budget is
// persisted in Postgres and the burst guard lives in process memory.
func newLimiters(cfg *config.Config, client *redis.Client, rl *repository.RateLimitRepository) limiters {
	if client != nil {
		burst := ratelimit.NewRedisWindow(client, "ddos", cfg.AntiDDoSLimit, cfg.AntiDDoSWindow)
		return limiters{
			antiDDoS:  ratelimit.NewBanGuard(ratelimit.NewRedisBanStore(client, "ddos"), burst, cfg.AntiDDoSBan),
			rateLimit: ratelimit.NewRedisWindow(client, "api", cfg.RateLimitRequests, cfg.RateLimitWindow),
			sweep:     func(context.Context, time.Time) {}, // ключи истекают сами
		}
	}

	burstCounters := ratelimit.NewMemoryCounterStore()
	bans := ratelimit.NewMemoryBanStore()
	burst := ratelimit.NewFixedWindow(burstCounters, cfg.AntiDDoSLimit, cfg.AntiDDoSWindow)
	return limiters{
		antiDDoS:  ratelimit.NewBanGuard(bans, burst, cfg.AntiDDoSBan),
		rateLimit: ratelimit.NewFixedWindow(rl, cfg.RateLimitRequests, cfg.RateLimitWindow),
		sweep: func(ctx context.Context, now time.Time) {
			burstCounters.Sweep(now.Add(-cfg.AntiDDoSWindow))
			bans.Sweep(now)
			n, err := rl.DeleteExpired(ctx, now.Add(-cfg.RateLimitWindow))
			if err != nil {
				logger.Warn("rate limit cleanup failed", "error", err)
				return
			}
			if n > 0 {
				logger.Debug("rate limit windows removed", "count", n)
			}
		},
	}
}

func runSweeper(ctx context.Context, sweep func(context.Context, time.Time)) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweep(ctx, now)
		}
	}
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()
	store := repository.NewPgStore(dbPool)

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, using local rate limit stores", "addr", cfg.RedisAddr, "error", err)
	}
	var redisPing handlers.Pinger
	if redisClient != nil {
		defer redisClient.Close()
		redisPing = handlers.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	}

	lim := newLimiters(cfg, redisClient, repository.NewRateLimitRepository(dbPool))
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go runSweeper(bgCtx, lim.sweep)

	// Bot API client for membership checks; the update loop gets its own with a longer timeout
	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: cfg.TelegramAPITimeout})
	if err != nil {
		logger.Error("telegram bot api unavailable, membership checks will fail", "error", err)
		api = nil
	}
	var chatMembers service.ChatMemberGetter
	if api != nil {
		chatMembers = api
	}
	members := service.NewTelegramMembership(chatMembers, rate.NewLimiter(rate.Limit(cfg.TelegramAPIRPS), int(cfg.TelegramAPIRPS)+1))

	rules := mining.DefaultRules()
	audit := service.NewAuditService()
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.AdminTokenTTL)
	if cfg.AdminUsername == "" || cfg.AdminPasswordHash == "" {
		logger.Warn("admin credentials not configured, admin login is disabled")
	}

	auth := service.NewAuthenticator(store, service.AuthConfig{
		BotToken:       cfg.BotToken,
		AuthKeyCheck:   cfg.AuthKeyCheck,
		InitDataMaxAge: cfg.InitDataMaxAge,
	})
	admin := service.NewAdminService(store, audit, tokens, service.AdminConfig{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
	})

	h := &handlers.Handler{
		Store:         store,
		Authenticator: auth,
		Audit:         audit,
		Mining:        service.NewMiningService(store, rules, audit),
		Bonus:         service.NewBonusService(store, service.DefaultBonusConfig(), audit),
		Missions:      service.NewMissionService(store, members, audit),
		Conversions:   service.NewConversionService(store, audit),
		Admin:         admin,
		Members:       members,
		Hub:           ws.NewHub(),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(cfg.AllowedOrigin))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:          h,
		Health:           handlers.NewHealthHandler(store, redisPing, version),
		Tokens:           tokens,
		Upgrader:         ws.NewUpgrader(cfg.AllowedOrigin),
		AntiDDoS:         lim.antiDDoS,
		RateLimit:        lim.rateLimit,
		MiningStatusAuth: cfg.MiningStatusAuth,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	var tgBot *bot.Bot
	if cfg.BotEnabled && api != nil {
		if cfg.WebAppURL == "" {
			logger.Warn("WEBAPP_URL is not set, bot links will be relative")
		}
		botAPI, err := bot.NewAPI(cfg.BotToken, tgbotapi.APIEndpoint)
		if err != nil {
			logger.Error("telegram bot unavailable, update loop not started", "error", err)
		} else {
			tgBot = bot.New(botAPI, service.NewRegistrationService(store, rules), cfg.WebAppURL, cfg.BotUsername)
			go tgBot.Start()
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopBackground()
	if tgBot != nil {
		tgBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
