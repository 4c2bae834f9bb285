package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tracker-gateway/middleware/governance"
	"tracker-gateway/middleware/governance/domain"
	"tracker-gateway/middleware/governance/infra"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := readConfig()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal("invalid UPSTREAM_URL", zap.Error(err))
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	// Governance singletons: explicitly constructed here, injected into
	// the request path, lifetime = process.
	store := infra.NewStore(governance.DefaultProfiles(), governance.GlobalProfile())
	cache := infra.NewCache(cfg.cacheMaxEntries)
	breaker := infra.NewBreaker(cfg.breakerThreshold, cfg.breakerWindow, cfg.breakerCooldown)
	throttler := infra.NewThrottler(cfg.throttleMinDelay)
	memStats := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.rateStatsTrackKeys))

	var statsStore domain.StatsStore = memStats
	if cfg.rateStatsRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.rateStatsRedisAddr,
			Password: cfg.rateStatsRedisPassword,
			DB:       cfg.rateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Fatal("redis stats ping error", zap.Error(err))
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	// Shared stages.
	throttle := governance.ThrottleMiddleware(governance.ThrottleOptions{
		Throttle: throttler,
		Logger:   logger,
	})
	concurrency := governance.ConcurrencyMiddleware(governance.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		AcquireTimeout: cfg.concurrencyTimeout,
	})
	guarded := governance.BreakerMiddleware(governance.BreakerOptions{
		Breaker: breaker,
		Logger:  logger,
	})
	limited := func(class domain.Class) func(http.Handler) http.Handler {
		return governance.RateLimitMiddleware(governance.RateLimitOptions{
			Limits:              store,
			Class:               class,
			Stats:               statsStore,
			Logger:              logger,
			KeyHeader:           cfg.rateKeyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			AddRateLimitHeaders: cfg.addHeaders,
		})
	}
	cached := func(class domain.Class) func(http.Handler) http.Handler {
		return governance.CacheMiddleware(governance.CacheOptions{
			Cache:  cache,
			Class:  class,
			TTL:    cfg.cacheTTL,
			Logger: logger,
		})
	}

	r := chi.NewRouter()

	// Admission chain per route, outermost first: throttle, concurrency,
	// breaker (only where the upstream handler crosses the external data
	// API boundary), rate limit, cache (read routes), reverse proxy.
	h := http.Handler(proxy)
	r.With(throttle, concurrency, guarded, limited(domain.ClassUserWrite)).Post("/user/{handle}", h.ServeHTTP)
	r.With(throttle, concurrency, guarded, limited(domain.ClassUserWrite)).Put("/user/{handle}", h.ServeHTTP)
	r.With(throttle, concurrency, guarded, limited(domain.ClassUserWrite)).Delete("/user/{handle}", h.ServeHTTP)
	r.With(throttle, concurrency, guarded, limited(domain.ClassReferralUse)).Post("/referral/use", h.ServeHTTP)
	r.With(throttle, concurrency, limited(domain.ClassLeaderboardRead), cached(domain.ClassLeaderboardRead)).Get("/leaderboard", h.ServeHTTP)
	r.With(throttle, concurrency, limited(domain.ClassRankLookup), cached(domain.ClassRankLookup)).Get("/rank/{handle}", h.ServeHTTP)
	r.With(throttle, concurrency, guarded, limited(domain.ClassPointsLookup), cached(domain.ClassPointsLookup)).Get("/points/{handle}", h.ServeHTTP)
	r.With(throttle, concurrency, limited(domain.ClassReferralStats), cached(domain.ClassReferralStats)).Get("/referral/stats/{username}", h.ServeHTTP)

	r.Mount("/", governance.AdminRouter(governance.AdminOptions{
		Token:    cfg.adminToken,
		Cache:    cache,
		Breaker:  breaker,
		Throttle: throttler,
		Stats:    memStats,
		Logger:   logger,
	}))

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()),
		zap.Duration("throttle_min_delay", cfg.throttleMinDelay),
		zap.Int("breaker_threshold", cfg.breakerThreshold),
		zap.Duration("breaker_cooldown", cfg.breakerCooldown),
		zap.Int("cache_max_entries", cfg.cacheMaxEntries),
		zap.Duration("cache_ttl", cfg.cacheTTL),
		zap.Int("concurrency_max", cfg.concurrencyMax),
		zap.Bool("redis_stats", cfg.rateStatsRedisAddr != ""),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

type config struct {
	listenAddr  string
	upstreamURL string
	adminToken  string

	throttleMinDelay time.Duration

	breakerThreshold int
	breakerWindow    time.Duration
	breakerCooldown  time.Duration

	cacheMaxEntries int
	cacheTTL        time.Duration

	rateKeyHeader string
	trustXFF      bool
	addHeaders    bool

	concurrencyMax     int
	concurrencyTimeout time.Duration

	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsBucket        string
	rateStatsTrackKeys     bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.adminToken = os.Getenv("ADMIN_TOKEN")

	cfg.throttleMinDelay = getenvDurationDefault("THROTTLE_MIN_DELAY", 500*time.Millisecond)

	cfg.breakerThreshold = getenvIntDefault("BREAKER_FAILURE_THRESHOLD", 10)
	cfg.breakerWindow = getenvDurationDefault("BREAKER_WINDOW", 60*time.Second)
	cfg.breakerCooldown = getenvDurationDefault("BREAKER_COOLDOWN", 300*time.Second)

	cfg.cacheMaxEntries = getenvIntDefault("CACHE_MAX_ENTRIES", 1000)
	cfg.cacheTTL = getenvDurationDefault("CACHE_TTL", 2*time.Hour)

	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.rateStatsRedisAddr = strings.TrimSpace(os.Getenv("RATE_STATS_REDIS_ADDR"))
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "governance:stats")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.breakerThreshold <= 0 {
		return config{}, errors.New("BREAKER_FAILURE_THRESHOLD must be > 0")
	}
	if cfg.cacheMaxEntries <= 0 {
		return config{}, errors.New("CACHE_MAX_ENTRIES must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
