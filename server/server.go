package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NowFM/cache"
	"NowFM/config"
	"NowFM/core/bus"
	"NowFM/core/lastfm"
	"NowFM/core/session"
	"NowFM/logger"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server and the background poller.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	if cfg.LastFMAPIKey == "" || cfg.LastFMUser == "" {
		log.Fatal("LASTFM_API_KEY and LASTFM_USER must be set")
	}

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Connect to Redis. 缓存是可选的：连不上就降级为无预热运行。
	var eventCache session.EventCache
	if cfg.RedisEnabled {
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("Redis unavailable, running without warm-start cache", logger.ErrorField(err))
		} else {
			defer cache.CloseRedis()
			eventCache = cache.NewNowPlayingCache()
			log.Println("Successfully connected to Redis")
		}
	}

	store := session.NewStore()
	eventBus := bus.New()
	fetcher := lastfm.NewClient(cfg.LastFMAPIKey, cfg.LastFMAPISecret, cfg.LastFMUser)
	poller := session.NewPoller(fetcher, store, eventBus, eventCache,
		time.Duration(cfg.PollIntervalSeconds)*time.Second, cfg.PublishStopped)

	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	go poller.Run(pollerCtx)

	// 初始化处理器
	apiHandler := NewAPIHandler(cfg, store, eventBus, eventCache)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// API Endpoints
	router.HandleFunc("/ws/nowplaying", apiHandler.NowPlayingWSHandler)
	router.HandleFunc("/api/nowplaying", apiHandler.NowPlayingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/position", apiHandler.PositionHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", apiHandler.HealthHandler).Methods(http.MethodGet)

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		log.Printf("Server starting on %s...", cfg.ListenAddr)
		log.Printf("Tracking Last.fm user %q every %ds", cfg.LastFMUser, cfg.PollIntervalSeconds)
		log.Println("Subscribe via ws://<host>/ws/nowplaying")
		log.Println("Poll current state via GET /api/nowplaying and /api/position")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号
	<-stop
	log.Println("Shutting down server...")
	stopPoller()

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
