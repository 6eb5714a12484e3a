package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"leadscore/internal/cache"
	"leadscore/internal/config"
	"leadscore/internal/logger"
	"leadscore/internal/repository"
	"leadscore/internal/scoring"
	"leadscore/internal/service"
	"leadscore/internal/transport/rest"
	"leadscore/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("failed to ping mongodb", zap.Error(err))
	}
	log.Info("connected to mongodb", zap.String("database", cfg.MongoDB))

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisURI, "redis://")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("failed to ping redis", zap.Error(err))
	}
	log.Info("connected to redis", zap.String("addr", redisAddr))

	// WebSocket hub
	wsHub := ws.NewHub(log)

	// Repositories
	leadRepo := repository.NewLeadRepo(db)
	campaignRepo := repository.NewCampaignRepo(db)

	// Caches
	hotLeads := cache.NewHotLeadsCache(rdb)
	scoreCache := cache.NewScoreCache(rdb)
	analyticsCache := cache.NewAnalyticsCache(rdb, time.Duration(cfg.AnalyticsCacheTTL)*time.Second)

	// Scoring engine
	engine := scoring.NewEngine(scoring.DefaultCatalog())

	// Services
	authSvc := service.NewAuthService(cfg)
	leadSvc := service.NewLeadService(leadRepo, campaignRepo, engine, hotLeads, scoreCache, analyticsCache, log, cfg.HotLeadLimit)
	campaignSvc := service.NewCampaignService(campaignRepo, leadRepo, engine, analyticsCache, log)
	scoringSvc := service.NewScoringService(leadRepo, campaignRepo, engine, leadSvc, scoreCache, log)
	analyticsSvc := service.NewAnalyticsService(leadRepo, campaignRepo, analyticsCache, log)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	leadSvc.SetBroadcaster(wsHub)
	campaignSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		Config:           cfg,
		AuthService:      authSvc,
		LeadService:      leadSvc,
		CampaignService:  campaignSvc,
		ScoringService:   scoringSvc,
		AnalyticsService: analyticsSvc,
		WSHub:            wsHub,
		Logger:           log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen and serve", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
