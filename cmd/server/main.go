package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xypp3/leetcode-battleroyal/internal/cache"
	"github.com/xypp3/leetcode-battleroyal/internal/config"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
	"github.com/xypp3/leetcode-battleroyal/internal/scheduler"
	"github.com/xypp3/leetcode-battleroyal/internal/service"
	"github.com/xypp3/leetcode-battleroyal/internal/transport/rest"
	"github.com/xypp3/leetcode-battleroyal/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	roomRepo := repository.NewRoomRepo(db)
	playerRepo := repository.NewPlayerRepo(db)
	attackRepo := repository.NewAttackRepo(db)
	questionRepo := repository.NewQuestionRepo(db)

	// Initialize caches
	roomCache := cache.NewRoomCache(rdb)

	// Initialize scheduler
	sched := scheduler.New(rdb, cfg.PollInterval)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	questionSvc := service.NewQuestionService(questionRepo)
	matchmakerSvc := service.NewMatchmakerService(roomRepo, playerRepo, roomCache, sched, authSvc, config.DefaultRules())
	matchSvc := service.NewMatchService(roomRepo, playerRepo, questionRepo, attackRepo, roomCache, sched)
	attackSvc := service.NewAttackService(roomRepo, playerRepo, questionRepo, attackRepo, roomCache, sched)
	roundSvc := service.NewRoundService(roomRepo, playerRepo, roomCache)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	matchmakerSvc.SetBroadcaster(wsHub)
	matchSvc.SetBroadcaster(wsHub)
	attackSvc.SetBroadcaster(wsHub)
	roundSvc.SetBroadcaster(wsHub)

	// Register scheduled transitions
	sched.Register(service.OpActivateRoom, matchSvc.HandleActivateRoom)
	sched.Register(service.OpResolveAttack, attackSvc.HandleResolveAttack)
	sched.Register(service.OpAdvanceRound, roundSvc.HandleAdvanceRound)

	schedCtx, schedCancel := context.WithCancel(ctx)
	defer schedCancel()
	go sched.Run(schedCtx)

	// Optional external judge
	var judge service.Judge
	if cfg.JudgeURL != "" {
		judge = service.NewJudgeClient(cfg.JudgeURL)
		log.Printf("Judge configured at %s", cfg.JudgeURL)
	} else {
		log.Println("Warning: JUDGE_URL not set, trusting client-reported test results")
	}

	// Create router with container
	container := &rest.Container{
		AuthService:       authSvc,
		MatchmakerService: matchmakerSvc,
		MatchService:      matchSvc,
		QuestionService:   questionSvc,
		Judge:             judge,
		WSHub:             wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/match/join")
		log.Println("  GET  /v1/rooms/{roomId}/state")
		log.Println("  GET  /v1/rooms/{roomId}/winner")
		log.Println("  GET  /v1/rooms/{roomId}/attacks")
		log.Println("  GET  /v1/question/current")
		log.Println("  POST /v1/submissions")
		log.Println("  POST /v1/time")
		log.Println("  WS   /v1/ws/rooms/{roomId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	schedCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
