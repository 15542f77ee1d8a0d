package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "github.com/poke-max/jomach-sub000/cmd/api/router/v1"
	blobadapter "github.com/poke-max/jomach-sub000/internal/infrastructure/blob/adapter"
	cacheadapter "github.com/poke-max/jomach-sub000/internal/infrastructure/cache/adapter"
	"github.com/poke-max/jomach-sub000/internal/infrastructure/database"
	"github.com/poke-max/jomach-sub000/internal/infrastructure/identity"
	queueadapter "github.com/poke-max/jomach-sub000/internal/infrastructure/queue/adapter"
	"github.com/poke-max/jomach-sub000/internal/infrastructure/realtime"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/task"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/unread"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/usecase"
	chatadapter "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "github.com/poke-max/jomach-sub000/internal/pkg/chat/presentation/http"
	"github.com/poke-max/jomach-sub000/internal/pkg/profile"
	profileadapter "github.com/poke-max/jomach-sub000/internal/pkg/profile/repository/adapter"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

func main() {
	// .env is optional; containerized deploys inject env directly
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	jwtSecret, err := identity.SecretFromEnv()
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}

	// Connect to the database on startup
	connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(connectCtx)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	cache, err := cacheadapter.NewRedisAdapter()
	if err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer cache.Close()

	queueClient, err := queueadapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Error("failed to create queue client", "err", err)
		os.Exit(1)
	}
	defer queueClient.Close()

	queueServer, err := queueadapter.NewAsynqServer()
	if err != nil {
		log.Error("failed to create queue server", "err", err)
		os.Exit(1)
	}

	blobStore, err := blobadapter.NewLocalStoreFromEnv()
	if err != nil {
		log.Error("failed to init attachment store", "err", err)
		os.Exit(1)
	}

	repo := chatadapter.NewPgConversationRepository(pool)
	hub := feed.NewHub(repo, log)
	bridge := unread.NewBridge()
	rtRouter := realtime.NewRouter()
	defer rtRouter.Close()

	directory := profile.NewDirectory(profileadapter.NewPgProfileRepository(pool), cache, log)
	notifier := task.NewQueueNotifier(queueClient)

	sendUC := usecase.NewSendMessageUseCase(repo, hub)
	task.RegisterSendMessageTask(queueServer, sendUC)
	task.RegisterNotifyTask(queueServer, rtRouter, log)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go func() {
		if err := queueServer.Run(workerCtx); err != nil {
			log.Error("queue server stopped", "err", err)
		}
	}()

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.Static("/attachments", blobStore.Dir())

	v1.RegisterRoutes(r, jwtSecret, httpHandler.Deps{
		Repo:     repo,
		Feed:     hub,
		Bridge:   bridge,
		Router:   rtRouter,
		Queue:    queueClient,
		Notifier: notifier,
		Names:    directory,
		Blob:     blobStore,
		Log:      log,
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Info("api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	stopWorkers()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "err", err)
	}
}
