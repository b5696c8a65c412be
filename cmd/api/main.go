// @title           MLE MasterClass API
// @version         1.0
// @description     Iris classifier serving, review sentiment, word embedding exploration and face recognition.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/dashboard"
	"github.com/akolanti/MLServe/internal/data/auditStore"
	"github.com/akolanti/MLServe/internal/data/redisStore"
	"github.com/akolanti/MLServe/internal/data/store"
	jobmodel "github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/handlers"
	"github.com/akolanti/MLServe/internal/job"
	"github.com/akolanti/MLServe/internal/mcpserver"
	"github.com/akolanti/MLServe/internal/middleware"
	"github.com/akolanti/MLServe/internal/server"
	"github.com/akolanti/MLServe/internal/worker"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

const version = "1.0.0"

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	settings := config.Load()
	logger_i.Init(settings)
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	hub := dashboard.NewHub()
	go hub.Run(serviceContext)

	//init job service, job store and board store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		Notifier:          hub,
	}
	jobRedis := redisStore.GetRedisStore(serviceContext, settings, config.RedisJobStore)
	boardRedis := redisStore.GetRedisStore(serviceContext, settings, config.RedisBoardStore)
	if jobRedis == nil || boardRedis == nil {
		logger.Error("Redis stores are offline, falling back to memory")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.BoardStore = store.InitInMemoryBoardStore()
	} else {
		serviceConfig.JobStore = store.NewRedisJobStore(jobRedis)
		serviceConfig.BoardStore = store.NewRedisBoardStore(boardRedis)
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	audit, err := auditStore.Open(settings.AuditDBPath)
	if err != nil {
		logger.Error("Audit store unavailable, history is disabled", "path", settings.AuditDBPath, "error", err)
	} else {
		defer audit.Close()
	}

	//backends. each one is optional, its routes answer 503 when missing
	handlerConfig := handlers.Config{
		JobService: service,
		Subscriber: hub,
	}
	if audit != nil {
		handlerConfig.Audit = audit
	}
	if predictor, err := buildClassifier(serviceContext, settings); err != nil {
		logger.Error("Model unavailable", "backend", settings.ModelBackend, "error", err)
	} else {
		defer predictor.Close()
		handlerConfig.Predictor = predictor
	}
	if analyzer, err := buildSentiment(serviceContext, settings); err != nil {
		logger.Error("Sentiment backend unavailable", "provider", settings.SentimentProvider, "error", err)
	} else {
		handlerConfig.Sentiment = analyzer
	}
	wordService, err := buildWords(serviceContext, settings)
	if err != nil {
		logger.Error("Word embeddings unavailable", "provider", settings.EmbeddingProvider, "error", err)
	} else {
		handlerConfig.Words = wordService
		worker.InitServices(service, wordService)
		worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)
	}
	if faces := buildVision(serviceContext, settings); faces != nil {
		handlerConfig.Vision = faces
	}

	handlers.Init(handlerConfig)
	middleware.Init(settings)

	tools := mcpserver.Tools{}
	if handlerConfig.Predictor != nil {
		tools.Predictor = handlerConfig.Predictor
	}
	if handlerConfig.Sentiment != nil {
		tools.Sentiment = handlerConfig.Sentiment
	}
	if wordService != nil {
		tools.Words = wordService
	}
	mcpHandler := mcpserver.Handler(mcpserver.NewServer(version, tools))

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, server.NewRoutes(settings, mcpHandler))

	<-stopExecution
	logger.Info("Server stopped")
}
