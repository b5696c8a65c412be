package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/MLServe/internal/adapter/utils"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/dashboard"
	"github.com/akolanti/MLServe/internal/middleware"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server     *http.Server
	_logger    *logger_i.Logger
	loggerOnce sync.Once
)

func initLogger() {
	loggerOnce.Do(func() { _logger = logger_i.NewLogger("Server") })
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes are the paths that deployments may move, plus optional handlers mounted beside the API
type Routes struct {
	HealthRoute  string
	PredictRoute string
	MCP          http.Handler
}

func NewRoutes(settings *config.Settings, mcp http.Handler) Routes {
	return Routes{
		HealthRoute:  settings.HealthRoute,
		PredictRoute: settings.PredictRoute,
		MCP:          mcp,
	}
}

// RegisterRoutes mounts every API route on r
func RegisterRoutes(r chi.Router, routes Routes) {
	r.Get("/", middleware.HomeHandler)
	r.Get(routes.HealthRoute, middleware.HealthHandler)
	r.Post(routes.PredictRoute, middleware.PredictInstancesHandler)
	r.Post("/predict", middleware.PredictHandler)

	r.Get("/api/review", middleware.GetReviewHandler)
	r.Post("/api/review", middleware.PostReviewHandler)

	r.Post("/detect_faces", middleware.DetectFacesHandler)
	r.Post("/recognize_celebrity", middleware.RecognizeCelebrityHandler)

	r.Get("/api/words/similar", middleware.GetSimilarWordsHandler)
	r.Post("/api/words/ingest", middleware.PostIngestHandler)

	r.Get("/dashboard", middleware.WrapPublic(dashboard.PageHandler))
	r.Route("/boards", func(r chi.Router) {
		r.Post("/", middleware.PostBoardHandler)
		r.Get("/{id}", middleware.GetBoardHandler)
		r.Post("/{id}/words", middleware.PostBoardWordHandler)
		r.Delete("/{id}/words", middleware.DeleteBoardWordsHandler)
		r.Post("/{id}/figure", middleware.PostBoardFigureHandler)
		r.Get("/{id}/ws", middleware.BoardSocketHandler)
	})

	r.Get("/status/{id}", middleware.GetStatusHandler)
	r.Get("/api/history", middleware.GetHistoryHandler)

	if routes.MCP != nil {
		r.Handle("/mcp", middleware.WrapHandler(routes.MCP))
	}
}

func CreateServer(listenAddr string, routes Routes) {
	initLogger()

	r := utils.GetRouter(middleware.CORS)
	RegisterRoutes(r.Router, routes)

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	initLogger()
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "error", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully is shutting down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
