package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planmate/config"
	"planmate/database"
	"planmate/database/repository/history"
	"planmate/handlers"
	"planmate/routes"
	"planmate/services/agent"
	"planmate/services/command"
	"planmate/services/geo"
	"planmate/services/nlu"
	"planmate/services/planner"
	"planmate/services/schedule"
	"planmate/services/search"
	"planmate/utils"

	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	// The plan archive is auxiliary: without a database the assistant
	// still plans, it just forgets.
	var archive history.Repository
	if err := database.InitDB(); err != nil {
		logger.Warn("running without plan history archive", zap.Error(err))
	} else {
		archive = history.NewMongoRepository()
		defer database.CloseDB(context.Background())
	}

	var store agent.SessionStore
	if config.AppConfig.RedisAddr != "" {
		utils.InitSessionCache()
		store = agent.NewRedisSessionStore(utils.GetSessionCacheClient())
	} else {
		logger.Info("no Redis configured, keeping sessions in memory")
		store = agent.NewMemorySessionStore()
	}

	ctx := context.Background()
	lang, err := nlu.NewGeminiNLU(ctx)
	if err != nil {
		logger.Fatal("failed to initialize NLU", zap.Error(err))
	}
	defer lang.Close()

	places := search.NewPlaceSearcher()
	catalog := search.NewService(places, search.NewEventSearcher(), places)

	engine := agent.NewEngine(
		store,
		lang,
		catalog,
		geo.NewGeocoder(),
		planner.NewBuilder(geo.NewRouter(), schedule.NewParser()),
		command.NewProcessor(),
		archive,
	)

	router := routes.SetupRoutes(handlers.NewHandlerBundle(engine, archive))

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", config.AppConfig.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
