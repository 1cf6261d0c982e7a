package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"interview-prep/domain"
	"interview-prep/infrastructure"
	"interview-prep/interfaces"
	"interview-prep/usecase"
)

func main() {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}
	log := infrastructure.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Runs outlive the request that started them and stop only on shutdown.
	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	var closers []io.Closer

	// Database
	db, err := infrastructure.NewDatabase(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	repo := infrastructure.NewInterviewRepository(db)
	feedbackRepo := infrastructure.NewFeedbackRepository(db)

	// Reasoning service
	var llm domain.Completer
	switch cfg.LLMProvider {
	case "vertex":
		gemini, err := infrastructure.NewGeminiClient(runCtx, cfg.VertexProject, cfg.VertexLocation, cfg.LLMModel, cfg.LLMTimeout, cfg.LLMRatePerSec, log)
		if err != nil {
			log.WithError(err).Fatal("vertex ai client failed")
		}
		closers = append(closers, gemini)
		llm = gemini
	default:
		llm = infrastructure.NewOpenAIClient(infrastructure.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.LLMModel,
			Timeout:    cfg.LLMTimeout,
			RatePerSec: cfg.LLMRatePerSec,
		}, log)
	}

	var pages domain.PageFetcher
	if cfg.JobPageFetch {
		pages = infrastructure.NewPageFetcher(30*time.Second, cfg.JobPageMaxChars)
	}

	// Request tracker
	var (
		tracker   domain.Tracker
		scheduler *infrastructure.Scheduler
	)
	switch cfg.TrackerBackend {
	case "redis":
		rdb, err := infrastructure.NewRedisClient(runCtx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		closers = append(closers, rdb)
		tracker = infrastructure.NewRedisTracker(rdb, cfg.TrackerTTL)
	default:
		mem := infrastructure.NewMemoryTracker(cfg.TrackerTTL)
		scheduler = infrastructure.NewScheduler(cfg.TrackerSweepSpec, mem, log)
		if err := scheduler.Start(); err != nil {
			log.WithError(err).Fatal("tracker sweep schedule failed")
		}
		tracker = mem
	}

	stages := usecase.NewStages(llm, pages, log)
	orchestrator := usecase.NewOrchestrator(stages, infrastructure.NewWordExtractor(log), tracker, repo, cfg.RunTimeout, log)

	// Dispatch
	var drainRuns func(context.Context) error
	switch cfg.RunQueue {
	case "rabbitmq":
		rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQQueue, log)
		if err != nil {
			log.WithError(err).Fatal("rabbitmq connection failed")
		}
		if err := rmq.ConsumeJobs(runCtx, cfg.WorkerConcurrency, orchestrator.Run); err != nil {
			log.WithError(err).Fatal("rabbitmq consumer failed")
		}
		orchestrator.SetDispatcher(rmq)
		closers = append(closers, rmq)
		drainRuns = rmq.Shutdown
	default:
		local := usecase.NewLocalDispatcher(runCtx, cfg.WorkerConcurrency, orchestrator.Run, orchestrator.Abandon, log)
		orchestrator.SetDispatcher(local)
		drainRuns = local.Shutdown
	}

	// HTTP
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), interfaces.RequestLogger(log))
	router.MaxMultipartMemory = 16 << 20
	interfaces.NewHTTPHandler(router, orchestrator, tracker, repo, log)
	interfaces.NewFeedbackHandler(router, feedbackRepo, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"provider": cfg.LLMProvider,
			"queue":    cfg.RunQueue,
			"tracker":  cfg.TrackerBackend,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown error")
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer drainCancel()
	if err := drainRuns(drainCtx); err != nil {
		log.WithError(err).Warn("in-flight runs did not finish before the drain deadline")
	}
	cancelRuns()
	if scheduler != nil {
		scheduler.Stop()
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.WithError(err).Warn("close error")
		}
	}
	if err := infrastructure.CloseDatabase(db); err != nil {
		log.WithError(err).Warn("database close error")
	}
	log.Info("stopped")
}
