package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ramadan_diary_bot/internal/broadcast"
	"ramadan_diary_bot/internal/config"
	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/health"
	"ramadan_diary_bot/internal/logging"
	"ramadan_diary_bot/internal/notify"
	"ramadan_diary_bot/internal/scheduler"
	"ramadan_diary_bot/internal/settings"
	"ramadan_diary_bot/internal/store"
	"ramadan_diary_bot/internal/telegram"
)

const (
	mongoConnectTimeout      = 10 * time.Second
	mongoIndexTimeout        = 5 * time.Second
	mongoDisconnectTimeout   = 5 * time.Second
	settingsBootstrapTimeout = 10 * time.Second
	commandsTimeout          = 5 * time.Second
	healthShutdownTimeout    = 5 * time.Second
	telegramShutdownTimeout  = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
		cancelIndexes()
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}
	cancelIndexes()

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	settingsService := settings.NewService(mongoManager.Settings(), mongoManager.DailyContent(), logger)

	settingsCtx, cancelSettings := context.WithTimeout(context.Background(), settingsBootstrapTimeout)
	if err := settingsService.EnsureDefaults(settingsCtx); err != nil {
		cancelSettings()
		logger.WithError(err).Error("settings bootstrap error")
		fmt.Fprintf(os.Stderr, "settings bootstrap error: %v\n", err)
		os.Exit(1)
	}
	if err := settingsService.Load(settingsCtx); err != nil {
		cancelSettings()
		logger.WithError(err).Error("settings load error")
		fmt.Fprintf(os.Stderr, "settings load error: %v\n", err)
		os.Exit(1)
	}
	cancelSettings()

	logger.WithField("event", "settings_ready").Info("settings loaded")

	userRepository := domain.NewUserRepository(mongoManager.Users())
	diaryRepository := domain.NewDiaryRepository(mongoManager.Diaries())
	feedbackRepository := domain.NewFeedbackRepository(mongoManager.FeedbackMap())
	broadcastRepository := domain.NewBroadcastRepository(mongoManager.Broadcasts())
	statsProvider := store.NewStatsProvider(mongoManager.Users(), mongoManager.Broadcasts())

	tgClient, err := telegram.NewClient(cfg, logger,
		telegram.WithUserDirectory(userRepository),
		telegram.WithFeedbackStore(feedbackRepository),
		telegram.WithSettingsSource(settingsService),
		telegram.WithStatsProvider(statsProvider),
	)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	notifier := notify.NewNotifier(userRepository, diaryRepository, settingsService, tgClient, logger)
	tgClient.SetReporter(notifier)

	commandsCtx, cancelCommands := context.WithTimeout(context.Background(), commandsTimeout)
	if err := tgClient.RegisterCommands(commandsCtx); err != nil {
		logger.WithError(err).Warn("failed to register bot commands")
	}
	cancelCommands()

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go settingsService.WatchSettings(workerCtx)
	go settingsService.WatchContent(workerCtx)

	dispatcher := broadcast.NewDispatcher(broadcastRepository, userRepository, tgClient, mongoManager.Broadcasts(), logger)
	go dispatcher.Run(workerCtx)

	schedulerService := scheduler.NewService(notifier, settingsService, logger)
	cronScheduler, err := schedulerService.Start()
	if err != nil {
		logger.WithError(err).Error("scheduler start error")
		fmt.Fprintf(os.Stderr, "scheduler start error: %v\n", err)
		os.Exit(1)
	}

	healthServer := health.NewServer(cfg.HTTPPort, mongoManager, logger)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil {
			logger.WithError(err).Error("health server error")
		}
	}()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})

	go func() {
		tgClient.Start(telegramCtx)
		close(tgDone)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping telegram polling")
	case <-tgDone:
		logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
	}

	cancelTelegram()
	cancelWorkers()

	if err := cronScheduler.Shutdown(); err != nil {
		logger.WithError(err).Error("scheduler shutdown error")
	}

	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), healthShutdownTimeout)
	if err := healthServer.Shutdown(healthCtx); err != nil {
		logger.WithError(err).Error("health server shutdown error")
	}
	cancelHealth()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
