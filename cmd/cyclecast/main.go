package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/cyclecast/internal/api"
	"github.com/terraincognita07/cyclecast/internal/cli"
	"github.com/terraincognita07/cyclecast/internal/config"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/i18n"
	"github.com/terraincognita07/cyclecast/internal/logger"
	"github.com/terraincognita07/cyclecast/internal/notify"
	"github.com/terraincognita07/cyclecast/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.Environment, os.Stdout)
	for _, warning := range cfg.Warnings {
		log.Warn(warning)
	}
	time.Local = cfg.Location

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "reset-passcode":
			if err := cli.RunResetPasscodeCommand(context.Background(), cfg.DBPath, os.Stdout, log); err != nil {
				log.Fatalf("reset-passcode: %v", err)
			}
			return
		case "serve":
		default:
			log.Fatalf("unknown command %q (expected serve or reset-passcode)", os.Args[1])
		}
	}

	if err := serve(cfg, log); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func serve(cfg *config.AppConfig, log *logrus.Logger) error {
	database, err := db.OpenSQLite(cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()
	repos := db.NewRepositories(database)

	i18nManager, err := i18n.NewEmbeddedManager(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	sender, err := buildSender(cfg, log)
	if err != nil {
		return fmt.Errorf("notification sender: %w", err)
	}

	sessions := services.NewSessionStore(repos.KeyValues, cfg.Location, log)
	scheduler := services.NewNotificationScheduler(
		notify.NewQueueDeliverer(repos.Reminders, sender),
		services.SchedulerOptions{
			Copy:      services.ReminderCopyFromMessages(i18nManager, cfg.DefaultLanguage),
			TimeOfDay: cfg.ReminderTimeOfDay(),
			Logger:    log.WithField("component", "scheduler"),
		},
	)
	pending, err := repos.Reminders.ListPending(context.Background())
	if err != nil {
		return fmt.Errorf("load pending reminders: %w", err)
	}
	scheduler.Restore(pending)

	dispatcher := notify.NewDispatcher(repos.Reminders, sender, sessions, notify.DispatcherOptions{
		Spec:        cfg.DispatchCronSpec,
		MaxLateness: cfg.ReminderMaxLateness,
		Location:    cfg.Location,
		Logger:      log,
		OnDelivered: scheduler.MarkFired,
	})

	handler, err := api.NewHandler(api.Dependencies{
		Sessions:  sessions,
		Scheduler: scheduler,
		Reminders: repos.Reminders,
		Symptoms:  services.NewSymptomLogService(repos.SymptomLogs, cfg.Location),
		Moods:     services.NewMoodService(repos.Moods, cfg.Location),
		Access:    services.NewAccessService(repos.KeyValues),
		I18n:      i18nManager,
		SecretKey: cfg.SecretKey,
		Location:  cfg.Location,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := newApp(handler, log)

	if err := dispatcher.Start(); err != nil {
		return err
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"db":      cfg.DBPath,
		"tz":      cfg.Location.String(),
		"channel": sender.Channel(),
	}).Info("cyclecast listening")
	listenErr := app.Listen(":" + cfg.Port)

	dispatcher.Stop()
	scheduler.Close()
	return listenErr
}

// newApp routes fiber access logs through the process logger at info level.
func newApp(handler *api.Handler, log *logrus.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Cyclecast",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: log.WriterLevel(logrus.InfoLevel),
		Format: "${status} ${method} ${path} ${latency}\n",
	}))
	api.RegisterRoutes(app, handler)
	return app
}

func buildSender(cfg *config.AppConfig, log logrus.FieldLogger) (notify.Sender, error) {
	switch cfg.NotifyChannel {
	case notify.ChannelTelegram:
		bot, err := notify.NewTelegramBot(cfg.TelegramBotToken)
		if err != nil {
			return nil, err
		}
		sender, err := notify.NewTelegramSender(bot, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case notify.ChannelLog:
		return notify.NewLogSender(log.WithField("component", "sender")), nil
	case notify.ChannelNone:
		return notify.NoneSender{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", notify.ErrUnknownChannel, cfg.NotifyChannel)
	}
}
