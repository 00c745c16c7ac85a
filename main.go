package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	api "github.com/rpupo63/portfolio-admin-backend/api"
	"github.com/rpupo63/portfolio-admin-backend/config"
	"github.com/rpupo63/portfolio-admin-backend/database"
	"github.com/rpupo63/portfolio-admin-backend/models"
	"github.com/rpupo63/portfolio-admin-backend/services"
	"github.com/rpupo63/portfolio-admin-backend/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	configureLogging(c)
	log.Info().Msg("Initializing app...")

	ctx := context.Background()

	if err := config.LoadSSM(ctx, c); err != nil {
		log.Fatal().Err(err).Msg("Error loading parameters from SSM")
	}

	db, err := database.Open(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		log.Fatal().Err(err).Msg("Error testing database connection")
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		models.GenerateModels(db)
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		log.Info().Msg("Generating column mismatch report...")
		models.PrintColumnMismatchReport(db)
		return
	}

	if config.GetBool(c, "AUTO_MIGRATE", false) {
		if err := models.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Error migrating database")
		}
		log.Info().Msg("Database schema migrated")
	}

	currentDB := database.New(db)

	blobs, err := storage.New(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing blob storage")
	}

	sender, err := services.NewMailSender(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing mail sender")
	}
	renderer, err := services.NewMailRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing mail templates")
	}
	queue, source, closeQueue, err := newMailQueue(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing mail queue")
	}

	projects := services.NewProjectService(
		currentDB.ProjectRepo(),
		currentDB.TechnologyRepo(),
		currentDB.TypeRepo(),
		blobs,
		queue,
		config.GetString(c, "FRONTEND_URL", ""),
	)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	worker := services.NewMailWorker(source, sender, renderer, config.GetInt(c, "MAIL_WORKERS", 2))
	go func() {
		defer close(workerDone)
		if err := worker.Run(workerCtx); err != nil {
			log.Error().Err(err).Msg("Mail worker stopped with error")
		}
	}()

	errChannel := make(chan error, 2)

	server, err := api.NewServer(c, projects, currentDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(config.GetDuration(c, "SHUTDOWN_TIMEOUT", 30*time.Second))

	stopWorker()
	<-workerDone

	if err := closeQueue(); err != nil {
		log.Error().Err(err).Msg("Error closing mail queue")
	}
}

// newMailQueue uses Redis when it is configured and an in-process queue
// otherwise. The returned func releases the queue once the worker is done.
func newMailQueue(ctx context.Context, c map[string]string) (services.MailQueue, services.MailSource, func() error, error) {
	client, err := services.NewRedisClient(ctx, c)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		log.Warn().Msg("Redis is not configured, queued mails are kept in memory")
		q := services.NewLocalMailQueue(config.GetInt(c, "MAIL_QUEUE_SIZE", 100))
		return q, q, func() error { return nil }, nil
	}
	q := services.NewRedisMailQueue(client, config.GetString(c, "MAIL_QUEUE_KEY", services.MailQueueKey))
	return q, q, q.Close, nil
}

func configureLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(config.GetString(c, "LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.GetBool(c, "LOG_PRETTY", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
