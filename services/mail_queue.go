package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/portfolio-admin-backend/config"
	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const MailQueueKey = "mail-queue"

// MailQueue accepts mails for asynchronous delivery.
type MailQueue interface {
	Enqueue(ctx context.Context, msg MailMessage) error
}

// MailSource hands queued mails to the worker. Dequeue returns nil, nil when
// nothing arrived within timeout.
type MailSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*MailMessage, error)
}

// LocalMailQueue is an in-process queue used when Redis is not configured.
// Mails still queued at shutdown are lost.
type LocalMailQueue struct {
	jobs chan MailMessage
}

func NewLocalMailQueue(size int) *LocalMailQueue {
	if size < 1 {
		size = 1
	}
	return &LocalMailQueue{jobs: make(chan MailMessage, size)}
}

func (q *LocalMailQueue) Enqueue(ctx context.Context, msg MailMessage) error {
	select {
	case q.jobs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errs.NewMailDeliveryError("local mail queue is full", nil)
	}
}

func (q *LocalMailQueue) Dequeue(ctx context.Context, timeout time.Duration) (*MailMessage, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-q.jobs:
		return &msg, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisMailQueue keeps mails in a Redis list so they survive restarts and can
// be drained by any instance.
type RedisMailQueue struct {
	client *redis.Client
	key    string
}

func NewRedisMailQueue(client *redis.Client, key string) *RedisMailQueue {
	if key == "" {
		key = MailQueueKey
	}
	return &RedisMailQueue{client: client, key: key}
}

// NewRedisClient connects to REDIS_URL, or REDIS_HOST and REDIS_PORT.
// It returns nil, nil when neither is set.
func NewRedisClient(ctx context.Context, c map[string]string) (*redis.Client, error) {
	var opts *redis.Options
	if url := config.GetString(c, "REDIS_URL", ""); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		opts = parsed
	} else if host := config.GetString(c, "REDIS_HOST", ""); host != "" {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", host, config.GetString(c, "REDIS_PORT", "6379")),
			Username: config.GetString(c, "REDIS_USERNAME", ""),
			Password: config.GetString(c, "REDIS_PASSWORD", ""),
			DB:       config.GetInt(c, "REDIS_DB", 0),
		}
	} else {
		return nil, nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Close releases the Redis connections. The queue is unusable afterwards.
func (q *RedisMailQueue) Close() error {
	return q.client.Close()
}

func (q *RedisMailQueue) Enqueue(ctx context.Context, msg MailMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return errs.NewMailDeliveryError("failed to queue mail", err)
	}
	return nil
}

func (q *RedisMailQueue) Dequeue(ctx context.Context, timeout time.Duration) (*MailMessage, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msg MailMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mail message: %w", err)
	}
	return &msg, nil
}

// MailWorker renders and sends queued mails with a fixed number of
// goroutines until its context is cancelled.
type MailWorker struct {
	logger      zerolog.Logger
	source      MailSource
	sender      MailSender
	renderer    *MailRenderer
	workers     int
	pollTimeout time.Duration
	retryDelay  time.Duration
}

func NewMailWorker(source MailSource, sender MailSender, renderer *MailRenderer, workers int) *MailWorker {
	if workers < 1 {
		workers = 1
	}
	return &MailWorker{
		logger:      log.With().Str("serviceName", "mailWorker").Logger(),
		source:      source,
		sender:      sender,
		renderer:    renderer,
		workers:     workers,
		pollTimeout: 5 * time.Second,
		retryDelay:  time.Second,
	}
}

func (w *MailWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		worker := i
		g.Go(func() error {
			w.loop(ctx, worker)
			return nil
		})
	}
	w.logger.Info().Int("workers", w.workers).Msg("Mail worker started")
	err := g.Wait()
	w.logger.Info().Msg("Mail worker stopped")
	return err
}

func (w *MailWorker) loop(ctx context.Context, worker int) {
	logger := w.logger.With().Int("worker", worker).Logger()
	for {
		msg, err := w.source.Dequeue(ctx, w.pollTimeout)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read mail queue")
			select {
			case <-time.After(w.retryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}
		if msg == nil {
			continue
		}
		w.deliver(ctx, logger, *msg)
	}
}

func (w *MailWorker) deliver(ctx context.Context, logger zerolog.Logger, msg MailMessage) {
	html, err := w.renderer.Render(msg)
	if err != nil {
		logger.Error().Err(err).Str("template", msg.Template).Msg("Dropping mail that cannot be rendered")
		return
	}
	if err := w.sender.Send(ctx, msg.To, msg.Subject, html); err != nil {
		logger.Error().Err(err).Strs("to", msg.To).Str("subject", msg.Subject).Msg("Failed to deliver mail")
		return
	}
	logger.Debug().Strs("to", msg.To).Str("subject", msg.Subject).Msg("Delivered mail")
}
