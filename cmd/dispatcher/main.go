package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"searchfuel/internal/adapters/repo"
	"searchfuel/internal/domain"
	"searchfuel/internal/infra/cache"
	"searchfuel/internal/infra/config"
	"searchfuel/internal/infra/db"
	"searchfuel/internal/infra/metrics"
	"searchfuel/internal/infra/queue"
)

// dispatchOnceTTL защищает от повторной постановки одной записи в течение
// суток, если диспетчер перезапустился между тиками.
const dispatchOnceTTL = 24 * time.Hour

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("dispatcher: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	onceCache := cache.NewRedis(redisClient)

	var jobs domain.GenerationQueue
	if cfg.AMQPURL != "" {
		rabbit, err := queue.NewRabbitGenerationQueue(cfg.AMQPURL, cfg.Queues.Generation)
		if err != nil {
			log.Fatal().Err(err).Msg("dispatcher: нет подключения к RabbitMQ")
		}
		defer rabbit.Close()
		jobs = rabbit
	} else {
		jobs = queue.NewRedisGenerationQueue(redisClient, cfg.Queues.Generation)
	}

	dispatch := func() {
		due, err := repoAdapter.ListDue(ctx, time.Now().UTC())
		if err != nil {
			metrics.DispatcherErrors.Inc()
			log.Error().Err(err).Msg("dispatcher: ошибка выборки расписания")
			return
		}
		for _, kw := range due {
			key := fmt.Sprintf("dispatch:%s:%s", kw.ID, domain.DayOf(kw.ScheduledDate).Format("2006-01-02"))
			err := onceCache.Once(key, dispatchOnceTTL, func() error {
				return jobs.Enqueue(ctx, domain.GenerationJob{
					ID:            uuid.NewString(),
					AccountID:     kw.AccountID,
					KeywordID:     kw.ID,
					Keyword:       kw.Keyword,
					ScheduledDate: kw.ScheduledDate,
					EnqueuedAt:    time.Now().UTC(),
					Cause:         domain.GenerationCauseScheduled,
				})
			})
			if err != nil {
				metrics.DispatcherErrors.Inc()
				log.Error().Err(err).Str("keyword_id", kw.ID.String()).Msg("dispatcher: не удалось поставить задачу")
				continue
			}
			metrics.DispatcherJobsEnqueued.Inc()
			log.Info().Str("keyword_id", kw.ID.String()).Str("keyword", kw.Keyword).Msg("dispatcher: задача поставлена")
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Dispatcher.CronSpec, dispatch); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Dispatcher.CronSpec).Msg("dispatcher: некорректное cron-выражение")
	}
	scheduler.Start()

	metrics.StartServer(ctx, log.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	// Первый прогон сразу после старта, чтобы не ждать ближайшего тика.
	dispatch()

	<-ctx.Done()
	log.Info().Msg("dispatcher: остановка")
	<-scheduler.Stop().Done()
}
