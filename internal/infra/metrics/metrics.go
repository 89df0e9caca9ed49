package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ScheduleRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_requests_total",
		Help: "Запросы на планирование ключевых слов по исходу",
	}, []string{"outcome"})

	ScheduleConflictRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_conflict_retries_total",
		Help: "Повторные аллокации даты после конфликта уникальности",
	})

	PublishAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_attempts_total",
		Help: "Попытки публикации статей по исходу",
	}, []string{"outcome"})

	PublishDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "publish_duration_seconds",
		Help:    "Длительность вызова внешней блог-платформы",
		Buckets: prometheus.DefBuckets,
	})

	DispatcherJobsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_jobs_enqueued_total",
		Help: "Задачи генерации, поставленные диспетчером в очередь",
	})

	DispatcherErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_errors_total",
		Help: "Ошибки диспетчера при обработке расписания",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ScheduleRequestsTotal,
		ScheduleConflictRetries,
		PublishAttemptsTotal,
		PublishDurationSeconds,
		DispatcherJobsEnqueued,
		DispatcherErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := strconv.FormatBool(err == nil)
	elapsed := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(elapsed)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
