package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"searchfuel/internal/adapters/blog"
	"searchfuel/internal/adapters/repo"
	"searchfuel/internal/adapters/usage"
	"searchfuel/internal/domain"
	"searchfuel/internal/infra/cache"
	"searchfuel/internal/infra/config"
	"searchfuel/internal/infra/db"
	httpinfra "searchfuel/internal/infra/http"
	"searchfuel/internal/infra/metrics"
	calendarusecase "searchfuel/internal/usecase/calendar"
	publishingusecase "searchfuel/internal/usecase/publishing"
	"searchfuel/internal/usecase/quota"
	schedulingusecase "searchfuel/internal/usecase/scheduling"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	planTable, err := config.LoadPlanTable(cfg.Scheduling.PlansFile)
	if err != nil {
		log.Fatal().Err(err).Msg("api: не удалось загрузить тарифы")
	}

	repoAdapter := repo.NewPostgres(pool)

	usageClient, err := usage.New(cfg.Billing.BaseURL, usage.WithTimeout(cfg.Billing.Timeout))
	if err != nil {
		log.Fatal().Err(err).Msg("api: некорректный адрес биллинга")
	}
	var usageProvider domain.UsageProvider = usageClient
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		usageProvider = usage.NewCachedProvider(usageClient, cache.NewRedis(redisClient), cfg.Billing.CacheTTL)
	}

	blogClient, err := blog.NewClient(blog.Config{
		BaseURL: cfg.Blog.BaseURL,
		Token:   cfg.Blog.Token,
		Timeout: cfg.Blog.Timeout,
		RPS:     cfg.Blog.RPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("api: некорректная конфигурация блог-платформы")
	}

	guard := quota.NewGuard(planTable)
	schedulingService := schedulingusecase.NewService(repoAdapter, repoAdapter, usageProvider, guard, cfg.Scheduling.HorizonDays)
	publishingService := publishingusecase.NewService(repoAdapter, blogClient, log.With().Str("component", "publishing").Logger())
	calendarService := calendarusecase.NewService(repoAdapter, repoAdapter)

	server := httpinfra.NewServer(log.With().Str("component", "api").Logger())
	server.Router.Route("/api/v1", func(r chi.Router) {
		r.Post("/keywords/schedule", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req scheduleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			accountID, err := uuid.Parse(req.AccountID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid account_id")
				return
			}
			domainReq := domain.ScheduleRequest{AccountID: accountID, Keyword: req.Keyword}
			if req.Date != "" {
				date, err := time.Parse("2006-01-02", req.Date)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
					return
				}
				domainReq.RequestedDate = &date
			}
			created, err := schedulingService.Schedule(r.Context(), domainReq)
			if err != nil {
				metrics.ScheduleRequestsTotal.WithLabelValues("rejected").Inc()
				writeDomainError(w, err)
				return
			}
			metrics.ScheduleRequestsTotal.WithLabelValues("scheduled").Inc()
			writeJSON(w, keywordResponse{
				ID:            created.ID.String(),
				Keyword:       created.Keyword,
				ScheduledDate: created.ScheduledDate.Format("2006-01-02"),
				Status:        string(created.Status),
			})
		})

		r.Delete("/keywords/{id}", func(w http.ResponseWriter, r *http.Request) {
			accountID, keywordID, ok := parseIDs(w, r)
			if !ok {
				return
			}
			if err := schedulingService.Cancel(r.Context(), accountID, keywordID); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/calendar", func(w http.ResponseWriter, r *http.Request) {
			accountID, err := uuid.Parse(r.URL.Query().Get("account_id"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid account_id")
				return
			}
			year, month, err := parseMonth(r.URL.Query().Get("month"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
				return
			}
			projection, err := calendarService.Month(r.Context(), accountID, year, month)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, calendarResponse(projection))
		})

		r.Post("/articles/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
			accountID, articleID, ok := parseIDs(w, r)
			if !ok {
				return
			}
			article, err := publishingService.PublishNow(r.Context(), accountID, articleID)
			if err != nil {
				var transitionErr *domain.TransitionError
				if !errors.As(err, &transitionErr) && article.PublishingStatus == domain.PublishingStatusFailed {
					// Сама публикация не удалась, но статус зафиксирован.
					writeJSON(w, articleResponse(article))
					return
				}
				writeDomainError(w, err)
				return
			}
			writeJSON(w, articleResponse(article))
		})

		r.Post("/articles/{id}/schedule", func(w http.ResponseWriter, r *http.Request) {
			accountID, articleID, ok := parseIDs(w, r)
			if !ok {
				return
			}
			defer r.Body.Close()
			var req scheduleArticleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			date, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
				return
			}
			article, err := publishingService.ScheduleFor(r.Context(), accountID, articleID, date)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, articleResponse(article))
		})

		r.Post("/articles/{id}/reset", func(w http.ResponseWriter, r *http.Request) {
			accountID, articleID, ok := parseIDs(w, r)
			if !ok {
				return
			}
			article, err := publishingService.Reset(r.Context(), accountID, articleID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, articleResponse(article))
		})
	})

	metrics.StartServer(ctx, log.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()
	<-ctx.Done()
	log.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

type scheduleRequest struct {
	AccountID string `json:"account_id"`
	Keyword   string `json:"keyword"`
	Date      string `json:"date,omitempty"`
}

type scheduleArticleRequest struct {
	Date string `json:"date"`
}

type keywordResponse struct {
	ID            string `json:"id"`
	Keyword       string `json:"keyword"`
	ScheduledDate string `json:"scheduled_date"`
	Status        string `json:"status"`
}

type articlePayload struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Slug             string  `json:"slug"`
	PublishingStatus string  `json:"publishing_status"`
	ScheduledFor     *string `json:"scheduled_for"`
	LastPublishedAt  *string `json:"last_published_at"`
	ExternalPostID   string  `json:"external_post_id,omitempty"`
	ExternalPostURL  string  `json:"external_post_url,omitempty"`
}

func articleResponse(article domain.Article) articlePayload {
	payload := articlePayload{
		ID:               article.ID.String(),
		Title:            article.Title,
		Slug:             article.Slug,
		PublishingStatus: string(article.PublishingStatus),
		ExternalPostID:   article.ExternalPostID,
		ExternalPostURL:  article.ExternalPostURL,
	}
	if article.ScheduledFor != nil {
		s := article.ScheduledFor.Format("2006-01-02")
		payload.ScheduledFor = &s
	}
	if article.LastPublishedAt != nil {
		s := article.LastPublishedAt.Format(time.RFC3339)
		payload.LastPublishedAt = &s
	}
	return payload
}

type calendarEntryPayload struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

func calendarResponse(projection map[time.Time][]domain.CalendarEntry) map[string][]calendarEntryPayload {
	out := make(map[string][]calendarEntryPayload, len(projection))
	for day, entries := range projection {
		key := day.Format("2006-01-02")
		for _, entry := range entries {
			out[key] = append(out[key], calendarEntryPayload{
				ID:     entry.ID.String(),
				Title:  entry.Title,
				Status: entry.Status,
				Kind:   string(entry.Kind),
			})
		}
	}
	return out
}

// parseIDs извлекает аккаунт из заголовка и идентификатор ресурса из пути.
// Аутентификацию выполняет внешний шлюз, сюда приходит уже проверенный аккаунт.
func parseIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	accountID, err := uuid.Parse(r.Header.Get("X-Account-ID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return uuid.Nil, uuid.Nil, false
	}
	resourceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource id")
		return uuid.Nil, uuid.Nil, false
	}
	return accountID, resourceID, true
}

func parseMonth(raw string) (int, time.Month, error) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad month format")
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month out of range")
	}
	return year, time.Month(month), nil
}

// writeDomainError отображает таксономию ошибок ядра на HTTP статусы.
func writeDomainError(w http.ResponseWriter, err error) {
	var quotaErr *domain.QuotaError
	if errors.As(err, &quotaErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": "quota exceeded",
			"kind":  string(quotaErr.Kind),
			"limit": quotaErr.Limit,
			"plan":  quotaErr.Plan,
		})
		return
	}
	var transitionErr *domain.TransitionError
	switch {
	case errors.Is(err, schedulingusecase.ErrEmptyKeyword), errors.Is(err, domain.ErrDateInPast):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDateUnavailable), errors.Is(err, domain.ErrNoFreeDate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, transitionErr.Error())
	case errors.Is(err, domain.ErrKeywordNotFound), errors.Is(err, domain.ErrArticleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUsageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "usage service unavailable")
	default:
		log.Error().Err(err).Msg("api: внутренняя ошибка")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
