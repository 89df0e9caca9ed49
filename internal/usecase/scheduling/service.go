package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"searchfuel/internal/domain"
	"searchfuel/internal/infra/metrics"
	"searchfuel/internal/usecase/quota"
)

// ErrEmptyKeyword возвращается, если ключевое слово пустое после обрезки.
var ErrEmptyKeyword = errors.New("ключевое слово пустое")

// Service принимает или отклоняет запросы на планирование ключевых слов.
type Service struct {
	keywords domain.KeywordRepo
	articles domain.ArticleRepo
	usage    domain.UsageProvider
	guard    *quota.Guard
	horizon  int
	now      func() time.Time
}

// NewService создаёт сервис планирования.
func NewService(keywords domain.KeywordRepo, articles domain.ArticleRepo, usage domain.UsageProvider, guard *quota.Guard, horizonDays int) *Service {
	return &Service{
		keywords: keywords,
		articles: articles,
		usage:    usage,
		guard:    guard,
		horizon:  horizonDays,
		now:      time.Now,
	}
}

// Schedule проверяет квоту, подбирает или валидирует дату и сохраняет
// pending запись. Проверка занятости и вставка не атомарны, поэтому
// конфликт уникальности от хранилища в автоматическом режиме лечится одной
// повторной попыткой со свежим множеством занятых дат; ручная дата при
// конфликте отклоняется сразу.
func (s *Service) Schedule(ctx context.Context, req domain.ScheduleRequest) (domain.ScheduledKeyword, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return domain.ScheduledKeyword{}, ErrEmptyKeyword
	}

	snapshot, err := s.usage.Snapshot(ctx, req.AccountID)
	if err != nil {
		return domain.ScheduledKeyword{}, fmt.Errorf("получение счётчиков: %w", err)
	}
	if err := s.guard.Check(snapshot, domain.LimitKeywords); err != nil {
		return domain.ScheduledKeyword{}, err
	}

	occupied, err := s.loadOccupied(ctx, req.AccountID)
	if err != nil {
		return domain.ScheduledKeyword{}, err
	}

	today := domain.DayOf(s.now())
	var scheduledDate time.Time
	manual := req.RequestedDate != nil
	if manual {
		day := domain.DayOf(*req.RequestedDate)
		if day.Before(today) {
			return domain.ScheduledKeyword{}, domain.ErrDateInPast
		}
		if !occupied.IsAvailable(day) {
			return domain.ScheduledKeyword{}, domain.ErrDateUnavailable
		}
		scheduledDate = day
	} else {
		scheduledDate, err = occupied.NextAvailableWithin(today, s.horizon)
		if err != nil {
			return domain.ScheduledKeyword{}, err
		}
	}

	created, err := s.persist(ctx, req.AccountID, keyword, scheduledDate)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, domain.ErrDateTaken) {
		return domain.ScheduledKeyword{}, fmt.Errorf("сохранение записи: %w", err)
	}
	if manual {
		return domain.ScheduledKeyword{}, domain.ErrDateUnavailable
	}

	// Конкурентный запрос успел занять вычисленную дату. Одна повторная
	// аллокация со свежими данными, дальше сдаёмся, чтобы не зациклиться.
	metrics.ScheduleConflictRetries.Inc()
	occupied, err = s.loadOccupied(ctx, req.AccountID)
	if err != nil {
		return domain.ScheduledKeyword{}, err
	}
	scheduledDate, err = occupied.NextAvailableWithin(today, s.horizon)
	if err != nil {
		return domain.ScheduledKeyword{}, err
	}
	created, err = s.persist(ctx, req.AccountID, keyword, scheduledDate)
	if err != nil {
		if errors.Is(err, domain.ErrDateTaken) {
			return domain.ScheduledKeyword{}, domain.ErrDateUnavailable
		}
		return domain.ScheduledKeyword{}, fmt.Errorf("сохранение записи: %w", err)
	}
	return created, nil
}

// Cancel отменяет pending запись пользователя.
func (s *Service) Cancel(ctx context.Context, accountID, keywordID uuid.UUID) error {
	if err := s.keywords.CancelKeyword(ctx, accountID, keywordID); err != nil {
		return fmt.Errorf("отмена записи: %w", err)
	}
	return nil
}

func (s *Service) persist(ctx context.Context, accountID uuid.UUID, keyword string, date time.Time) (domain.ScheduledKeyword, error) {
	return s.keywords.CreatePending(ctx, domain.ScheduledKeyword{
		ID:            uuid.New(),
		AccountID:     accountID,
		Keyword:       keyword,
		ScheduledDate: date,
		Status:        domain.KeywordStatusPending,
	})
}

// loadOccupied собирает занятые дни из обоих источников: pending ключевых
// слов и назначенных дат статей.
func (s *Service) loadOccupied(ctx context.Context, accountID uuid.UUID) (domain.OccupiedDates, error) {
	keywordDates, err := s.keywords.ListPendingDates(ctx, accountID)
	if err != nil {
		return domain.OccupiedDates{}, fmt.Errorf("занятые даты ключевых слов: %w", err)
	}
	articleDates, err := s.articles.ListScheduledDates(ctx, accountID)
	if err != nil {
		return domain.OccupiedDates{}, fmt.Errorf("занятые даты статей: %w", err)
	}
	return domain.NewOccupiedDates(keywordDates, articleDates), nil
}
