package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"searchfuel/internal/domain"
)

// Service собирает данные месяца и строит проекцию календаря.
// Сама проекция — чистая функция в domain; сервис отвечает только за выборку.
type Service struct {
	keywords domain.KeywordRepo
	articles domain.ArticleRepo
}

// NewService создаёт сервис календаря.
func NewService(keywords domain.KeywordRepo, articles domain.ArticleRepo) *Service {
	return &Service{keywords: keywords, articles: articles}
}

// Month возвращает записи календаря за указанный месяц, сгруппированные по дням.
func (s *Service) Month(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (map[time.Time][]domain.CalendarEntry, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	keywords, err := s.keywords.ListKeywordsRange(ctx, accountID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("выборка ключевых слов: %w", err)
	}
	articles, err := s.articles.ListArticlesRange(ctx, accountID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("выборка статей: %w", err)
	}
	return domain.ProjectCalendar(keywords, articles, monthStart, monthEnd), nil
}
