package publishing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"searchfuel/internal/domain"
	"searchfuel/internal/infra/metrics"
)

// Service ведёт статью по жизненному циклу публикации вокруг вызова
// внешней блог-платформы. Каждое промежуточное состояние сохраняется,
// чтобы после падения процесса статус отражал реальность.
type Service struct {
	articles  domain.ArticleRepo
	publisher domain.PublishAdapter
	log       zerolog.Logger
}

// NewService создаёт сервис публикации.
func NewService(articles domain.ArticleRepo, publisher domain.PublishAdapter, logger zerolog.Logger) *Service {
	return &Service{articles: articles, publisher: publisher, log: logger}
}

// PublishNow выполняет попытку публикации: pending|scheduled -> publishing,
// затем published либо failed по результату внешнего вызова. Ошибка внешнего
// вызова возвращается после фиксации статуса failed.
func (s *Service) PublishNow(ctx context.Context, accountID, articleID uuid.UUID) (domain.Article, error) {
	article, err := s.articles.GetArticle(ctx, accountID, articleID)
	if err != nil {
		return domain.Article{}, fmt.Errorf("получение статьи: %w", err)
	}

	article, err = domain.BeginPublishing(article)
	if err != nil {
		return domain.Article{}, err
	}
	article, err = s.articles.UpdateArticle(ctx, article)
	if err != nil {
		return domain.Article{}, fmt.Errorf("сохранение статуса publishing: %w", err)
	}

	start := time.Now()
	result, publishErr := s.publisher.Publish(ctx, article)
	metrics.PublishDurationSeconds.Observe(time.Since(start).Seconds())

	if publishErr != nil {
		metrics.PublishAttemptsTotal.WithLabelValues("failed").Inc()
		s.log.Error().Err(publishErr).Str("article_id", articleID.String()).Msg("публикация не удалась")
		failed, transitionErr := domain.FailPublishing(article)
		if transitionErr != nil {
			return domain.Article{}, transitionErr
		}
		failed, err = s.articles.UpdateArticle(ctx, failed)
		if err != nil {
			return domain.Article{}, fmt.Errorf("сохранение статуса failed: %w", err)
		}
		return failed, fmt.Errorf("публикация статьи: %w", publishErr)
	}

	metrics.PublishAttemptsTotal.WithLabelValues("published").Inc()
	published, err := domain.CompletePublishing(article, result)
	if err != nil {
		return domain.Article{}, err
	}
	published, err = s.articles.UpdateArticle(ctx, published)
	if err != nil {
		return domain.Article{}, fmt.Errorf("сохранение статуса published: %w", err)
	}
	s.log.Info().
		Str("article_id", articleID.String()).
		Str("external_post_id", published.ExternalPostID).
		Msg("статья опубликована")
	return published, nil
}

// ScheduleFor назначает статье дату публикации: pending -> scheduled.
func (s *Service) ScheduleFor(ctx context.Context, accountID, articleID uuid.UUID, on time.Time) (domain.Article, error) {
	article, err := s.articles.GetArticle(ctx, accountID, articleID)
	if err != nil {
		return domain.Article{}, fmt.Errorf("получение статьи: %w", err)
	}
	article, err = domain.ScheduleArticle(article, on)
	if err != nil {
		return domain.Article{}, err
	}
	article, err = s.articles.UpdateArticle(ctx, article)
	if err != nil {
		return domain.Article{}, fmt.Errorf("сохранение статуса scheduled: %w", err)
	}
	return article, nil
}

// Reset возвращает статью в pending и очищает следы публикации.
// Допустим из любого состояния, для pending статьи это no-op.
func (s *Service) Reset(ctx context.Context, accountID, articleID uuid.UUID) (domain.Article, error) {
	article, err := s.articles.GetArticle(ctx, accountID, articleID)
	if err != nil {
		return domain.Article{}, fmt.Errorf("получение статьи: %w", err)
	}
	reset := domain.ResetPublishing(article)
	reset, err = s.articles.UpdateArticle(ctx, reset)
	if err != nil {
		return domain.Article{}, fmt.Errorf("сохранение сброса: %w", err)
	}
	return reset, nil
}
