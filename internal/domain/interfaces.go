package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrKeywordNotFound возвращается, когда запись расписания не найдена.
	ErrKeywordNotFound = errors.New("scheduled keyword not found")

	// ErrArticleNotFound возвращается, когда статья не найдена.
	ErrArticleNotFound = errors.New("article not found")

	// ErrDateTaken возвращается хранилищем, когда вставка pending записи
	// нарушила уникальность (account_id, scheduled_date). Это защита от
	// гонки двух конкурентных запросов, вычисливших одну и ту же дату.
	ErrDateTaken = errors.New("scheduled date already taken")

	// ErrDateUnavailable — запрошенная дата уже занята.
	ErrDateUnavailable = errors.New("дата уже занята")

	// ErrDateInPast — запрошенная дата строго раньше сегодняшнего дня.
	ErrDateInPast = errors.New("дата в прошлом")

	// ErrUsageUnavailable — биллинговый сервис не отдал счётчики.
	// Это отказ коллаборатора, а не исчерпание квоты; действие при этом
	// запрещается, а не разрешается как безлимитное.
	ErrUsageUnavailable = errors.New("счётчики использования недоступны")
)

// KeywordRepo управляет записями расписания ключевых слов.
type KeywordRepo interface {
	// CreatePending сохраняет новую pending запись. При занятой дате
	// возвращает ErrDateTaken.
	CreatePending(ctx context.Context, kw ScheduledKeyword) (ScheduledKeyword, error)
	GetKeyword(ctx context.Context, accountID, id uuid.UUID) (ScheduledKeyword, error)
	// ListPendingDates возвращает занятые дни из pending записей аккаунта.
	ListPendingDates(ctx context.Context, accountID uuid.UUID) ([]time.Time, error)
	// ListDue возвращает pending записи всех аккаунтов с датой не позже дня on.
	ListDue(ctx context.Context, on time.Time) ([]ScheduledKeyword, error)
	// MarkConsumed помечает запись использованной и связывает её со статьёй.
	MarkConsumed(ctx context.Context, id, articleID uuid.UUID) error
	CancelKeyword(ctx context.Context, accountID, id uuid.UUID) error
	ListKeywordsRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]ScheduledKeyword, error)
}

// ArticleRepo управляет статьями.
type ArticleRepo interface {
	GetArticle(ctx context.Context, accountID, id uuid.UUID) (Article, error)
	CreateArticle(ctx context.Context, article Article) (Article, error)
	// UpdateArticle сохраняет статус публикации и связанные поля.
	UpdateArticle(ctx context.Context, article Article) (Article, error)
	// ListScheduledDates возвращает занятые дни из scheduled_for статей аккаунта.
	ListScheduledDates(ctx context.Context, accountID uuid.UUID) ([]time.Time, error)
	ListArticlesRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]Article, error)
}

// UsageProvider отдаёт снимок счётчиков использования аккаунта.
type UsageProvider interface {
	Snapshot(ctx context.Context, accountID uuid.UUID) (UsageSnapshot, error)
}

// PublishAdapter выполняет фактический вызов внешней блог-платформы.
type PublishAdapter interface {
	Publish(ctx context.Context, article Article) (PublishResult, error)
}

// GenerationQueue описывает очередь задач генерации статей.
type GenerationQueue interface {
	Enqueue(ctx context.Context, job GenerationJob) error
	Pop(ctx context.Context) (GenerationJob, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
