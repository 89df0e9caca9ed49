package domain

import (
	"time"

	"github.com/google/uuid"
)

// KeywordStatus описывает состояние запланированного ключевого слова.
type KeywordStatus string

const (
	// KeywordStatusPending — слово ожидает генерации статьи.
	KeywordStatusPending KeywordStatus = "pending"
	// KeywordStatusConsumed — конвейер генерации забрал слово и создал статью.
	KeywordStatusConsumed KeywordStatus = "consumed"
	// KeywordStatusCancelled — пользователь отменил генерацию.
	KeywordStatusCancelled KeywordStatus = "cancelled"
)

// ScheduledKeyword представляет запланированную задачу генерации статьи.
type ScheduledKeyword struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	Keyword       string
	ScheduledDate time.Time
	Status        KeywordStatus
	ArticleID     *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Article представляет статью с собственным жизненным циклом публикации.
type Article struct {
	ID               uuid.UUID
	AccountID        uuid.UUID
	Title            string
	Slug             string
	Content          string
	PublishingStatus PublishingStatus
	ScheduledFor     *time.Time
	LastPublishedAt  *time.Time
	ExternalPostID   string
	ExternalPostURL  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ScheduleRequest содержит входные данные на планирование ключевого слова.
// Запрос эфемерный и нигде не сохраняется.
type ScheduleRequest struct {
	AccountID     uuid.UUID
	Keyword       string
	RequestedDate *time.Time
}

// UsageSnapshot содержит текущие счётчики использования аккаунта.
// Снимок поставляет биллинговый сервис, ядро его не вычисляет и не изменяет.
type UsageSnapshot struct {
	AccountID                   uuid.UUID
	PlanName                    string
	ArticlesGeneratedThisPeriod int
	KeywordsTotal               int
}

// Count возвращает счётчик, соответствующий виду лимита.
func (s UsageSnapshot) Count(kind LimitKind) int {
	switch kind {
	case LimitArticles:
		return s.ArticlesGeneratedThisPeriod
	case LimitKeywords:
		return s.KeywordsTotal
	default:
		return 0
	}
}
