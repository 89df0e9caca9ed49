package domain

import (
	"fmt"
	"time"
)

// PublishingStatus описывает состояние статьи в жизненном цикле публикации.
type PublishingStatus string

const (
	// PublishingStatusPending — исходное состояние, действий не предпринято.
	PublishingStatusPending PublishingStatus = "pending"
	// PublishingStatusScheduled — статье назначена дата публикации.
	PublishingStatusScheduled PublishingStatus = "scheduled"
	// PublishingStatusPublishing — идёт попытка публикации во внешнюю CMS.
	PublishingStatusPublishing PublishingStatus = "publishing"
	// PublishingStatusPublished — публикация завершилась успешно.
	PublishingStatusPublished PublishingStatus = "published"
	// PublishingStatusFailed — попытка публикации завершилась ошибкой.
	PublishingStatusFailed PublishingStatus = "failed"
)

// TransitionError возвращается при недопустимом переходе статуса.
// Недопустимый переход — ошибка порядка вызовов, он никогда не приводится
// к «ближайшему допустимому» состоянию.
type TransitionError struct {
	From PublishingStatus
	To   PublishingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal publishing transition: %s -> %s", e.From, e.To)
}

// allowedTransitions перечисляет допустимые рёбра жизненного цикла.
// Возврат в pending описан отдельно в ResetPublishing.
var allowedTransitions = map[PublishingStatus][]PublishingStatus{
	PublishingStatusPending:    {PublishingStatusScheduled, PublishingStatusPublishing},
	PublishingStatusScheduled:  {PublishingStatusPublishing},
	PublishingStatusPublishing: {PublishingStatusPublished, PublishingStatusFailed},
}

// CanTransition сообщает, допустим ли переход между статусами.
func CanTransition(from, to PublishingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition переводит статью в новый статус, проверяя таблицу переходов.
// Переходы с полезной нагрузкой оформлены отдельными функциями ниже.
func Transition(article Article, to PublishingStatus) (Article, error) {
	if !CanTransition(article.PublishingStatus, to) {
		return Article{}, &TransitionError{From: article.PublishingStatus, To: to}
	}
	article.PublishingStatus = to
	return article, nil
}

// PublishResult содержит идентификаторы поста, созданного во внешней CMS.
type PublishResult struct {
	PostID      string
	PostURL     string
	PublishedAt time.Time
}

// ScheduleArticle назначает дату публикации: pending -> scheduled.
func ScheduleArticle(article Article, on time.Time) (Article, error) {
	next, err := Transition(article, PublishingStatusScheduled)
	if err != nil {
		return Article{}, err
	}
	day := DayOf(on)
	next.ScheduledFor = &day
	return next, nil
}

// BeginPublishing начинает попытку публикации: pending|scheduled -> publishing.
func BeginPublishing(article Article) (Article, error) {
	return Transition(article, PublishingStatusPublishing)
}

// CompletePublishing фиксирует успешную публикацию: publishing -> published.
func CompletePublishing(article Article, result PublishResult) (Article, error) {
	next, err := Transition(article, PublishingStatusPublished)
	if err != nil {
		return Article{}, err
	}
	publishedAt := result.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}
	next.LastPublishedAt = &publishedAt
	next.ExternalPostID = result.PostID
	next.ExternalPostURL = result.PostURL
	return next, nil
}

// FailPublishing фиксирует неудачную публикацию: publishing -> failed.
func FailPublishing(article Article) (Article, error) {
	return Transition(article, PublishingStatusFailed)
}

// ResetPublishing возвращает статью в pending из любого состояния и очищает
// следы публикации. Для статьи в pending это no-op, а не ошибка: внешняя
// публикация не транзакционна с нашей записью, и откат — единственный
// пользовательский способ привести их в соответствие.
func ResetPublishing(article Article) Article {
	article.PublishingStatus = PublishingStatusPending
	article.ScheduledFor = nil
	article.LastPublishedAt = nil
	article.ExternalPostID = ""
	article.ExternalPostURL = ""
	return article
}
