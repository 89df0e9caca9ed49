package domain

import (
	"time"

	"github.com/google/uuid"
)

// CalendarEntryKind различает источник записи календаря.
type CalendarEntryKind string

const (
	// CalendarEntryKeyword — запись из расписания ключевых слов.
	CalendarEntryKeyword CalendarEntryKind = "keyword"
	// CalendarEntryArticle — запись из расписания статей.
	CalendarEntryArticle CalendarEntryKind = "article"
)

// CalendarEntry — одна позиция в календаре публикаций.
type CalendarEntry struct {
	ID     uuid.UUID
	Title  string
	Status string
	Kind   CalendarEntryKind
}

// ProjectCalendar строит представление «день -> записи» из уже выбранных
// данных. Функция чистая: ничего не читает и не изменяет. Обе
// последовательности фильтруются по [monthStart, monthEnd] включительно
// с дневной гранулярностью; внутри дня сохраняется порядок входных списков,
// сначала ключевые слова, затем статьи.
func ProjectCalendar(keywords []ScheduledKeyword, articles []Article, monthStart, monthEnd time.Time) map[time.Time][]CalendarEntry {
	first := DayOf(monthStart)
	last := DayOf(monthEnd)
	result := make(map[time.Time][]CalendarEntry)

	inRange := func(day time.Time) bool {
		return !day.Before(first) && !day.After(last)
	}

	for _, kw := range keywords {
		if kw.Status == KeywordStatusCancelled {
			continue
		}
		day := DayOf(kw.ScheduledDate)
		if !inRange(day) {
			continue
		}
		result[day] = append(result[day], CalendarEntry{
			ID:     kw.ID,
			Title:  kw.Keyword,
			Status: string(kw.Status),
			Kind:   CalendarEntryKeyword,
		})
	}

	for _, article := range articles {
		day, ok := articleCalendarDay(article)
		if !ok || !inRange(day) {
			continue
		}
		result[day] = append(result[day], CalendarEntry{
			ID:     article.ID,
			Title:  article.Title,
			Status: string(article.PublishingStatus),
			Kind:   CalendarEntryArticle,
		})
	}

	return result
}

// articleCalendarDay выбирает день, под которым статья видна в календаре:
// назначенная дата, а для уже опубликованных — день публикации.
func articleCalendarDay(article Article) (time.Time, bool) {
	if article.ScheduledFor != nil {
		return DayOf(*article.ScheduledFor), true
	}
	if article.PublishingStatus == PublishingStatusPublished && article.LastPublishedAt != nil {
		return DayOf(*article.LastPublishedAt), true
	}
	return time.Time{}, false
}
