package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestProjectCalendarExcludesNextMonth(t *testing.T) {
	monthStart := date(2024, 6, 1)
	monthEnd := date(2024, 6, 30)
	keywords := []ScheduledKeyword{
		{ID: uuid.New(), Keyword: "seo basics", ScheduledDate: date(2024, 6, 30), Status: KeywordStatusPending},
		{ID: uuid.New(), Keyword: "july topic", ScheduledDate: date(2024, 7, 1), Status: KeywordStatusPending},
	}
	july := date(2024, 7, 1)
	articles := []Article{
		{ID: uuid.New(), Title: "June article", PublishingStatus: PublishingStatusScheduled, ScheduledFor: ptrTime(date(2024, 6, 15))},
		{ID: uuid.New(), Title: "July article", PublishingStatus: PublishingStatusScheduled, ScheduledFor: &july},
	}
	projection := ProjectCalendar(keywords, articles, monthStart, monthEnd)
	if len(projection) != 2 {
		t.Fatalf("ожидали 2 дня, получили %d", len(projection))
	}
	if _, ok := projection[date(2024, 7, 1)]; ok {
		t.Fatalf("первый день следующего месяца не должен попадать в проекцию")
	}
	if len(projection[date(2024, 6, 30)]) != 1 {
		t.Fatalf("последний день месяца входит в диапазон включительно")
	}
}

func TestProjectCalendarOrderWithinDay(t *testing.T) {
	day := date(2024, 6, 10)
	keywords := []ScheduledKeyword{
		{ID: uuid.New(), Keyword: "first", ScheduledDate: day, Status: KeywordStatusPending},
		{ID: uuid.New(), Keyword: "second", ScheduledDate: day, Status: KeywordStatusConsumed},
	}
	articles := []Article{
		{ID: uuid.New(), Title: "third", PublishingStatus: PublishingStatusScheduled, ScheduledFor: &day},
	}
	projection := ProjectCalendar(keywords, articles, date(2024, 6, 1), date(2024, 6, 30))
	entries := projection[day]
	if len(entries) != 3 {
		t.Fatalf("ожидали 3 записи, получили %d", len(entries))
	}
	wantTitles := []string{"first", "second", "third"}
	for i, want := range wantTitles {
		if entries[i].Title != want {
			t.Fatalf("позиция %d: ожидали %q, получили %q", i, want, entries[i].Title)
		}
	}
	if entries[0].Kind != CalendarEntryKeyword || entries[2].Kind != CalendarEntryArticle {
		t.Fatalf("порядок источников нарушен: %+v", entries)
	}
}

func TestProjectCalendarSkipsCancelledAndUndated(t *testing.T) {
	keywords := []ScheduledKeyword{
		{ID: uuid.New(), Keyword: "cancelled", ScheduledDate: date(2024, 6, 5), Status: KeywordStatusCancelled},
	}
	publishedAt := time.Date(2024, 6, 7, 9, 30, 0, 0, time.UTC)
	articles := []Article{
		{ID: uuid.New(), Title: "draft", PublishingStatus: PublishingStatusPending},
		{ID: uuid.New(), Title: "live", PublishingStatus: PublishingStatusPublished, LastPublishedAt: &publishedAt},
	}
	projection := ProjectCalendar(keywords, articles, date(2024, 6, 1), date(2024, 6, 30))
	if len(projection) != 1 {
		t.Fatalf("ожидали 1 день, получили %d", len(projection))
	}
	entries := projection[date(2024, 6, 7)]
	if len(entries) != 1 || entries[0].Title != "live" {
		t.Fatalf("опубликованная статья видна по дню публикации: %+v", entries)
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
