package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"searchfuel/internal/domain"
	"searchfuel/internal/usecase/quota"
)

type stubKeywordRepo struct {
	pendingDates []time.Time
	created      []domain.ScheduledKeyword
	conflicts    int
	cancelled    []uuid.UUID
}

func (s *stubKeywordRepo) CreatePending(_ context.Context, kw domain.ScheduledKeyword) (domain.ScheduledKeyword, error) {
	if s.conflicts > 0 {
		s.conflicts--
		s.pendingDates = append(s.pendingDates, kw.ScheduledDate)
		return domain.ScheduledKeyword{}, domain.ErrDateTaken
	}
	s.created = append(s.created, kw)
	return kw, nil
}

func (s *stubKeywordRepo) GetKeyword(context.Context, uuid.UUID, uuid.UUID) (domain.ScheduledKeyword, error) {
	return domain.ScheduledKeyword{}, domain.ErrKeywordNotFound
}

func (s *stubKeywordRepo) ListPendingDates(context.Context, uuid.UUID) ([]time.Time, error) {
	return s.pendingDates, nil
}

func (s *stubKeywordRepo) ListDue(context.Context, time.Time) ([]domain.ScheduledKeyword, error) {
	return nil, nil
}

func (s *stubKeywordRepo) MarkConsumed(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (s *stubKeywordRepo) CancelKeyword(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	s.cancelled = append(s.cancelled, id)
	return nil
}

func (s *stubKeywordRepo) ListKeywordsRange(context.Context, uuid.UUID, time.Time, time.Time) ([]domain.ScheduledKeyword, error) {
	return nil, nil
}

type stubArticleRepo struct {
	scheduledDates []time.Time
}

func (s *stubArticleRepo) GetArticle(context.Context, uuid.UUID, uuid.UUID) (domain.Article, error) {
	return domain.Article{}, domain.ErrArticleNotFound
}

func (s *stubArticleRepo) CreateArticle(_ context.Context, a domain.Article) (domain.Article, error) {
	return a, nil
}

func (s *stubArticleRepo) UpdateArticle(_ context.Context, a domain.Article) (domain.Article, error) {
	return a, nil
}

func (s *stubArticleRepo) ListScheduledDates(context.Context, uuid.UUID) ([]time.Time, error) {
	return s.scheduledDates, nil
}

func (s *stubArticleRepo) ListArticlesRange(context.Context, uuid.UUID, time.Time, time.Time) ([]domain.Article, error) {
	return nil, nil
}

type stubUsage struct {
	snapshot domain.UsageSnapshot
	err      error
}

func (s *stubUsage) Snapshot(context.Context, uuid.UUID) (domain.UsageSnapshot, error) {
	return s.snapshot, s.err
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(keywords *stubKeywordRepo, articles *stubArticleRepo, usage *stubUsage, today time.Time) *Service {
	guard := quota.NewGuard(domain.NewPlanTable([]domain.PlanLimits{
		{Name: "free", MaxArticlesPerPeriod: 3, MaxKeywordsTotal: 10},
	}))
	service := NewService(keywords, articles, usage, guard, 0)
	service.now = func() time.Time { return today }
	return service
}

func TestScheduleAutoAllocatesNextFreeDate(t *testing.T) {
	keywords := &stubKeywordRepo{pendingDates: []time.Time{date(2024, 6, 1)}}
	articles := &stubArticleRepo{scheduledDates: []time.Time{date(2024, 6, 2)}}
	usage := &stubUsage{snapshot: domain.UsageSnapshot{PlanName: "free", KeywordsTotal: 2}}
	service := newTestService(keywords, articles, usage, date(2024, 5, 31))

	created, err := service.Schedule(context.Background(), domain.ScheduleRequest{
		AccountID: uuid.New(),
		Keyword:   "seo tips",
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !created.ScheduledDate.Equal(date(2024, 6, 3)) {
		t.Fatalf("ожидали 2024-06-03, получили %v", created.ScheduledDate)
	}
	if created.Status != domain.KeywordStatusPending {
		t.Fatalf("новая запись должна быть pending, получили %s", created.Status)
	}
	if created.Keyword != "seo tips" {
		t.Fatalf("ожидали keyword 'seo tips', получили %q", created.Keyword)
	}
}

func TestScheduleRejectsEmptyKeyword(t *testing.T) {
	service := newTestService(&stubKeywordRepo{}, &stubArticleRepo{}, &stubUsage{}, date(2024, 5, 31))
	_, err := service.Schedule(context.Background(), domain.ScheduleRequest{Keyword: "   "})
	if !errors.Is(err, ErrEmptyKeyword) {
		t.Fatalf("ожидали ErrEmptyKeyword, получили %v", err)
	}
}

func TestScheduleRejectsOverQuota(t *testing.T) {
	usage := &stubUsage{snapshot: domain.UsageSnapshot{PlanName: "free", KeywordsTotal: 10}}
	service := newTestService(&stubKeywordRepo{}, &stubArticleRepo{}, usage, date(2024, 5, 31))
	_, err := service.Schedule(context.Background(), domain.ScheduleRequest{Keyword: "x"})
	var quotaErr *domain.QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("ожидали QuotaError, получили %v", err)
	}
	if quotaErr.Limit != 10 || quotaErr.Kind != domain.LimitKeywords {
		t.Fatalf("ошибка несёт не те детали: %+v", quotaErr)
	}
}

func TestScheduleManualDateTaken(t *testing.T) {
	keywords := &stubKeywordRepo{pendingDates: []time.Time{date(2024, 6, 1)}}
	usage := &stubUsage{snapshot: domain.UsageSnapshot{PlanName: "free"}}
	service := newTestService(keywords, &stubArticleRepo{}, usage, date(2024, 5, 31))

	requested := date(2024, 6, 1)
	_, err := service.Schedule(context.Background(), domain.ScheduleRequest{
		Keyword:       "x",
		RequestedDate: &requested,
	})
	if !errors.Is(err, domain.ErrDateUnavailable) {
		t.Fatalf("ожидали ErrDateUnavailable, получили %v", err)
	}
}

func TestScheduleManualDateInPast(t *testing.T) {
	usage := &stubUsage{snapshot: domain.UsageSnapshot{PlanName: "free"}}
	service := newTestService(&stubKeywordRepo{}, &stubArticleRepo{}, usage, date(2024, 5, 31))

	requested := date(2024, 5, 30)
	_, err := service.Schedule(context.Background(), domain.ScheduleRequest{
		Keyword:       "x",
		RequestedDate: &requested,
	})
	if !errors.Is(err, domain.ErrDateInPast) {
		t.Fatalf("ожидали ErrDateInPast, получили %v", err)
	}
}

func TestScheduleManualDateToday(t *testing.T) {
	usage := &stubUsage{snapshot: domain.UsageSnapshot{PlanName: "free"}}
	service := newTestService(&stubKeywordRepo{}, &stubArticleRepo{}, usage, date(2024, 5, 31))

	requested := date(2024, 5, 31)
	created, err := service.Schedule(context.Background(), domain.ScheduleRequest{
		Keyword:       "x",
		RequestedDate: &requested,
	})
	if err != nil {
		t.Fatalf("сегодняшний день не считается прошлым: %v", err)
	}
	if !created.ScheduledDate.Equal(requested) {
		t.Fatalf("ожидали %v, получили %v", requested, created.ScheduledDate)
	}
}

func TestScheduleRetriesOnceOnConflict(t *testing.T) {
	keywords := &stubKeywordRepo{conflicts: 1}
	usage := &stubUsage{snapshot: domain.UsageSnapshot{PlanName: "free"}}
	service := newTestService(keywords, &stubArticleRepo{}, usage, date(2024, 5, 31))

	created, err := service.Schedule(context.Background(), domain.ScheduleRequest{Keyword: "x"})
	if err != nil {
		t.Fatalf("одна повторная попытка должна спасти: %v", err)
	}
	// Первая попытка заняла 2024-06-01, повтор берёт следующий день.
	if !created.ScheduledDate.Equal(date(2024, 6, 2)) {
		t.Fatalf("повтор должен выбрать свежую дату, получили %v", created.ScheduledDate)
	}
	if len(keywords.created) != 1 {
		t.Fatalf("ожидали одну сохранённую запись, получили %d", len(keywords.created))
	}
}

func TestScheduleManualConflictNotRetried(t *testing.T) {
	keywords := &stubKeywordRepo{conflicts: 1}
	usage := &stubUsage{snapshot: domain.UsageSnapshot{PlanName: "free"}}
	service := newTestService(keywords, &stubArticleRepo{}, usage, date(2024, 5, 31))

	requested := date(2024, 6, 5)
	_, err := service.Schedule(context.Background(), domain.ScheduleRequest{
		Keyword:       "x",
		RequestedDate: &requested,
	})
	if !errors.Is(err, domain.ErrDateUnavailable) {
		t.Fatalf("ручная дата при конфликте отклоняется сразу: %v", err)
	}
	if len(keywords.created) != 0 {
		t.Fatalf("запись не должна была сохраниться")
	}
}

func TestScheduleUsageUnavailable(t *testing.T) {
	usage := &stubUsage{err: domain.ErrUsageUnavailable}
	service := newTestService(&stubKeywordRepo{}, &stubArticleRepo{}, usage, date(2024, 5, 31))

	_, err := service.Schedule(context.Background(), domain.ScheduleRequest{Keyword: "x"})
	if !errors.Is(err, domain.ErrUsageUnavailable) {
		t.Fatalf("отказ биллинга не должен маскироваться: %v", err)
	}
}

func TestCancel(t *testing.T) {
	keywords := &stubKeywordRepo{}
	service := newTestService(keywords, &stubArticleRepo{}, &stubUsage{}, date(2024, 5, 31))
	id := uuid.New()
	if err := service.Cancel(context.Background(), uuid.New(), id); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(keywords.cancelled) != 1 || keywords.cancelled[0] != id {
		t.Fatalf("отмена не дошла до хранилища")
	}
}
