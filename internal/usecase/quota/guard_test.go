package quota

import (
	"errors"
	"testing"

	"searchfuel/internal/domain"
)

func testTable() domain.PlanTable {
	return domain.NewPlanTable([]domain.PlanLimits{
		{Name: "free", MaxArticlesPerPeriod: 3, MaxKeywordsTotal: 10},
		{Name: "agency", MaxArticlesPerPeriod: domain.Unlimited, MaxKeywordsTotal: domain.Unlimited},
	})
}

func TestCheck(t *testing.T) {
	guard := NewGuard(testTable())
	tests := []struct {
		name    string
		usage   domain.UsageSnapshot
		kind    domain.LimitKind
		allowed bool
	}{
		{name: "below limit", usage: domain.UsageSnapshot{PlanName: "free", KeywordsTotal: 9}, kind: domain.LimitKeywords, allowed: true},
		{name: "at limit", usage: domain.UsageSnapshot{PlanName: "free", KeywordsTotal: 10}, kind: domain.LimitKeywords, allowed: false},
		{name: "over limit", usage: domain.UsageSnapshot{PlanName: "free", KeywordsTotal: 11}, kind: domain.LimitKeywords, allowed: false},
		{name: "articles at limit", usage: domain.UsageSnapshot{PlanName: "free", ArticlesGeneratedThisPeriod: 3}, kind: domain.LimitArticles, allowed: false},
		{name: "case insensitive", usage: domain.UsageSnapshot{PlanName: "Free", KeywordsTotal: 2}, kind: domain.LimitKeywords, allowed: true},
		{name: "unlimited plan", usage: domain.UsageSnapshot{PlanName: "agency", KeywordsTotal: 100000}, kind: domain.LimitKeywords, allowed: true},
		{name: "unknown plan keywords", usage: domain.UsageSnapshot{PlanName: "enterprise", KeywordsTotal: 0}, kind: domain.LimitKeywords, allowed: false},
		{name: "unknown plan articles", usage: domain.UsageSnapshot{PlanName: "enterprise"}, kind: domain.LimitArticles, allowed: false},
		{name: "empty plan name", usage: domain.UsageSnapshot{PlanName: ""}, kind: domain.LimitKeywords, allowed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Check(tt.usage, tt.kind)
			if tt.allowed {
				if err != nil {
					t.Fatalf("ожидали разрешение, получили %v", err)
				}
				return
			}
			var quotaErr *domain.QuotaError
			if !errors.As(err, &quotaErr) {
				t.Fatalf("ожидали QuotaError, получили %v", err)
			}
			if quotaErr.Kind != tt.kind {
				t.Fatalf("ошибка несёт вид %s, ожидали %s", quotaErr.Kind, tt.kind)
			}
		})
	}
}

func TestCheckDeniedCarriesLimit(t *testing.T) {
	guard := NewGuard(testTable())
	err := guard.Check(domain.UsageSnapshot{PlanName: "free", KeywordsTotal: 10}, domain.LimitKeywords)
	var quotaErr *domain.QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("ожидали QuotaError, получили %v", err)
	}
	if quotaErr.Limit != 10 {
		t.Fatalf("ожидали лимит 10, получили %d", quotaErr.Limit)
	}
	if quotaErr.Plan != "free" {
		t.Fatalf("ожидали тариф free, получили %s", quotaErr.Plan)
	}
}

func TestHasFeature(t *testing.T) {
	guard := NewGuard(domain.NewPlanTable([]domain.PlanLimits{
		{Name: "pro", Features: []domain.FeatureFlag{domain.FeatureManualDates}},
	}))
	if !guard.HasFeature(domain.UsageSnapshot{PlanName: "pro"}, domain.FeatureManualDates) {
		t.Fatalf("функция тарифа должна быть доступна")
	}
	if guard.HasFeature(domain.UsageSnapshot{PlanName: "unknown"}, domain.FeatureManualDates) {
		t.Fatalf("неизвестный тариф не имеет функций")
	}
}
