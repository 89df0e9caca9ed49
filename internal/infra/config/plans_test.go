package config

import (
	"os"
	"path/filepath"
	"testing"

	"searchfuel/internal/domain"
)

func TestLoadPlanTable(t *testing.T) {
	content := `plans:
  - name: free
    max_articles_per_period: 3
    max_keywords_total: 10
    features: [calendar]
  - name: paused
    max_articles_per_period: 0
    max_keywords_total: 0
  - name: agency
`
	path := filepath.Join(t.TempDir(), "plans.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("запись файла: %v", err)
	}

	table, err := LoadPlanTable(path)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	free, found := table.Resolve("free")
	if !found || free.MaxKeywordsTotal != 10 {
		t.Fatalf("тариф free разобран неверно: %+v", free)
	}
	if !free.HasFeature(domain.FeatureCalendar) {
		t.Fatalf("функция calendar потеряна")
	}

	paused, found := table.Resolve("paused")
	if !found {
		t.Fatalf("тариф с нулевыми лимитами должен находиться")
	}
	if paused.MaxArticlesPerPeriod != 0 {
		t.Fatalf("явный ноль остаётся нулём, получили %d", paused.MaxArticlesPerPeriod)
	}

	agency, _ := table.Resolve("agency")
	if agency.MaxKeywordsTotal != domain.Unlimited {
		t.Fatalf("отсутствующий лимит означает безлимит, получили %d", agency.MaxKeywordsTotal)
	}
}

func TestLoadPlanTableEmptyPath(t *testing.T) {
	table, err := LoadPlanTable("")
	if err != nil {
		t.Fatalf("пустой путь даёт встроенные тарифы: %v", err)
	}
	if _, found := table.Resolve("free"); !found {
		t.Fatalf("встроенная таблица должна содержать free")
	}
}

func TestLoadPlanTableRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	if err := os.WriteFile(path, []byte("plans: []"), 0o600); err != nil {
		t.Fatalf("запись файла: %v", err)
	}
	if _, err := LoadPlanTable(path); err == nil {
		t.Fatalf("пустая таблица тарифов должна отклоняться")
	}
}
