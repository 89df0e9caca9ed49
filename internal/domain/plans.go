package domain

import (
	"fmt"
	"strings"
)

// Unlimited обозначает отсутствие числового лимита в тарифе.
const Unlimited = -1

// LimitKind описывает вид квотируемого ресурса.
type LimitKind string

const (
	// LimitArticles — статьи, сгенерированные за расчётный период.
	LimitArticles LimitKind = "articles"
	// LimitKeywords — общее количество запланированных ключевых слов.
	LimitKeywords LimitKind = "keywords"
)

// FeatureFlag описывает функцию, доступную на тарифе.
type FeatureFlag string

const (
	// FeatureAutoPublish — автоматическая публикация сгенерированных статей.
	FeatureAutoPublish FeatureFlag = "auto_publish"
	// FeatureManualDates — выбор произвольной даты публикации.
	FeatureManualDates FeatureFlag = "manual_dates"
	// FeatureCalendar — календарь публикаций.
	FeatureCalendar FeatureFlag = "calendar"
)

// PlanLimits описывает ограничения тарифа.
type PlanLimits struct {
	Name                 string
	MaxArticlesPerPeriod int
	MaxKeywordsTotal     int
	Features             []FeatureFlag
}

// Limit возвращает числовой лимит для вида ресурса.
func (p PlanLimits) Limit(kind LimitKind) int {
	switch kind {
	case LimitArticles:
		return p.MaxArticlesPerPeriod
	case LimitKeywords:
		return p.MaxKeywordsTotal
	default:
		return 0
	}
}

// HasFeature сообщает, доступна ли функция на тарифе.
func (p PlanLimits) HasFeature(flag FeatureFlag) bool {
	for _, f := range p.Features {
		if f == flag {
			return true
		}
	}
	return false
}

// PlanTable хранит тарифы по имени без учёта регистра.
type PlanTable struct {
	plans map[string]PlanLimits
}

// NewPlanTable создаёт таблицу тарифов.
func NewPlanTable(plans []PlanLimits) PlanTable {
	table := PlanTable{plans: make(map[string]PlanLimits, len(plans))}
	for _, plan := range plans {
		table.plans[strings.ToLower(strings.TrimSpace(plan.Name))] = plan
	}
	return table
}

// Resolve возвращает тариф по имени. Неизвестное имя даёт тариф с нулевыми
// лимитами и без функций: неопознанный тариф не может выполнять квотируемые
// действия. Второе значение отличает найденный тариф от заглушки, чтобы
// нулевой лимит в конфигурации не смешивался с отсутствующим тарифом.
func (t PlanTable) Resolve(name string) (PlanLimits, bool) {
	plan, ok := t.plans[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return PlanLimits{Name: name}, false
	}
	return plan, true
}

// DefaultPlanTable возвращает встроенный набор тарифов.
func DefaultPlanTable() PlanTable {
	return NewPlanTable([]PlanLimits{
		{
			Name:                 "free",
			MaxArticlesPerPeriod: 3,
			MaxKeywordsTotal:     10,
			Features:             []FeatureFlag{FeatureCalendar},
		},
		{
			Name:                 "starter",
			MaxArticlesPerPeriod: 30,
			MaxKeywordsTotal:     100,
			Features:             []FeatureFlag{FeatureCalendar, FeatureManualDates},
		},
		{
			Name:                 "pro",
			MaxArticlesPerPeriod: 120,
			MaxKeywordsTotal:     Unlimited,
			Features:             []FeatureFlag{FeatureCalendar, FeatureManualDates, FeatureAutoPublish},
		},
		{
			Name:                 "agency",
			MaxArticlesPerPeriod: Unlimited,
			MaxKeywordsTotal:     Unlimited,
			Features:             []FeatureFlag{FeatureCalendar, FeatureManualDates, FeatureAutoPublish},
		},
	})
}

// QuotaError сообщает об исчерпанном лимите тарифа. Это ожидаемый деловой
// исход, а не сбой: вызывающий показывает пользователю точное сообщение
// с лимитом и видом ресурса.
type QuotaError struct {
	Kind  LimitKind
	Limit int
	Plan  string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded: plan=%s kind=%s limit=%d", e.Plan, e.Kind, e.Limit)
}
