package quota

import (
	"searchfuel/internal/domain"
)

// Guard проверяет, укладывается ли аккаунт в лимиты своего тарифа.
// Таблица тарифов передаётся при создании, а не берётся из глобального
// состояния, чтобы тесты могли подставлять произвольные наборы.
type Guard struct {
	table domain.PlanTable
}

// NewGuard создаёт охранника квот.
func NewGuard(table domain.PlanTable) *Guard {
	return &Guard{table: table}
}

// Check возвращает nil, если действие разрешено, и *domain.QuotaError,
// если лимит исчерпан. Неизвестный тариф даёт нулевые лимиты и запрещает
// всё; безлимитный sentinel разрешает всегда. Счётчик, равный лимиту,
// уже означает исчерпание.
func (g *Guard) Check(usage domain.UsageSnapshot, kind domain.LimitKind) error {
	plan, _ := g.table.Resolve(usage.PlanName)
	limit := plan.Limit(kind)
	if limit == domain.Unlimited {
		return nil
	}
	if usage.Count(kind) < limit {
		return nil
	}
	return &domain.QuotaError{Kind: kind, Limit: limit, Plan: usage.PlanName}
}

// HasFeature сообщает, доступна ли функция на тарифе аккаунта.
// Неизвестный тариф не имеет функций.
func (g *Guard) HasFeature(usage domain.UsageSnapshot, flag domain.FeatureFlag) bool {
	plan, _ := g.table.Resolve(usage.PlanName)
	return plan.HasFeature(flag)
}
