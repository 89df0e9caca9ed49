package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"searchfuel/internal/domain"
)

// planFile описывает YAML-файл с таблицей тарифов.
type planFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	Name string `yaml:"name"`
	// Отсутствующий лимит означает безлимит; явный 0 остаётся нулём
	// и запрещает действие. Это разные состояния.
	MaxArticlesPerPeriod *int     `yaml:"max_articles_per_period"`
	MaxKeywordsTotal     *int     `yaml:"max_keywords_total"`
	Features             []string `yaml:"features"`
}

// LoadPlanTable читает таблицу тарифов из YAML-файла. Пустой путь даёт
// встроенный набор тарифов.
func LoadPlanTable(path string) (domain.PlanTable, error) {
	if path == "" {
		return domain.DefaultPlanTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.PlanTable{}, fmt.Errorf("чтение файла тарифов: %w", err)
	}
	var file planFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.PlanTable{}, fmt.Errorf("разбор файла тарифов: %w", err)
	}
	if len(file.Plans) == 0 {
		return domain.PlanTable{}, fmt.Errorf("файл тарифов %s не содержит ни одного тарифа", path)
	}
	plans := make([]domain.PlanLimits, 0, len(file.Plans))
	for _, entry := range file.Plans {
		if entry.Name == "" {
			return domain.PlanTable{}, fmt.Errorf("тариф без имени в %s", path)
		}
		plan := domain.PlanLimits{
			Name:                 entry.Name,
			MaxArticlesPerPeriod: limitOrUnlimited(entry.MaxArticlesPerPeriod),
			MaxKeywordsTotal:     limitOrUnlimited(entry.MaxKeywordsTotal),
		}
		for _, feature := range entry.Features {
			plan.Features = append(plan.Features, domain.FeatureFlag(feature))
		}
		plans = append(plans, plan)
	}
	return domain.NewPlanTable(plans), nil
}

func limitOrUnlimited(v *int) int {
	if v == nil {
		return domain.Unlimited
	}
	return *v
}
