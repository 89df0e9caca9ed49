package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerationJobCause описывает источник задачи генерации.
type GenerationJobCause string

const (
	// GenerationCauseScheduled — задача поставлена диспетчером по расписанию.
	GenerationCauseScheduled GenerationJobCause = "scheduled"
	// GenerationCauseManual — пользователь запросил генерацию вручную.
	GenerationCauseManual GenerationJobCause = "manual"
)

// GenerationJob содержит информацию о задаче генерации статьи.
// Задачу потребляет конвейер генерации контента, внешний по отношению к ядру.
type GenerationJob struct {
	ID            string             `json:"job_id,omitempty"`
	AccountID     uuid.UUID          `json:"account_id"`
	KeywordID     uuid.UUID          `json:"keyword_id"`
	Keyword       string             `json:"keyword"`
	ScheduledDate time.Time          `json:"scheduled_date"`
	EnqueuedAt    time.Time          `json:"enqueued_at"`
	Cause         GenerationJobCause `json:"cause"`
}
