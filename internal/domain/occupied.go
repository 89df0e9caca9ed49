package domain

import (
	"errors"
	"time"
)

// DefaultHorizonDays ограничивает перебор дат при автоматическом подборе.
const DefaultHorizonDays = 730

// ErrNoFreeDate возвращается, когда в пределах горизонта нет свободного дня.
var ErrNoFreeDate = errors.New("нет свободной даты в пределах горизонта")

// DayOf усекает момент времени до дня в UTC. Все сравнения дат в планировании
// выполняются с дневной гранулярностью, чтобы шум времени суток не давал
// ложных занятостей.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// OccupiedDates — множество занятых дней аккаунта, собранное из обоих
// источников записей: дат pending ключевых слов и дат scheduled_for статей.
// Само множество не знает о происхождении дат.
type OccupiedDates struct {
	days map[time.Time]struct{}
}

// NewOccupiedDates объединяет даты из нескольких источников в одно множество.
func NewOccupiedDates(sources ...[]time.Time) OccupiedDates {
	occupied := OccupiedDates{days: make(map[time.Time]struct{})}
	for _, source := range sources {
		for _, d := range source {
			occupied.days[DayOf(d)] = struct{}{}
		}
	}
	return occupied
}

// Add помечает день занятым.
func (o OccupiedDates) Add(d time.Time) {
	o.days[DayOf(d)] = struct{}{}
}

// IsAvailable сообщает, свободен ли день.
func (o OccupiedDates) IsAvailable(d time.Time) bool {
	_, taken := o.days[DayOf(d)]
	return !taken
}

// Len возвращает количество занятых дней.
func (o OccupiedDates) Len() int {
	return len(o.days)
}

// NextAvailable возвращает первый свободный день строго после after
// в пределах горизонта по умолчанию.
func (o OccupiedDates) NextAvailable(after time.Time) (time.Time, error) {
	return o.NextAvailableWithin(after, DefaultHorizonDays)
}

// NextAvailableWithin перебирает дни, начиная со следующего после after,
// и возвращает первый не занятый. Горизонт ограничивает перебор, чтобы
// патологически заполненное расписание не превращалось в бесконечный цикл.
func (o OccupiedDates) NextAvailableWithin(after time.Time, horizonDays int) (time.Time, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	day := DayOf(after)
	for i := 0; i < horizonDays; i++ {
		day = day.AddDate(0, 0, 1)
		if o.IsAvailable(day) {
			return day, nil
		}
	}
	return time.Time{}, ErrNoFreeDate
}
