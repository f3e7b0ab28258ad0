package utils

import "time"

// TruncateToDay descarta o componente de hora de uma data, fixando UTC
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TruncateToMonth retorna o primeiro dia do mês de uma data, em UTC
func TruncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseDate interpreta uma data no formato canônico YYYY-MM-DD
func ParseDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return time.Time{}, err
	}

	return date.UTC(), nil
}
