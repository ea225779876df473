package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Taskmill/internal/domain"
)

// cronParser — парсер cron-выражений.
// Поддерживает 5 полей, дескрипторы (@hourly, @every 5m) и префикс CRON_TZ=.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule проверяет cron-выражение task.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return domain.NewSpecError("schedule", fmt.Sprintf("invalid cron expression %q: %v", expr, err))
	}
	return nil
}

// NextRunAfter вычисляет следующее время по cron-выражению.
func NextRunAfter(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}

	next := schedule.Next(from)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("cron expression %q never fires", expr)
	}
	return next.UTC(), nil
}
