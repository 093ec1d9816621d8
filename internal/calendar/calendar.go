package calendar

import (
	"context"
	"time"

	"github.com/username/hurma-bot/pkg/dateutil"
)

// DayType represents the type of day
type DayType int

const (
	DayTypeWorkday DayType = iota + 1
	DayTypeDayOff
	DayTypeShortened
)

// String returns a readable day type
func (t DayType) String() string {
	switch t {
	case DayTypeWorkday:
		return "workday"
	case DayTypeDayOff:
		return "day_off"
	case DayTypeShortened:
		return "shortened"
	default:
		return "unknown"
	}
}

// Calendar interface for checking working days
type Calendar interface {
	// IsWorkday checks if the given date is a working day
	IsWorkday(ctx context.Context, date time.Time) (bool, error)
}

// WeekendCalendar treats Monday to Friday as working days
type WeekendCalendar struct{}

// IsWorkday implements Calendar
func (WeekendCalendar) IsWorkday(_ context.Context, date time.Time) (bool, error) {
	return !dateutil.IsWeekend(date), nil
}
