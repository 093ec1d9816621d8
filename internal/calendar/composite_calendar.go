package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CompositeCalendar implements Calendar with fallback strategy
// Primary: IsDayOffCalendar (API)
// Fallback: WeekendCalendar
type CompositeCalendar struct {
	primary  Calendar
	fallback Calendar
	logger   *zap.Logger
}

// NewCompositeCalendar creates a new CompositeCalendar
func NewCompositeCalendar(primary, fallback Calendar, logger *zap.Logger) *CompositeCalendar {
	return &CompositeCalendar{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// IsWorkday checks if the given date is a working day
func (cc *CompositeCalendar) IsWorkday(ctx context.Context, date time.Time) (bool, error) {
	isWorkday, err := cc.primary.IsWorkday(ctx, date)
	if err == nil {
		return isWorkday, nil
	}

	cc.logger.Warn("Primary calendar failed, falling back",
		zap.String("date", date.Format("2006-01-02")),
		zap.Error(err))

	return cc.fallback.IsWorkday(ctx, date)
}
