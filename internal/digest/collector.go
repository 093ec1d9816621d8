package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/username/hurma-bot/internal/hurma"
	"github.com/username/hurma-bot/pkg/dateutil"
	"go.uber.org/zap"
)

// Credentials are the Hurma login credentials
type Credentials struct {
	Email    string
	Password string
}

// Collector runs the scraping pipeline for one target date
type Collector struct {
	client      *hurma.Client
	credentials Credentials
	logger      *zap.Logger
}

// NewCollector creates a new collector
func NewCollector(client *hurma.Client, credentials Credentials, logger *zap.Logger) *Collector {
	return &Collector{
		client:      client,
		credentials: credentials,
		logger:      logger,
	}
}

// Collect logs in, gathers absences and calendar events for the target date
// and merges them. Each call performs exactly one login; nothing is reused
// between calls.
func (c *Collector) Collect(ctx context.Context, target dateutil.Target) (*Result, error) {
	started := time.Now()

	c.logger.Info("Starting collection",
		zap.String("date", target.ISODay()),
		zap.Bool("next_day", target.NextDay))

	session, err := c.client.Login(ctx, c.credentials.Email, c.credentials.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	absences, err := c.collectAbsences(ctx, session, target)
	if err != nil {
		return nil, err
	}

	events, err := c.client.FetchEvents(ctx, session, target)
	if err != nil {
		return nil, err
	}

	result := Merge(absences, events)

	c.logger.Info("Collection completed",
		zap.String("date", target.ISODay()),
		zap.Int("vacation", len(result.Vacation)),
		zap.Int("illness", len(result.Illness)),
		zap.Int("anniversary", len(result.Anniversary)),
		zap.Int("birthday", len(result.Birthday)),
		zap.Duration("took", time.Since(started)))

	return result, nil
}

func (c *Collector) collectAbsences(ctx context.Context, session *hurma.Session, target dateutil.Target) (Absences, error) {
	var absences Absences

	timelines, err := c.client.FetchTimeline(ctx, session, target.MonthKey())
	if err != nil {
		return absences, err
	}

	ids := Unique(hurma.FindAbsentees(timelines, target.ISODay()))

	c.logger.Info("Absent employees found", zap.Int("count", len(ids)))

	for _, id := range ids {
		record, err := c.client.EnrichAbsence(ctx, session, id, target)
		if errors.Is(err, hurma.ErrNoActivity) {
			c.logger.Warn("Timeline activity vanished from schedule day, skipping",
				zap.String("employee_id", id))
			continue
		}
		if err != nil {
			return absences, err
		}

		if !absences.Add(*record) {
			c.logger.Info("Skipping absence with unrecognized reason",
				zap.String("employee_id", record.EmployeeID),
				zap.String("reason", record.RawReason))
		}
	}

	return absences, nil
}

// Unique removes repeated ids, keeping the first occurrence order
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
