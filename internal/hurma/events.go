package hurma

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/username/hurma-bot/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	anniversaryPrefix = "Годовщина"
	birthdayPrefix    = "День рождения"
)

// EventKind is the classification of a calendar event
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventAnniversary
	EventBirthday
)

func (k EventKind) String() string {
	switch k {
	case EventAnniversary:
		return "anniversary"
	case EventBirthday:
		return "birthday"
	default:
		return "unrecognized"
	}
}

// ClassifyEvent classifies a calendar event by its localized name.
// The anniversary prefix is checked first, so a name matching both is an anniversary.
func ClassifyEvent(eventName string) EventKind {
	name := strings.TrimSpace(eventName)
	switch {
	case strings.HasPrefix(name, anniversaryPrefix):
		return EventAnniversary
	case strings.HasPrefix(name, birthdayPrefix):
		return EventBirthday
	default:
		return EventUnrecognized
	}
}

// ParseAnniversaryYears extracts the year count from an anniversary event name.
// The count is the second-to-last word, e.g. "Годовщина работы 5 лет" -> 5.
func ParseAnniversaryYears(eventName string) (int, error) {
	fields := strings.Fields(eventName)
	if len(fields) < 2 {
		return 0, fmt.Errorf("anniversary %q: no year count", eventName)
	}

	years, err := strconv.Atoi(fields[len(fields)-2])
	if err != nil {
		return 0, fmt.Errorf("anniversary %q: invalid year count: %w", eventName, err)
	}

	return years, nil
}

// FetchEvents fetches the calendar day feed and groups birthdays and anniversaries.
// An anniversary with a malformed year count is skipped; it does not fail the call.
func (c *Client) FetchEvents(ctx context.Context, session *Session, target dateutil.Target) (*Events, error) {
	var day calendarDay
	query := url.Values{"day": {target.ISODay()}}
	if err := c.getJSON(ctx, session, calendarDayEndpoint, query, &day); err != nil {
		return nil, fmt.Errorf("failed to get calendar day: %w", err)
	}

	events := &Events{}

	for _, event := range day.Events {
		switch ClassifyEvent(event.EventName) {
		case EventAnniversary:
			years, err := ParseAnniversaryYears(event.EventName)
			if err != nil {
				c.logger.Warn("Skipping malformed anniversary",
					zap.String("employee", event.Name),
					zap.String("event", event.EventName),
					zap.Error(err))
				continue
			}
			events.Anniversary = append(events.Anniversary, Anniversary{
				EmployeeName: event.Name,
				Date:         target.ISODay(),
				Years:        years,
			})

		case EventBirthday:
			events.Birthday = append(events.Birthday, Birthday{
				EmployeeName: event.Name,
				DayLabel:     target.DayLabel(),
			})

		default:
			c.logger.Debug("Ignoring calendar event", zap.String("event", event.EventName))
		}
	}

	c.logger.Info("Calendar events retrieved",
		zap.String("date", target.ISODay()),
		zap.Int("total", len(day.Events)),
		zap.Int("anniversaries", len(events.Anniversary)),
		zap.Int("birthdays", len(events.Birthday)))

	return events, nil
}
