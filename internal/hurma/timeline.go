package hurma

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/username/hurma-bot/pkg/dateutil"
	"go.uber.org/zap"
)

const timelineOrder = `{"field":"name","direction":"asc"}`

// FetchTimeline retrieves every page of the monthly timeline.
// Pages are requested one after another; a failure on any page fails the whole call.
func (c *Client) FetchTimeline(ctx context.Context, session *Session, monthKey string) ([]TimelineEntry, error) {
	first, err := c.fetchTimelinePage(ctx, session, monthKey, 1)
	if err != nil {
		return nil, err
	}

	lastPage := first.Meta.LastPage
	if lastPage < 1 {
		lastPage = 1
	}

	c.logger.Info("Timeline pagination",
		zap.String("month", monthKey),
		zap.Int("last_page", lastPage))

	entries := append([]TimelineEntry(nil), first.Employees...)

	for page := 2; page <= lastPage; page++ {
		resp, err := c.fetchTimelinePage(ctx, session, monthKey, page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, resp.Employees...)
	}

	c.logger.Info("Timeline retrieved",
		zap.String("month", monthKey),
		zap.Int("pages", lastPage),
		zap.Int("employees", len(entries)))

	return entries, nil
}

func (c *Client) fetchTimelinePage(ctx context.Context, session *Session, monthKey string, page int) (*timelinePage, error) {
	query := url.Values{
		"month":    {monthKey},
		"page":     {strconv.Itoa(page)},
		"order":    {timelineOrder},
		"teams":    {"[]"},
		"search":   {""},
		"requests": {"[]"},
		"approved": {"[]"},
	}

	var resp timelinePage
	if err := c.getJSON(ctx, session, timelineEndpoint, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to get timeline page %d: %w", page, err)
	}

	return &resp, nil
}

// FindAbsentees returns the ids of employees having an activity on isoDay.
// An employee appears once per matching schedule day, so ids may repeat.
func FindAbsentees(timelines []TimelineEntry, isoDay string) []string {
	var ids []string

	for _, entry := range timelines {
		for _, day := range entry.ScheduleDays {
			if len(day.ActivityData) > 0 && dateutil.TruncateDate(day.Date) == isoDay {
				ids = append(ids, entry.ID.String())
			}
		}
	}

	return ids
}
