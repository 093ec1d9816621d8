package notify

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/username/hurma-bot/internal/digest"
	"github.com/username/hurma-bot/internal/hurma"
	"github.com/username/hurma-bot/pkg/dateutil"
)

const icsProductID = "-//Hurma Bot//Digest//RU"

// EncodeICS writes the result as an iCalendar feed of all-day events:
// absences span their period, birthdays and anniversaries fall on the target date
func (r *Renderer) EncodeICS(w io.Writer, result *digest.Result, target dateutil.Target, now time.Time) error {
	if result == nil {
		result = &digest.Result{}
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(now.UTC())

	add := func(uid, summary string, start, end time.Time) {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, uid)
		event.Props.SetText(ical.PropSummary, summary)
		event.Props.Set(stamp)
		event.Props.SetDate(ical.PropDateTimeStart, start)
		// DTEND is exclusive for all-day events
		event.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
		cal.Children = append(cal.Children, event.Component)
	}

	absences := []struct {
		titleID string
		records []hurma.AbsenceRecord
	}{
		{"VacationTitle", result.Vacation},
		{"IllnessTitle", result.Illness},
	}
	for _, group := range absences {
		title, err := r.translate(group.titleID)
		if err != nil {
			return err
		}
		for _, rec := range group.records {
			start, end, err := absenceSpan(rec, target)
			if err != nil {
				return err
			}
			uid := eventUID("absence", rec.EmployeeID, rec.Period.From, rec.Period.To)
			add(uid, fmt.Sprintf("%s: %s", title, rec.EmployeeName), start, end)
		}
	}

	birthdayTitle, err := r.translate("BirthdayTitle")
	if err != nil {
		return err
	}
	for _, b := range result.Birthday {
		uid := eventUID("birthday", b.EmployeeName, target.ISODay())
		add(uid, fmt.Sprintf("%s: %s", birthdayTitle, b.EmployeeName), target.Date, target.Date)
	}

	anniversaryTitle, err := r.translate("AnniversaryTitle")
	if err != nil {
		return err
	}
	for _, a := range result.Anniversary {
		years, err := r.plural("Years", a.Years)
		if err != nil {
			return err
		}
		uid := eventUID("anniversary", a.EmployeeName, target.ISODay())
		add(uid, fmt.Sprintf("%s: %s (%s)", anniversaryTitle, a.EmployeeName, years), target.Date, target.Date)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode iCalendar data: %w", err)
	}
	return nil
}

// absenceSpan returns the absence period, clamped so that it always covers the target date
func absenceSpan(rec hurma.AbsenceRecord, target dateutil.Target) (time.Time, time.Time, error) {
	start, err := dateutil.ParseDate(rec.Period.From)
	if err != nil {
		start = target.Date
	}
	end, err := dateutil.ParseDate(rec.Period.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("absence of %s: %w", rec.EmployeeID, err)
	}
	if start.After(end) {
		start = end
	}
	return start, end, nil
}

// eventUID is stable across runs so calendar clients update events instead of duplicating them
func eventUID(parts ...string) string {
	var key string
	for _, p := range parts {
		key += p + "|"
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@hurma-bot"
}
