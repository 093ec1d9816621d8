package hurma

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/username/hurma-bot/pkg/dateutil"
	"go.uber.org/zap"
)

// TelegramContactType is the Hurma contact type id of a Telegram account
const TelegramContactType FlexibleID = "5"

// ErrNoActivity means the schedule-day detail has no activity for the employee
var ErrNoActivity = errors.New("no activity on schedule day")

var absenceReasons = map[string]Reason{
	"Отпуск":     ReasonVacation,
	"Больничный": ReasonIllness,
}

// ClassifyReason maps a localized activity name to its canonical reason
func ClassifyReason(phrase string) (Reason, bool) {
	reason, ok := absenceReasons[strings.TrimSpace(phrase)]
	return reason, ok
}

// TelegramHandle returns the first Telegram contact without the leading "@",
// or an empty string when the employee registered none
func TelegramHandle(contacts []Contact) string {
	for _, contact := range contacts {
		if contact.Type == TelegramContactType {
			return strings.TrimPrefix(strings.TrimSpace(contact.Value), "@")
		}
	}
	return ""
}

// EnrichAbsence fetches the absence details, name and contacts of an employee.
// Only the first activity of the day is considered. The returned record has
// ReasonUnknown when the activity name is not a recognized absence reason.
func (c *Client) EnrichAbsence(ctx context.Context, session *Session, employeeID string, target dateutil.Target) (*AbsenceRecord, error) {
	var detail scheduleDayData
	query := url.Values{
		"employee_id": {employeeID},
		"date":        {target.ISODay()},
	}
	if err := c.getJSON(ctx, session, scheduleDayEndpoint, query, &detail); err != nil {
		return nil, fmt.Errorf("failed to get schedule day of employee %s: %w", employeeID, err)
	}

	if len(detail.ActivityData) == 0 {
		return nil, fmt.Errorf("employee %s: %w", employeeID, ErrNoActivity)
	}
	activity := detail.ActivityData[0]

	to, err := dateutil.ParseDate(activity.DatePeriod.To)
	if err != nil {
		return nil, fmt.Errorf("employee %s: invalid absence period end: %w", employeeID, err)
	}

	name, err := c.GetEmployeeName(ctx, session, employeeID)
	if err != nil {
		return nil, err
	}

	contacts, err := c.GetEmployeeContacts(ctx, session, employeeID)
	if err != nil {
		return nil, err
	}

	id := detail.PeopleID.String()
	if id == "" {
		id = employeeID
	}

	reason, _ := ClassifyReason(activity.Name)

	record := &AbsenceRecord{
		EmployeeID:     id,
		Reason:         reason,
		RawReason:      activity.Name,
		Period:         activity.DatePeriod,
		DaysLeft:       target.DaysUntil(to),
		EmployeeName:   name,
		TelegramHandle: TelegramHandle(contacts),
	}

	c.logger.Info("Absence details retrieved",
		zap.String("employee_id", record.EmployeeID),
		zap.String("reason", record.RawReason),
		zap.String("to", record.Period.To),
		zap.Int("days_left", record.DaysLeft))

	return record, nil
}

// GetEmployeeName returns the display name of an employee
func (c *Client) GetEmployeeName(ctx context.Context, session *Session, employeeID string) (string, error) {
	var info employeeInfo
	query := url.Values{"employee_id": {employeeID}}
	if err := c.getJSON(ctx, session, employeeInfoEndpoint, query, &info); err != nil {
		return "", fmt.Errorf("failed to get name of employee %s: %w", employeeID, err)
	}
	return info.Data.Name, nil
}

// GetEmployeeContacts returns the contact list of an employee
func (c *Client) GetEmployeeContacts(ctx context.Context, session *Session, employeeID string) ([]Contact, error) {
	var contacts []Contact
	query := url.Values{"employee_id": {employeeID}}
	if err := c.getJSON(ctx, session, employeeContactsEndpoint, query, &contacts); err != nil {
		return nil, fmt.Errorf("failed to get contacts of employee %s: %w", employeeID, err)
	}
	return contacts, nil
}
