package hurma

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleID handles both string and number IDs from Hurma
// The timeline returns employee ids as numbers, some detail endpoints
// return them as strings, and contact types come back either way.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler for FlexibleID
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexibleID(strconv.FormatInt(n, 10))
		return nil
	}

	return fmt.Errorf("FlexibleID: cannot unmarshal %s", string(b))
}

// MarshalJSON implements json.Marshaler for FlexibleID
func (f FlexibleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns string representation
func (f FlexibleID) String() string {
	return string(f)
}

// TimelineEntry is one employee row of the monthly timeline
type TimelineEntry struct {
	ID           FlexibleID    `json:"id"`
	Name         string        `json:"name,omitempty"`
	ScheduleDays []ScheduleDay `json:"schedule_days"`
}

// ScheduleDay is a single day cell of a timeline row.
// Activity entries are only inspected for presence here; their content
// is fetched separately through the schedule-day detail endpoint.
type ScheduleDay struct {
	Date         string            `json:"date"`
	ActivityData []json.RawMessage `json:"activity_data"`
}

// timelinePage is the paginated response of the timeline endpoint
type timelinePage struct {
	Employees []TimelineEntry `json:"employees"`
	Meta      struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
	} `json:"meta"`
}

// Period is an absence date range as returned by Hurma
type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Activity is a schedule entry (vacation, sick leave, ...) of an employee
type Activity struct {
	Name       string `json:"name"`
	DatePeriod Period `json:"date_period"`
}

// scheduleDayData is the response of the schedule-day detail endpoint
type scheduleDayData struct {
	PeopleID     FlexibleID `json:"people_id"`
	ActivityData []Activity `json:"activity_data"`
}

// employeeInfo is the response of the employee common info endpoint
type employeeInfo struct {
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

// Contact is an employee contact entry; Type identifies the messenger/network
type Contact struct {
	Type  FlexibleID `json:"type"`
	Value string     `json:"value"`
}

// CalendarEvent is one entry of the calendar day feed
type CalendarEvent struct {
	EventName string `json:"eventName"`
	Name      string `json:"name"`
}

// calendarDay is the response of the calendar day endpoint
type calendarDay struct {
	Events []CalendarEvent `json:"events"`
}

// Reason is the canonical absence reason
type Reason string

const (
	ReasonUnknown  Reason = ""
	ReasonVacation Reason = "vacation"
	ReasonIllness  Reason = "illness"
)

// AbsenceRecord describes an employee absent on the target date
type AbsenceRecord struct {
	EmployeeID     string `json:"user_id"`
	Reason         Reason `json:"-"`
	RawReason      string `json:"reason"`
	Period         Period `json:"period"`
	DaysLeft       int    `json:"days_left"`
	EmployeeName   string `json:"user_name"`
	TelegramHandle string `json:"user_contact,omitempty"`
}

// Anniversary is a work anniversary on the target date
type Anniversary struct {
	EmployeeName string `json:"user_name"`
	Date         string `json:"date"`
	Years        int    `json:"years"`
}

// Birthday is a birthday on the target date
type Birthday struct {
	EmployeeName string `json:"user_name"`
	DayLabel     string `json:"day"`
}

// Events groups the calendar entries of the target date by kind
type Events struct {
	Anniversary []Anniversary
	Birthday    []Birthday
}
