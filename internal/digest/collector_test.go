package digest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/hurma-bot/internal/hurma"
	"github.com/username/hurma-bot/internal/hurma/hurmatest"
	"github.com/username/hurma-bot/pkg/dateutil"
)

func newTestCollector(srv *hurmatest.Server) *Collector {
	client := hurma.NewClient(srv.URL, 5*time.Second, zap.NewNop())
	client.SetHTTPClient(srv.Client())
	return NewCollector(client, Credentials{Email: "hr@example.com", Password: "secret"}, zap.NewNop())
}

func TestCollector_Collect_IllnessAcrossPages(t *testing.T) {
	srv := hurmatest.NewServer()
	defer srv.Close()

	target := dateutil.NewTarget(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), false)

	srv.Pages = [][]hurma.TimelineEntry{
		{hurmatest.Employee(10, "2025-03-10"), hurmatest.Employee(11, "2025-03-03")},
		{hurmatest.Employee(12)},
	}
	srv.Absences["10"] = hurmatest.Absence{Reason: "Больничный", From: "2025-03-09", To: "2025-03-13"}
	srv.Names["10"] = "Иван Петров"

	result, err := newTestCollector(srv).Collect(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, result.Illness, 1)
	assert.Equal(t, "10", result.Illness[0].EmployeeID)
	assert.Equal(t, 4, result.Illness[0].DaysLeft)
	assert.Equal(t, "Иван Петров", result.Illness[0].EmployeeName)
	assert.Empty(t, result.Vacation)
	assert.Equal(t, 1, srv.Hits("login:GET"))
	assert.Equal(t, 1, srv.Hits("login:POST"))
	assert.Equal(t, 0, srv.Hits("schedule:11"))
}

func TestCollector_Collect_FullDigest(t *testing.T) {
	srv := hurmatest.NewServer()
	defer srv.Close()

	target := dateutil.NewTarget(time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC), true)

	srv.Pages = [][]hurma.TimelineEntry{
		{
			hurmatest.Employee(1, "2025-03-10"),
			hurmatest.Employee(2, "2025-03-10"),
			hurmatest.Employee(3, "2025-03-10"),
		},
	}
	srv.Absences["1"] = hurmatest.Absence{Reason: "Отпуск", From: "2025-03-03", To: "2025-03-16"}
	srv.Absences["2"] = hurmatest.Absence{Reason: "Командировка", From: "2025-03-10", To: "2025-03-12"}
	srv.Absences["3"] = hurmatest.Absence{Reason: "Больничный", From: "2025-03-05", To: "2025-03-10"}
	srv.Names["1"] = "Мария"
	srv.Names["3"] = "Пётр"
	srv.Contacts["1"] = []hurma.Contact{{Type: "5", Value: "@maria"}}
	srv.Events["2025-03-10"] = []hurma.CalendarEvent{
		{EventName: "День рождения", Name: "Олег"},
		{EventName: "Годовщина работы 3 года", Name: "Анна"},
	}

	result, err := newTestCollector(srv).Collect(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, result.Vacation, 1)
	assert.Equal(t, "maria", result.Vacation[0].TelegramHandle)
	assert.Equal(t, 7, result.Vacation[0].DaysLeft)

	require.Len(t, result.Illness, 1)
	assert.Equal(t, 1, result.Illness[0].DaysLeft)

	assert.Equal(t, []hurma.Birthday{{EmployeeName: "Олег", DayLabel: "10 марта"}}, result.Birthday)
	assert.Equal(t, []hurma.Anniversary{{EmployeeName: "Анна", Date: "2025-03-10", Years: 3}}, result.Anniversary)
}

func TestCollector_Collect_DeduplicatesEmployees(t *testing.T) {
	srv := hurmatest.NewServer()
	defer srv.Close()

	target := dateutil.NewTarget(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), false)

	duplicated := hurmatest.Employee(5, "2025-03-10", "2025-03-10")
	srv.Pages = [][]hurma.TimelineEntry{{duplicated}}
	srv.Absences["5"] = hurmatest.Absence{Reason: "Отпуск", From: "2025-03-10", To: "2025-03-10"}

	result, err := newTestCollector(srv).Collect(context.Background(), target)
	require.NoError(t, err)

	assert.Len(t, result.Vacation, 1)
	assert.Equal(t, 1, srv.Hits("schedule:5"))
}

func TestCollector_Collect_TokenMissingAbortsRun(t *testing.T) {
	srv := hurmatest.NewServer()
	defer srv.Close()
	srv.LoginHTML = `<html><body>Service unavailable</body></html>`

	target := dateutil.NewTarget(time.Now(), false)

	result, err := newTestCollector(srv).Collect(context.Background(), target)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, hurma.ErrAuthTokenMissing)
	assert.Equal(t, 0, srv.Hits("timeline:1"))
}

func TestCollector_Collect_TimelineFailureAbortsRun(t *testing.T) {
	srv := hurmatest.NewServer()
	defer srv.Close()
	srv.Pages = [][]hurma.TimelineEntry{{hurmatest.Employee(1)}, {hurmatest.Employee(2)}}
	srv.FailPage = 2

	target := dateutil.NewTarget(time.Now(), false)

	result, err := newTestCollector(srv).Collect(context.Background(), target)
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, 0, srv.Hits("calendar:"+target.ISODay()))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"3", "1", "2"}, Unique([]string{"3", "1", "3", "2", "1"}))
	assert.Empty(t, Unique(nil))
}

func TestMerge(t *testing.T) {
	absences := Absences{}
	assert.True(t, absences.Add(hurma.AbsenceRecord{EmployeeID: "1", Reason: hurma.ReasonVacation}))
	assert.False(t, absences.Add(hurma.AbsenceRecord{EmployeeID: "2", Reason: hurma.ReasonUnknown}))

	result := Merge(absences, &hurma.Events{Birthday: []hurma.Birthday{{EmployeeName: "Олег"}}})

	assert.Len(t, result.Vacation, 1)
	assert.Empty(t, result.Illness)
	assert.Len(t, result.Birthday, 1)
	assert.True(t, result.HasAbsent())
	assert.False(t, result.IsEmpty())

	assert.True(t, Merge(Absences{}, nil).IsEmpty())
}

func TestResult_JSONOmitsEmptyCategories(t *testing.T) {
	result := &Result{Illness: []hurma.AbsenceRecord{{EmployeeID: "10", RawReason: "Больничный", DaysLeft: 4}}}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "illness")
	assert.NotContains(t, decoded, "vacation")
	assert.NotContains(t, decoded, "anniversary")
	assert.NotContains(t, decoded, "birthday")
}
