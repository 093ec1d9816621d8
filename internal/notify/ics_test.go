package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/hurma-bot/internal/digest"
	"github.com/username/hurma-bot/internal/hurma"
)

func decodeCalendar(t *testing.T, data []byte) *ical.Calendar {
	t.Helper()
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)
	return cal
}

func TestRenderer_EncodeICS(t *testing.T) {
	r, err := NewRenderer("ru")
	require.NoError(t, err)

	result := &digest.Result{
		Illness:     []hurma.AbsenceRecord{illness("Иван Петров", "ivan", "2025-03-13", 4)},
		Birthday:    []hurma.Birthday{{EmployeeName: "Олег", DayLabel: "10 марта"}},
		Anniversary: []hurma.Anniversary{{EmployeeName: "Анна", Date: "2025-03-10", Years: 3}},
	}

	var buf bytes.Buffer
	now := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	require.NoError(t, r.EncodeICS(&buf, result, march10, now))

	cal := decodeCalendar(t, buf.Bytes())
	events := cal.Events()
	require.Len(t, events, 3)

	summary, err := events[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "На больничном: Иван Петров", summary)
	assert.Equal(t, "20250309", events[0].Props.Get(ical.PropDateTimeStart).Value)
	assert.Equal(t, "20250314", events[0].Props.Get(ical.PropDateTimeEnd).Value)

	summary, err = events[1].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "День рождения: Олег", summary)
	assert.Equal(t, "20250310", events[1].Props.Get(ical.PropDateTimeStart).Value)

	summary, err = events[2].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Годовщина работы в компании: Анна (3 года)", summary)
}

func TestRenderer_EncodeICS_StableUIDs(t *testing.T) {
	r, err := NewRenderer("ru")
	require.NoError(t, err)

	result := &digest.Result{Illness: []hurma.AbsenceRecord{illness("Иван", "", "2025-03-13", 4)}}

	var first, second bytes.Buffer
	require.NoError(t, r.EncodeICS(&first, result, march10, time.Now()))
	require.NoError(t, r.EncodeICS(&second, result, march10, time.Now().Add(time.Hour)))

	uid1, err := decodeCalendar(t, first.Bytes()).Events()[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	uid2, err := decodeCalendar(t, second.Bytes()).Events()[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, uid1, uid2)
}

func TestRenderer_EncodeICS_BadAbsenceEnd(t *testing.T) {
	r, err := NewRenderer("ru")
	require.NoError(t, err)

	result := &digest.Result{Vacation: []hurma.AbsenceRecord{{EmployeeID: "7", Period: hurma.Period{To: "soon"}}}}
	assert.Error(t, r.EncodeICS(&bytes.Buffer{}, result, march10, time.Now()))
}
