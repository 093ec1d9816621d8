package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/hurma-bot/internal/digest"
	"github.com/username/hurma-bot/internal/hurma"
	"github.com/username/hurma-bot/pkg/dateutil"
)

var march10 = dateutil.NewTarget(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), false)

func illness(name, handle, to string, daysLeft int) hurma.AbsenceRecord {
	return hurma.AbsenceRecord{
		EmployeeID:     "10",
		Reason:         hurma.ReasonIllness,
		RawReason:      "Больничный",
		Period:         hurma.Period{From: "2025-03-09", To: to},
		DaysLeft:       daysLeft,
		EmployeeName:   name,
		TelegramHandle: handle,
	}
}

func TestRenderer_Render_Russian(t *testing.T) {
	r, err := NewRenderer("ru")
	require.NoError(t, err)

	result := &digest.Result{
		Illness: []hurma.AbsenceRecord{illness("Иван Петров", "ivan", "2025-03-13", 4)},
	}

	text, err := r.Render(result, march10)
	require.NoError(t, err)

	expected := "<b>Сегодня, 10 марта</b>\n\n" +
		"🤒 <b>На больничном</b>\n" +
		"• Иван Петров (@ivan) — до 13 марта, осталось 4 дня"
	assert.Equal(t, expected, text)
}

func TestRenderer_Render_AllCategories(t *testing.T) {
	r, err := NewRenderer("ru")
	require.NoError(t, err)

	tomorrow := dateutil.NewTarget(time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC), true)
	result := &digest.Result{
		Vacation: []hurma.AbsenceRecord{{
			EmployeeName: "Мария",
			Reason:       hurma.ReasonVacation,
			Period:       hurma.Period{From: "2025-03-03", To: "2025-03-16"},
			DaysLeft:     7,
		}},
		Illness:     []hurma.AbsenceRecord{illness("Пётр", "", "2025-03-10", 1)},
		Birthday:    []hurma.Birthday{{EmployeeName: "Олег", DayLabel: "10 марта"}},
		Anniversary: []hurma.Anniversary{{EmployeeName: "Анна", Date: "2025-03-10", Years: 5}},
	}

	text, err := r.Render(result, tomorrow)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "<b>Завтра, 10 марта</b>"))
	assert.Contains(t, text, "• Мария — до 16 марта, осталось 7 дней")
	assert.Contains(t, text, "• Пётр — до 10 марта, остался 1 день")
	assert.Contains(t, text, "🎂 <b>День рождения</b>\n• Олег")
	assert.Contains(t, text, "• Анна — 5 лет в компании")
	assert.NotContains(t, text, "Все сотрудники на месте")
}

func TestRenderer_Render_Empty(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	text, err := r.Render(nil, march10)
	require.NoError(t, err)
	assert.Equal(t, "<b>Сегодня, 10 марта</b>\n\nВсе сотрудники на месте.", text)
}

func TestRenderer_Render_EscapesNames(t *testing.T) {
	r, err := NewRenderer("ru")
	require.NoError(t, err)

	result := &digest.Result{Illness: []hurma.AbsenceRecord{illness("<i>Bob</i>", "", "2025-03-13", 4)}}

	text, err := r.Render(result, march10)
	require.NoError(t, err)
	assert.Contains(t, text, "&lt;i&gt;Bob&lt;/i&gt;")
}

func TestRenderer_Render_English(t *testing.T) {
	r, err := NewRenderer("en")
	require.NoError(t, err)

	result := &digest.Result{
		Illness:     []hurma.AbsenceRecord{illness("Ivan", "", "bad-date", 1)},
		Anniversary: []hurma.Anniversary{{EmployeeName: "Anna", Years: 1}},
	}

	text, err := r.Render(result, march10)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "<b>Today, 10 March</b>"))
	assert.Contains(t, text, "• Ivan — until bad-date, 1 day left")
	assert.Contains(t, text, "• Anna — 1 year with the company")
}

func TestStdoutNotifier_JSON(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewStdoutNotifier(&buf, FormatJSON, nil)
	require.NoError(t, err)

	result := &digest.Result{Illness: []hurma.AbsenceRecord{illness("Иван", "", "2025-03-13", 4)}}
	require.NoError(t, n.Notify(context.Background(), result, march10))

	var decoded map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded["illness"], 1)
	assert.Equal(t, "10", decoded["illness"][0]["user_id"])
	assert.Equal(t, float64(4), decoded["illness"][0]["days_left"])
	assert.NotContains(t, decoded, "vacation")
}

func TestStdoutNotifier_Text(t *testing.T) {
	r, err := NewRenderer("ru")
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := NewStdoutNotifier(&buf, "", r)
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), &digest.Result{}, march10))
	assert.Contains(t, buf.String(), "Все сотрудники на месте.")
}

func TestNewStdoutNotifier_Validation(t *testing.T) {
	_, err := NewStdoutNotifier(&bytes.Buffer{}, "xml", nil)
	assert.Error(t, err)

	_, err = NewStdoutNotifier(&bytes.Buffer{}, FormatText, nil)
	assert.Error(t, err)
}
