package digest

import "github.com/username/hurma-bot/internal/hurma"

// Result is the structured outcome of a run handed to the notifier.
// Empty categories are omitted from JSON; consumers treat a missing key
// and an empty list the same way.
type Result struct {
	Vacation    []hurma.AbsenceRecord `json:"vacation,omitempty"`
	Illness     []hurma.AbsenceRecord `json:"illness,omitempty"`
	Anniversary []hurma.Anniversary   `json:"anniversary,omitempty"`
	Birthday    []hurma.Birthday      `json:"birthday,omitempty"`
}

// Absences groups absence records by canonical reason
type Absences struct {
	Vacation []hurma.AbsenceRecord
	Illness  []hurma.AbsenceRecord
}

// Add files a record under its reason. Records with an unrecognized
// reason are not filed; Add reports whether the record was kept.
func (a *Absences) Add(record hurma.AbsenceRecord) bool {
	switch record.Reason {
	case hurma.ReasonVacation:
		a.Vacation = append(a.Vacation, record)
	case hurma.ReasonIllness:
		a.Illness = append(a.Illness, record)
	default:
		return false
	}
	return true
}

// Merge combines absences and calendar events into one result
func Merge(absences Absences, events *hurma.Events) *Result {
	result := &Result{
		Vacation: absences.Vacation,
		Illness:  absences.Illness,
	}
	if events != nil {
		result.Anniversary = events.Anniversary
		result.Birthday = events.Birthday
	}
	return result
}

// HasAbsent reports whether anyone is on vacation or sick leave
func (r *Result) HasAbsent() bool {
	return len(r.Vacation) > 0 || len(r.Illness) > 0
}

// IsEmpty reports whether the result has nothing to announce
func (r *Result) IsEmpty() bool {
	return !r.HasAbsent() && len(r.Anniversary) == 0 && len(r.Birthday) == 0
}
