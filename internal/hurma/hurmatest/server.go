// Package hurmatest provides an in-memory Hurma web application for tests.
package hurmatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/username/hurma-bot/internal/hurma"
)

const (
	// Token is the CSRF token rendered on the login page
	Token = "test-csrf-token"
	// SessionCookie is the cookie name set by a successful login
	SessionCookie = "hurma_session"
	// SessionValue is the cookie value set by a successful login
	SessionValue = "session-ok"
)

// Absence is the schedule-day detail of one employee
type Absence struct {
	Reason string
	From   string
	To     string
}

// Server fakes the Hurma endpoints used by the client.
// Fields must be set before the first request.
type Server struct {
	*httptest.Server

	// Pages holds the timeline employees per page, page 1 first
	Pages [][]hurma.TimelineEntry
	// Absences maps employee id to the schedule-day detail
	Absences map[string]Absence
	// Names maps employee id to display name
	Names map[string]string
	// Contacts maps employee id to contact list
	Contacts map[string][]hurma.Contact
	// Events maps YYYY-MM-DD to calendar events
	Events map[string][]hurma.CalendarEvent
	// FailPage makes the given timeline page answer 500
	FailPage int
	// LoginHTML overrides the login page markup
	LoginHTML string

	mu   sync.Mutex
	hits map[string]int
}

// NewServer starts a fake Hurma server
func NewServer() *Server {
	s := &Server{
		Absences: map[string]Absence{},
		Names:    map[string]string{},
		Contacts: map[string][]hurma.Contact{},
		Events:   map[string][]hurma.CalendarEvent{},
		hits:     map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/timeline/vue/get-timeline-data", s.authorized(s.handleTimeline))
	mux.HandleFunc("/timeline/vue/get-schedule-day-data", s.authorized(s.handleScheduleDay))
	mux.HandleFunc("/employee/vue/common/info", s.authorized(s.handleInfo))
	mux.HandleFunc("/employee/vue/contacts", s.authorized(s.handleContacts))
	mux.HandleFunc("/calendar/api/day", s.authorized(s.handleCalendar))

	s.Server = httptest.NewServer(mux)
	return s
}

// Hits returns how many times a request key was served.
// Keys are "login:GET", "login:POST", "timeline:<page>", "schedule:<id>",
// "info:<id>", "contacts:<id>" and "calendar:<day>".
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func (s *Server) hit(key string) {
	s.mu.Lock()
	s.hits[key]++
	s.mu.Unlock()
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value != SessionValue || r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.hit("login:" + r.Method)

	if r.Method == http.MethodGet {
		html := s.LoginHTML
		if html == "" {
			html = fmt.Sprintf(`<form method="POST" action="/login"><input type="hidden" name="_token" value="%s"></form>`, Token)
		}
		_, _ = w.Write([]byte(html))
		return
	}

	if err := r.ParseForm(); err != nil || r.PostForm.Get("_token") != Token {
		w.WriteHeader(419)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: SessionValue})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		http.Error(w, "bad page", http.StatusBadRequest)
		return
	}
	s.hit("timeline:" + strconv.Itoa(page))

	if page == s.FailPage {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	employees := []hurma.TimelineEntry{}
	if page <= len(s.Pages) {
		employees = s.Pages[page-1]
	}

	writeJSON(w, map[string]interface{}{
		"employees": employees,
		"meta": map[string]int{
			"current_page": page,
			"last_page":    len(s.Pages),
		},
	})
}

func (s *Server) handleScheduleDay(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("employee_id")
	s.hit("schedule:" + id)

	activities := []map[string]interface{}{}
	if absence, ok := s.Absences[id]; ok {
		activities = append(activities, map[string]interface{}{
			"name":        absence.Reason,
			"date_period": map[string]string{"from": absence.From, "to": absence.To},
		})
	}

	peopleID, _ := strconv.Atoi(id)
	writeJSON(w, map[string]interface{}{
		"people_id":     peopleID,
		"activity_data": activities,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("employee_id")
	s.hit("info:" + id)
	writeJSON(w, map[string]interface{}{
		"data": map[string]string{"name": s.Names[id]},
	})
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("employee_id")
	s.hit("contacts:" + id)

	contacts := s.Contacts[id]
	if contacts == nil {
		contacts = []hurma.Contact{}
	}
	writeJSON(w, contacts)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	s.hit("calendar:" + day)

	events := s.Events[day]
	if events == nil {
		events = []hurma.CalendarEvent{}
	}
	writeJSON(w, map[string]interface{}{"events": events})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Employee builds a timeline row with an activity on each of the given days
func Employee(id int, absentDays ...string) hurma.TimelineEntry {
	entry := hurma.TimelineEntry{ID: hurma.FlexibleID(strconv.Itoa(id))}
	for _, day := range absentDays {
		entry.ScheduleDays = append(entry.ScheduleDays, hurma.ScheduleDay{
			Date:         day + " 00:00:00",
			ActivityData: []json.RawMessage{json.RawMessage(`{"id":1}`)},
		})
	}
	return entry
}
