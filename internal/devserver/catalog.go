package devserver

import (
	"slices"
	"sync"
	"time"
)

type Event struct {
	ID             int       `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Language       string    `json:"language"`
	Location       string    `json:"location"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Capacity       int       `json:"capacity"`
	CreatedByEmail string    `json:"created_by_email"`
	CreatedBy      string    `json:"-"`
}

type Enrollment struct {
	ID            int       `json:"id"`
	Event         int       `json:"event"`
	EventTitle    string    `json:"event_title"`
	EventStartsAt time.Time `json:"event_starts_at"`
	Status        string    `json:"status"`
	Seeker        string    `json:"-"`
}

// Catalog is the in-memory list of events and enrollments served by the
// read endpoints.
type Catalog struct {
	mu          sync.RWMutex
	events      []Event
	enrollments []Enrollment
}

func NewCatalog(events ...Event) *Catalog {
	return &Catalog{events: slices.Clone(events)}
}

// AddEvent assigns the next id and stores e.
func (c *Catalog) AddEvent(e Event) Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.ID = len(c.events) + 1
	c.events = append(c.events, e)
	return e
}

// Enroll records an active enrollment of seekerID in the event.
func (c *Catalog) Enroll(seekerID string, eventID int) (Enrollment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.events, func(e Event) bool { return e.ID == eventID })
	if i < 0 {
		return Enrollment{}, false
	}
	en := Enrollment{
		ID:            len(c.enrollments) + 1,
		Event:         eventID,
		EventTitle:    c.events[i].Title,
		EventStartsAt: c.events[i].StartsAt,
		Status:        "ENROLLED",
		Seeker:        seekerID,
	}
	c.enrollments = append(c.enrollments, en)
	return en, true
}

func (c *Catalog) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := slices.Clone(c.events)
	if out == nil {
		out = []Event{}
	}
	return out
}

func (c *Catalog) EventsBy(userID string) []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []Event{}
	for _, e := range c.events {
		if e.CreatedBy == userID {
			out = append(out, e)
		}
	}
	return out
}

// Upcoming lists the seeker's active enrollments in events starting after
// now, soonest first.
func (c *Catalog) Upcoming(seekerID string, now time.Time) []Enrollment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []Enrollment{}
	for _, en := range c.enrollments {
		if en.Seeker == seekerID && en.Status == "ENROLLED" && en.EventStartsAt.After(now) {
			out = append(out, en)
		}
	}
	slices.SortFunc(out, func(a, b Enrollment) int { return a.EventStartsAt.Compare(b.EventStartsAt) })
	return out
}

// SampleEvents is what a fresh dev server lists.
func SampleEvents(now time.Time) []Event {
	day := now.Truncate(24 * time.Hour)
	return []Event{
		{
			ID: 1, Title: "Go meetup", Description: "Lightning talks and pizza.",
			Language: "English", Location: "Riga",
			StartsAt: day.Add(7*24*time.Hour + 18*time.Hour), EndsAt: day.Add(7*24*time.Hour + 21*time.Hour),
			Capacity: 40, CreatedByEmail: "host@example.com",
		},
		{
			ID: 2, Title: "Atelier d'écriture", Description: "Creative writing workshop.",
			Language: "French", Location: "Lyon",
			StartsAt: day.Add(14*24*time.Hour + 10*time.Hour), EndsAt: day.Add(14*24*time.Hour + 13*time.Hour),
			Capacity: 12, CreatedByEmail: "host@example.com",
		},
	}
}
