package models

import "time"

// Intent is the top-level classification of an incoming message.
type Intent string

const (
	IntentPlanRequest Intent = "PLAN_REQUEST"
	IntentFeedback    Intent = "FEEDBACK_ON_PLAN"
	IntentChitchat    Intent = "CHITCHAT"
)

// ClassifiedIntent pairs the intent label with the classifier's reasoning.
type ClassifiedIntent struct {
	Intent    Intent `json:"intent"`
	Reasoning string `json:"reasoning,omitempty"`
}

// CandidatePool caches search results keyed by date (YYYY-MM-DD) and then
// by activity type. Keeping the date in the key means a date change
// naturally misses the cache.
type CandidatePool map[string]map[ActivityType][]Candidate

// Session is the full conversational state for one chat. It is the value
// persisted between turns; every engine node reads and mutates it.
type Session struct {
	ChatID      string `json:"chatId"`
	UserMessage string `json:"userMessage,omitempty"`

	Intent   *ClassifiedIntent `json:"intent,omitempty"`
	Criteria *SearchCriteria   `json:"criteria,omitempty"`

	Candidates  CandidatePool              `json:"candidates,omitempty"`
	Pinned      map[ActivityType]Candidate `json:"pinned,omitempty"`
	CurrentPlan *Itinerary                 `json:"currentPlan,omitempty"`
	BuildResult *BuildResult               `json:"buildResult,omitempty"`

	CommandQueue []Command      `json:"commandQueue,omitempty"`
	Sorting      *SortDirective `json:"sorting,omitempty"`

	// Resolved plan window, naive local time in the destination city.
	CityID        int        `json:"cityId,omitempty"`
	DateKey       string     `json:"dateKey,omitempty"`
	WindowStart   *time.Time `json:"windowStart,omitempty"`
	WindowEnd     *time.Time `json:"windowEnd,omitempty"`
	StartFlexible bool       `json:"startFlexible,omitempty"`

	StartAddress string       `json:"startAddress,omitempty"`
	StartCoords  *Coordinates `json:"startCoords,omitempty"`

	AwaitingStartAddress bool     `json:"awaitingStartAddress,omitempty"`
	AwaitingCriteria     bool     `json:"awaitingCriteria,omitempty"`
	MissingFields        []string `json:"missingFields,omitempty"`

	PlanPresented bool     `json:"planPresented,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	LastError     string   `json:"lastError,omitempty"`

	Reply string `json:"reply,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession returns an empty session for the given chat.
func NewSession(chatID string) *Session {
	return &Session{
		ChatID:     chatID,
		Candidates: CandidatePool{},
		Pinned:     map[ActivityType]Candidate{},
		UpdatedAt:  time.Now().UTC(),
	}
}

// Pin fixes a candidate as the only option considered for its activity
// type in subsequent builds.
func (s *Session) Pin(c Candidate) {
	if s.Pinned == nil {
		s.Pinned = map[ActivityType]Candidate{}
	}
	s.Pinned[c.Type] = c
}

// Unpin releases the pinned choice for an activity type so the builder is
// free to pick any shortlisted candidate again.
func (s *Session) Unpin(t ActivityType) {
	delete(s.Pinned, t)
}

// PinnedFor returns the pinned candidate for an activity type, if any.
func (s *Session) PinnedFor(t ActivityType) (Candidate, bool) {
	c, ok := s.Pinned[t]
	return c, ok
}

// PinPlan pins every stop of the given itinerary, so untouched activities
// stay stable across later refinements.
func (s *Session) PinPlan(it *Itinerary) {
	if it == nil {
		return
	}
	for _, stop := range it.Stops {
		s.Pin(stop.Candidate)
	}
}

// SetCandidates stores a shortlist for one activity under the current
// date key.
func (s *Session) SetCandidates(t ActivityType, list []Candidate) {
	if s.Candidates == nil {
		s.Candidates = CandidatePool{}
	}
	byType, ok := s.Candidates[s.DateKey]
	if !ok {
		byType = map[ActivityType][]Candidate{}
		s.Candidates[s.DateKey] = byType
	}
	byType[t] = list
}

// CandidatesFor returns the cached shortlist for an activity on the
// session's current date.
func (s *Session) CandidatesFor(t ActivityType) []Candidate {
	byType, ok := s.Candidates[s.DateKey]
	if !ok {
		return nil
	}
	return byType[t]
}

// InvalidateCache drops every cached candidate, the pins, and the current
// plan. Called when the date or city changes: everything downstream of
// search is stale.
func (s *Session) InvalidateCache() {
	s.Candidates = CandidatePool{}
	s.Pinned = map[ActivityType]Candidate{}
	s.CurrentPlan = nil
	s.BuildResult = nil
	s.Sorting = nil
}

// ResetForNewPlan clears everything a fresh plan request supersedes while
// keeping chat identity and the remembered start address.
func (s *Session) ResetForNewPlan() {
	s.Intent = nil
	s.Criteria = nil
	s.InvalidateCache()
	s.CommandQueue = nil
	s.CityID = 0
	s.DateKey = ""
	s.WindowStart = nil
	s.WindowEnd = nil
	s.StartFlexible = false
	s.AwaitingStartAddress = false
	s.AwaitingCriteria = false
	s.MissingFields = nil
	s.PlanPresented = false
	s.Warnings = nil
	s.LastError = ""
}

// PopCommand removes and returns the next queued command.
func (s *Session) PopCommand() (Command, bool) {
	if len(s.CommandQueue) == 0 {
		return Command{}, false
	}
	cmd := s.CommandQueue[0]
	s.CommandQueue = s.CommandQueue[1:]
	return cmd, true
}

// PlanStopFor looks the activity up in the current plan.
func (s *Session) PlanStopFor(t ActivityType) (PlanStop, bool) {
	return s.CurrentPlan.StopFor(t)
}

// ReferenceFor resolves the candidate a relative constraint should be
// computed against: the pinned item first, then the current plan's stop.
func (s *Session) ReferenceFor(t ActivityType) (Candidate, bool) {
	if c, ok := s.PinnedFor(t); ok {
		return c, true
	}
	if stop, ok := s.PlanStopFor(t); ok {
		return stop.Candidate, true
	}
	return Candidate{}, false
}

// AddWarning records a non-fatal note to surface with the next reply.
func (s *Session) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
