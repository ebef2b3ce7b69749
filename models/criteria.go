package models

// ActivitySlot is one requested activity in the user's criteria: its type
// plus the free-form query the user phrased it with.
type ActivitySlot struct {
	Type   ActivityType `json:"type" bson:"type"`
	Query  string       `json:"query,omitempty" bson:"query,omitempty"`
	Budget *int         `json:"budget,omitempty" bson:"budget,omitempty"`
}

// SearchCriteria is the structured form of a plan request.
type SearchCriteria struct {
	City            string         `json:"city,omitempty" bson:"city,omitempty"`
	DateDescription string         `json:"dateDescription,omitempty" bson:"dateDescription,omitempty"`
	TimeDescription string         `json:"timeDescription,omitempty" bson:"timeDescription,omitempty"`
	Budget          *int           `json:"budget,omitempty" bson:"budget,omitempty"`
	PersonCount     int            `json:"personCount,omitempty" bson:"personCount,omitempty"`
	Activities      []ActivitySlot `json:"activities,omitempty" bson:"activities,omitempty"`
}

// SlotFor returns the activity slot of the given type, if requested.
func (c *SearchCriteria) SlotFor(t ActivityType) (ActivitySlot, bool) {
	if c == nil {
		return ActivitySlot{}, false
	}
	for _, a := range c.Activities {
		if a.Type == t {
			return a, true
		}
	}
	return ActivitySlot{}, false
}

// BudgetPerPerson splits the total budget across the party, when both
// pieces are known.
func (c *SearchCriteria) BudgetPerPerson() (int, bool) {
	if c == nil || c.Budget == nil {
		return 0, false
	}
	n := c.PersonCount
	if n <= 0 {
		n = 1
	}
	return *c.Budget / n, true
}

// CriteriaUpdate carries a global change to the plan request: a new date,
// a new city, or both. Applying one invalidates every cached candidate.
type CriteriaUpdate struct {
	City            string `json:"city,omitempty"`
	DateDescription string `json:"dateDescription,omitempty"`
}
