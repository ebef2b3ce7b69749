package models

import "time"

// Operator compares a candidate attribute against a constraint value.
type Operator string

const (
	OpEquals      Operator = "=="
	OpNotEquals   Operator = "!="
	OpGreaterThan Operator = ">"
	OpLessThan    Operator = "<"
	// OpMin and OpMax are sort sentinels rather than filters: they ask for
	// the extreme value of an attribute instead of a threshold.
	OpMin Operator = "MIN"
	OpMax Operator = "MAX"
)

// Attribute names a candidate property a constraint can address.
type Attribute string

const (
	AttrStartTime Attribute = "start_time"
	AttrPrice     Attribute = "price"
	AttrRating    Attribute = "rating"
	AttrName      Attribute = "name"
	AttrDate      Attribute = "date"
	AttrCity      Attribute = "city"
)

// Constraint is one attribute/operator/value filter to apply to a
// candidate pool. Time values are RFC 3339, numeric values are plain
// decimal text, name values are free text.
type Constraint struct {
	Attribute Attribute `json:"attribute"`
	Operator  Operator  `json:"operator"`
	Value     string    `json:"value"`
}

// TimeValue parses the constraint value as a timestamp.
func (c Constraint) TimeValue() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, c.Value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NumericValue parses the constraint value as a number.
func (c Constraint) NumericValue() (float64, bool) {
	return FirstNumber(c.Value)
}

// CommandKind distinguishes the mutation commands the executor understands.
type CommandKind string

const (
	CommandModify         CommandKind = "modify"
	CommandDelete         CommandKind = "delete"
	CommandAdd            CommandKind = "add"
	CommandUpdateCriteria CommandKind = "update_criteria"
)

// InsertAtEnd marks an added activity that goes after every existing slot.
const InsertAtEnd = "END"

// Command is a fully resolved plan mutation produced by the normalizer.
type Command struct {
	Kind        CommandKind   `json:"kind"`
	Target      ActivityType  `json:"target,omitempty"`
	Constraints []Constraint  `json:"constraints,omitempty"`
	NewSlot     *ActivitySlot `json:"newSlot,omitempty"`
	InsertAfter string        `json:"insertAfter,omitempty"`
	Update      *CriteriaUpdate `json:"update,omitempty"`
}

// SemanticIntent is one raw intent extracted from a feedback utterance,
// before normalization resolves relative values against the current plan.
type SemanticIntent struct {
	CommandType string   `json:"commandType"`
	Target      string   `json:"target"`
	Attribute   Attribute `json:"attribute,omitempty"`
	Operator    Operator  `json:"operator,omitempty"`
	ValueStr    string    `json:"valueStr,omitempty"`
	ValueNum    *float64  `json:"valueNum,omitempty"`
	ValueUnit   string    `json:"valueUnit,omitempty"`
}

// SortDirective asks the builder to rank one activity's shortlist by an
// attribute before enumerating combinations. It is consumed by a single
// build.
type SortDirective struct {
	Target    ActivityType `json:"target"`
	Attribute Attribute    `json:"attribute"`
	Order     Operator     `json:"order"` // OpMin ascending, OpMax descending
}
