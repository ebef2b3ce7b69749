// Package command normalizes semantic feedback intents into typed plan
// mutation commands, resolving relative values against the current plan.
package command

import (
	"fmt"
	"strings"
	"time"

	"planmate/models"
	"planmate/utils"

	"go.uber.org/zap"
)

// Result is the output of one normalization pass.
type Result struct {
	Commands []models.Command
	// Sort is set when the user asked for an extreme ("the cheapest")
	// rather than a threshold. It applies to the next build only.
	Sort *models.SortDirective
	// Dropped lists intents that could not be turned into commands,
	// phrased for the user.
	Dropped []string
}

// Processor turns raw semantic intents into executable commands.
type Processor interface {
	Normalize(intents []models.SemanticIntent, s *models.Session) Result
}

// DefaultProcessor implements the three-pass normalization: global
// criteria changes first (they supersede everything else), then
// structural add/delete, then attribute modifications.
type DefaultProcessor struct{}

// NewProcessor returns the default command processor.
func NewProcessor() Processor {
	return &DefaultProcessor{}
}

const defaultTimeShift = time.Hour

// fillerQueries back an "add" that names only the activity type.
var fillerQueries = map[models.ActivityType]string{
	models.ActivityMovie:       "кино",
	models.ActivityConcert:     "концерт",
	models.ActivityStandUp:     "стендап",
	models.ActivityPerformance: "спектакль",
	models.ActivityExhibition:  "выставка",
	models.ActivityPark:        "парк",
	models.ActivityRestaurant:  "ресторан",
}

// Normalize implements Processor.
func (p *DefaultProcessor) Normalize(intents []models.SemanticIntent, s *models.Session) Result {
	log := utils.GetLogger()

	// Pass 1: a date or city change invalidates every other request in
	// the same utterance, so it comes back alone.
	if update := collectCriteriaUpdate(intents); update != nil {
		log.Info("feedback changes global criteria",
			zap.String("city", update.City),
			zap.String("date", update.DateDescription))
		return Result{Commands: []models.Command{{
			Kind:   models.CommandUpdateCriteria,
			Update: update,
		}}}
	}

	var res Result
	// Pass 2: structural changes.
	for _, in := range intents {
		switch in.CommandType {
		case string(models.CommandDelete):
			target := models.ParseActivityType(in.Target)
			if target == models.ActivityUnknown {
				res.drop(in, "could not tell which activity to remove")
				continue
			}
			res.Commands = append(res.Commands, models.Command{
				Kind:   models.CommandDelete,
				Target: target,
			})
		case string(models.CommandAdd):
			target := models.ParseActivityType(in.Target)
			if target == models.ActivityUnknown {
				res.drop(in, "could not tell which activity to add")
				continue
			}
			query := strings.TrimSpace(in.ValueStr)
			if query == "" {
				query = fillerQueries[target]
			}
			res.Commands = append(res.Commands, models.Command{
				Kind:        models.CommandAdd,
				Target:      target,
				NewSlot:     &models.ActivitySlot{Type: target, Query: query},
				InsertAfter: models.InsertAtEnd,
			})
		}
	}

	// Pass 3: attribute modifications.
	for _, in := range intents {
		if in.CommandType != string(models.CommandModify) {
			continue
		}
		p.normalizeModify(in, s, &res)
	}
	return res
}

func collectCriteriaUpdate(intents []models.SemanticIntent) *models.CriteriaUpdate {
	var update *models.CriteriaUpdate
	for _, in := range intents {
		switch in.Attribute {
		case models.AttrDate:
			if update == nil {
				update = &models.CriteriaUpdate{}
			}
			update.DateDescription = in.ValueStr
		case models.AttrCity:
			if update == nil {
				update = &models.CriteriaUpdate{}
			}
			update.City = in.ValueStr
		}
	}
	return update
}

func (p *DefaultProcessor) normalizeModify(in models.SemanticIntent, s *models.Session, res *Result) {
	target := models.ParseActivityType(in.Target)
	if target == models.ActivityUnknown {
		res.drop(in, "could not tell which activity to change")
		return
	}

	// Extremes become a sort of the shortlist, not a filter.
	if in.Operator == models.OpMin || in.Operator == models.OpMax {
		if in.Attribute != models.AttrPrice && in.Attribute != models.AttrRating && in.Attribute != models.AttrStartTime {
			res.drop(in, "cannot rank by that")
			return
		}
		res.Sort = &models.SortDirective{Target: target, Attribute: in.Attribute, Order: in.Operator}
		// An empty modify command still forces a rebuild with the target
		// unpinned.
		res.Commands = append(res.Commands, models.Command{Kind: models.CommandModify, Target: target})
		return
	}

	var constraint models.Constraint
	var ok bool
	switch in.Attribute {
	case models.AttrStartTime:
		constraint, ok = p.timeConstraint(in, target, s)
	case models.AttrPrice:
		constraint, ok = p.priceConstraint(in, target, s)
	case models.AttrRating:
		constraint, ok = p.ratingConstraint(in)
	case models.AttrName:
		constraint, ok = p.nameConstraint(in, target, s)
	default:
		ok = false
	}
	if !ok {
		res.drop(in, fmt.Sprintf("could not work out what to change about the %s", strings.ToLower(in.Target)))
		return
	}

	res.Commands = append(res.Commands, models.Command{
		Kind:        models.CommandModify,
		Target:      target,
		Constraints: []models.Constraint{constraint},
	})
}

// timeConstraint resolves "later" / "earlier" / "at 19:00" against the
// activity currently in the plan.
func (p *DefaultProcessor) timeConstraint(in models.SemanticIntent, target models.ActivityType, s *models.Session) (models.Constraint, bool) {
	// Absolute clock time mentioned directly.
	if abs, ok := parseClock(in.ValueStr, s); ok {
		op := in.Operator
		if op == "" {
			op = models.OpEquals
		}
		return models.Constraint{Attribute: models.AttrStartTime, Operator: op, Value: abs.Format(time.RFC3339)}, true
	}

	// Relative shift against the current choice.
	if in.Operator != models.OpGreaterThan && in.Operator != models.OpLessThan {
		return models.Constraint{}, false
	}
	ref, ok := referenceTime(target, s)
	if !ok {
		return models.Constraint{}, false
	}

	shift := defaultTimeShift
	if in.ValueNum != nil {
		switch {
		case strings.HasPrefix(strings.ToLower(in.ValueUnit), "мин"),
			strings.HasPrefix(strings.ToLower(in.ValueUnit), "min"):
			shift = time.Duration(*in.ValueNum * float64(time.Minute))
		default:
			shift = time.Duration(*in.ValueNum * float64(time.Hour))
		}
	}

	value := ref.Add(shift)
	if in.Operator == models.OpLessThan {
		value = ref.Add(-shift)
	}
	return models.Constraint{
		Attribute: models.AttrStartTime,
		Operator:  in.Operator,
		Value:     value.Format(time.RFC3339),
	}, true
}

func referenceTime(target models.ActivityType, s *models.Session) (time.Time, bool) {
	if c, ok := s.ReferenceFor(target); ok {
		if st, timed := c.StartTime(); timed {
			return st, true
		}
	}
	if stop, ok := s.PlanStopFor(target); ok {
		return stop.StartTime, true
	}
	return time.Time{}, false
}

// parseClock reads "19:00" or "19" as a time on the session's plan date.
func parseClock(v string, s *models.Session) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" || s.DateKey == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"15:04", "15.04", "15"} {
		if t, err := time.Parse(layout, v); err == nil {
			day, err := time.Parse("2006-01-02", s.DateKey)
			if err != nil {
				return time.Time{}, false
			}
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// priceConstraint resolves "cheaper" against the price of the current
// choice when no explicit number was given.
func (p *DefaultProcessor) priceConstraint(in models.SemanticIntent, target models.ActivityType, s *models.Session) (models.Constraint, bool) {
	op := in.Operator
	if op == "" {
		op = models.OpLessThan
	}
	if in.ValueNum != nil {
		return models.Constraint{Attribute: models.AttrPrice, Operator: op, Value: fmt.Sprintf("%g", *in.ValueNum)}, true
	}
	ref, ok := s.ReferenceFor(target)
	if !ok {
		return models.Constraint{}, false
	}
	current, ok := ref.Price()
	if !ok {
		return models.Constraint{}, false
	}
	return models.Constraint{Attribute: models.AttrPrice, Operator: op, Value: fmt.Sprintf("%g", current)}, true
}

func (p *DefaultProcessor) ratingConstraint(in models.SemanticIntent) (models.Constraint, bool) {
	if in.ValueNum == nil {
		return models.Constraint{}, false
	}
	op := in.Operator
	if op == "" {
		op = models.OpGreaterThan
	}
	return models.Constraint{Attribute: models.AttrRating, Operator: op, Value: fmt.Sprintf("%g", *in.ValueNum)}, true
}

// nameConstraint handles "not this one" by excluding the current choice
// by name, and "the one called X" by matching X.
func (p *DefaultProcessor) nameConstraint(in models.SemanticIntent, target models.ActivityType, s *models.Session) (models.Constraint, bool) {
	value := strings.TrimSpace(in.ValueStr)
	op := in.Operator
	if value == "" {
		ref, ok := s.ReferenceFor(target)
		if !ok {
			return models.Constraint{}, false
		}
		value = ref.Name()
		op = models.OpNotEquals
	}
	if op == "" {
		op = models.OpEquals
	}
	return models.Constraint{Attribute: models.AttrName, Operator: op, Value: value}, true
}

func (r *Result) drop(in models.SemanticIntent, note string) {
	utils.GetLogger().Warn("dropping malformed feedback intent",
		zap.String("commandType", in.CommandType),
		zap.String("target", in.Target),
		zap.String("attribute", string(in.Attribute)))
	r.Dropped = append(r.Dropped, note)
}
