package agent

import (
	"context"
	"fmt"
	"time"

	"planmate/models"
	"planmate/services/planner"
	"planmate/utils"

	"go.uber.org/zap"
)

// nodeExecute pops the next queued command and applies it to the session.
// Every executed command invalidates the build so the router rebuilds
// once the queue drains.
func (e *Engine) nodeExecute(ctx context.Context, s *models.Session) error {
	cmd, ok := s.PopCommand()
	if !ok {
		return fmt.Errorf("execute dispatched with an empty queue")
	}
	utils.GetLogger().Info("executing plan command",
		zap.String("chatID", s.ChatID),
		zap.String("kind", string(cmd.Kind)),
		zap.String("target", string(cmd.Target)))

	switch cmd.Kind {
	case models.CommandUpdateCriteria:
		return e.executeUpdateCriteria(ctx, s, cmd)
	case models.CommandDelete:
		e.executeDelete(s, cmd)
	case models.CommandAdd:
		e.executeAdd(s, cmd)
	case models.CommandModify:
		e.executeModify(s, cmd)
	default:
		return fmt.Errorf("unknown command kind %q", cmd.Kind)
	}

	s.BuildResult = nil
	s.CurrentPlan = nil
	s.PlanPresented = false
	return nil
}

// executeUpdateCriteria applies a date or city change. Everything cached
// downstream of search is stale afterwards.
func (e *Engine) executeUpdateCriteria(ctx context.Context, s *models.Session, cmd models.Command) error {
	if cmd.Update == nil || s.Criteria == nil {
		return fmt.Errorf("criteria update without criteria")
	}
	if cmd.Update.City != "" {
		s.Criteria.City = cmd.Update.City
	}
	if cmd.Update.DateDescription != "" {
		s.Criteria.DateDescription = cmd.Update.DateDescription
	}

	s.InvalidateCache()
	s.PlanPresented = false

	return e.resolveLogistics(ctx, s)
}

func (e *Engine) executeDelete(s *models.Session, cmd models.Command) {
	if _, ok := s.Criteria.SlotFor(cmd.Target); !ok {
		s.AddWarning(fmt.Sprintf("в плане и так нет активности «%s»", cmd.Target))
		return
	}
	removeSlot(s, cmd.Target)
}

// executeAdd appends the new activity after the existing slots. Its pool
// is empty, so the router searches for it before rebuilding.
func (e *Engine) executeAdd(s *models.Session, cmd models.Command) {
	if cmd.NewSlot == nil {
		return
	}
	if _, ok := s.Criteria.SlotFor(cmd.Target); ok {
		s.AddWarning(fmt.Sprintf("активность «%s» уже в плане", cmd.Target))
		return
	}
	s.Criteria.Activities = append(s.Criteria.Activities, *cmd.NewSlot)
	s.SetCandidates(cmd.Target, nil)
}

// executeModify narrows the target's shortlist by the command's
// constraints. Time constraints get one retry with a widened window; a
// filter that still comes up empty drops the activity from the plan.
func (e *Engine) executeModify(s *models.Session, cmd models.Command) {
	s.Unpin(cmd.Target)
	if len(cmd.Constraints) == 0 {
		return
	}

	pool := s.CandidatesFor(cmd.Target)
	if len(pool) == 0 {
		s.AddWarning(fmt.Sprintf("нет вариантов для «%s», сначала соберу план заново", cmd.Target))
		return
	}

	filtered := planner.ApplyConstraints(pool, cmd.Constraints, 0)
	if len(filtered) == 0 && hasTimeConstraint(cmd.Constraints) {
		filtered = planner.ApplyConstraints(pool, cmd.Constraints, planner.DefaultExpansion)
		if len(filtered) > 0 {
			s.AddWarning("точно под это время не нашлось, расширил окно на 15 минут")
		}
	}
	if len(filtered) == 0 {
		s.AddWarning(fmt.Sprintf("под это условие ничего не нашлось, убрал «%s» из плана", cmd.Target))
		removeSlot(s, cmd.Target)
		return
	}
	s.SetCandidates(cmd.Target, filtered)
}

func hasTimeConstraint(cs []models.Constraint) bool {
	for _, c := range cs {
		if c.Attribute == models.AttrStartTime {
			return true
		}
	}
	return false
}

// builderInput collects the session's pools, pins and window into one
// builder call.
func builderInput(s *models.Session, start, end time.Time) planner.BuildInput {
	order := make([]models.ActivityType, 0, len(s.Criteria.Activities))
	pools := make(map[models.ActivityType][]models.Candidate, len(s.Criteria.Activities))
	for _, slot := range s.Criteria.Activities {
		order = append(order, slot.Type)
		pools[slot.Type] = s.CandidatesFor(slot.Type)
	}
	return planner.BuildInput{
		Order:         order,
		Pools:         pools,
		Pinned:        s.Pinned,
		WindowStart:   start,
		WindowEnd:     end,
		StartCoords:   s.StartCoords,
		StartFlexible: s.StartFlexible,
		Sort:          s.Sorting,
	}
}
