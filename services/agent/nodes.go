package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"planmate/models"
	"planmate/services/nlu"
	"planmate/services/planner"
	"planmate/services/search"
	"planmate/utils"

	"go.uber.org/zap"
)

// nodeExtract handles a fresh plan request: full reset, criteria
// extraction, then logistics resolution.
func (e *Engine) nodeExtract(ctx context.Context, s *models.Session) error {
	if s.Intent != nil && s.Intent.Intent == models.IntentPlanRequest {
		s.ResetForNewPlan()
	}
	s.Intent = nil

	criteria, err := e.nlu.ExtractCriteria(ctx, s.UserMessage)
	if err != nil {
		return err
	}
	s.Criteria = criteria
	return e.afterCriteria(ctx, s)
}

// nodeClarifyCriteria merges the answer to a clarifying question into the
// criteria collected so far.
func (e *Engine) nodeClarifyCriteria(ctx context.Context, s *models.Session) error {
	s.AwaitingCriteria = false

	update, err := e.nlu.ExtractCriteria(ctx, s.UserMessage)
	if err != nil {
		return err
	}
	if s.Criteria == nil {
		s.Criteria = update
	} else {
		mergeCriteria(s.Criteria, update)
	}
	return e.afterCriteria(ctx, s)
}

func mergeCriteria(dst, src *models.SearchCriteria) {
	if src.City != "" {
		dst.City = src.City
	}
	if src.DateDescription != "" {
		dst.DateDescription = src.DateDescription
	}
	if src.TimeDescription != "" {
		dst.TimeDescription = src.TimeDescription
	}
	if src.Budget != nil {
		dst.Budget = src.Budget
	}
	if src.PersonCount > 0 {
		dst.PersonCount = src.PersonCount
	}
	for _, slot := range src.Activities {
		if _, exists := dst.SlotFor(slot.Type); !exists {
			dst.Activities = append(dst.Activities, slot)
		}
	}
}

// afterCriteria asks for whatever is still missing, resolves logistics,
// and asks for a start address once per plan.
func (e *Engine) afterCriteria(ctx context.Context, s *models.Session) error {
	var missing []string
	if s.Criteria.City == "" {
		missing = append(missing, "город")
	}
	if s.Criteria.DateDescription == "" {
		missing = append(missing, "на какой день")
	}
	if len(s.Criteria.Activities) == 0 {
		missing = append(missing, "чем хотите заняться")
	}
	if len(missing) > 0 {
		s.AwaitingCriteria = true
		s.MissingFields = missing
		s.Reply = fmt.Sprintf("Уточните, пожалуйста: %s.", strings.Join(missing, " и "))
		return nil
	}
	s.MissingFields = nil

	if err := e.resolveLogistics(ctx, s); err != nil {
		return err
	}

	if s.StartCoords == nil && s.StartAddress == "" {
		s.AwaitingStartAddress = true
		s.Reply = "Откуда планируете стартовать? Напишите адрес или «неважно»."
	}
	return nil
}

var skipAddressAnswers = map[string]bool{
	"нет": true, "неважно": true, "не важно": true, "пропустить": true,
	"все равно": true, "всё равно": true, "skip": true, "no": true,
}

// nodeStartAddress consumes the answer to the start-address question. An
// unrecognized address is a warning, never a dead end.
func (e *Engine) nodeStartAddress(ctx context.Context, s *models.Session) error {
	s.AwaitingStartAddress = false

	answer := strings.TrimSpace(s.UserMessage)
	if skipAddressAnswers[strings.ToLower(answer)] {
		s.StartAddress = "-"
		return nil
	}

	coords, err := e.geocoder.Geocode(ctx, answer, s.CityID)
	if err != nil {
		utils.GetLogger().Warn("failed to geocode start address",
			zap.String("address", answer), zap.Error(err))
		s.AddWarning("не получилось распознать адрес, посчитаю план без точки старта")
		s.StartAddress = "-"
		return nil
	}
	s.StartAddress = answer
	s.StartCoords = &coords
	return nil
}

// nodeSearch fans out one catalog query per activity that has no cached
// shortlist. A failed slot degrades to a warning; only a fully empty
// result is fatal for the plan.
func (e *Engine) nodeSearch(ctx context.Context, s *models.Session) error {
	date, err := time.Parse("2006-01-02", s.DateKey)
	if err != nil {
		return fmt.Errorf("session has no resolved date: %w", err)
	}
	city := search.City{ID: s.CityID, Name: cityName(s)}

	var pending []models.ActivitySlot
	for _, slot := range s.Criteria.Activities {
		if len(s.CandidatesFor(slot.Type)) == 0 {
			pending = append(pending, slot)
		}
	}

	type result struct {
		slot models.ActivitySlot
		list []models.Candidate
		err  error
	}
	results := make([]result, len(pending))

	var wg sync.WaitGroup
	for i, slot := range pending {
		wg.Add(1)
		go func(i int, slot models.ActivitySlot) {
			defer wg.Done()
			list, err := e.search.Search(ctx, city, slot, date)
			results[i] = result{slot: slot, list: list, err: err}
		}(i, slot)
	}
	wg.Wait()

	empty := []string{}
	for _, r := range results {
		if r.err != nil {
			utils.GetLogger().Warn("slot search failed",
				zap.String("type", string(r.slot.Type)), zap.Error(r.err))
			s.AddWarning(fmt.Sprintf("поиск «%s» не удался, пропускаю", r.slot.Query))
		}
		r.list = applyBudget(s, r.slot, r.list)
		s.SetCandidates(r.slot.Type, r.list)
		if len(r.list) == 0 {
			empty = append(empty, string(r.slot.Type))
		}
	}

	if len(empty) == len(s.Criteria.Activities) && len(empty) > 0 {
		s.BuildResult = &models.BuildResult{
			FailureReason: "по запросу ничего не нашлось",
		}
		return nil
	}
	// Drop slots that found nothing so the builder works with what exists.
	for _, name := range empty {
		t := models.ActivityType(name)
		s.AddWarning(fmt.Sprintf("по «%s» ничего не нашлось, собираю план без этого", strings.ToLower(name)))
		removeSlot(s, t)
	}
	return nil
}

func cityName(s *models.Session) string {
	if s.Criteria != nil {
		return s.Criteria.City
	}
	return ""
}

// applyBudget narrows a timed-event shortlist to tickets within the
// per-person budget. When that would empty the list, the unfiltered list
// stays and the user gets a note instead.
func applyBudget(s *models.Session, slot models.ActivitySlot, list []models.Candidate) []models.Candidate {
	if !slot.Type.IsTimedEvent() || len(list) == 0 {
		return list
	}
	perPerson, ok := s.Criteria.BudgetPerPerson()
	if !ok {
		return list
	}
	filtered := planner.ApplyConstraint(list, models.Constraint{
		Attribute: models.AttrPrice,
		Operator:  models.OpLessThan,
		Value:     fmt.Sprintf("%d", perPerson+1),
	}, 0)
	if len(filtered) == 0 {
		s.AddWarning(fmt.Sprintf("в бюджет %d ₽ на человека «%s» не вписывается, показываю как есть", perPerson, slot.Query))
		return list
	}
	return filtered
}

func removeSlot(s *models.Session, t models.ActivityType) {
	if s.Criteria == nil {
		return
	}
	kept := s.Criteria.Activities[:0]
	for _, slot := range s.Criteria.Activities {
		if slot.Type != t {
			kept = append(kept, slot)
		}
	}
	s.Criteria.Activities = kept
	s.Unpin(t)
}

// nodeBuild assembles the builder input from the session and runs one
// build. The sort directive is consumed here: it applies to this build
// only.
func (e *Engine) nodeBuild(ctx context.Context, s *models.Session) error {
	if len(s.Criteria.Activities) == 0 {
		s.BuildResult = &models.BuildResult{FailureReason: "в плане не осталось активностей"}
		return nil
	}

	start, end := e.windowFor(s)
	in := builderInput(s, start, end)
	s.Sorting = nil

	res := e.builder.Build(ctx, in)
	s.BuildResult = &res
	return nil
}

func (e *Engine) windowFor(s *models.Session) (time.Time, time.Time) {
	if s.WindowStart != nil && s.WindowEnd != nil {
		return *s.WindowStart, *s.WindowEnd
	}
	day := e.now()
	if d, err := time.Parse("2006-01-02", s.DateKey); err == nil {
		day = d
	}
	start, end, _ := parseTimeWindow("", day)
	return start, end
}

// nodePresent finalizes the turn: phrase the plan or the failure, pin the
// presented stops, and archive the plan.
func (e *Engine) nodePresent(ctx context.Context, s *models.Session) error {
	res := s.BuildResult
	if res == nil {
		return fmt.Errorf("nothing to present")
	}

	if res.Plan == nil {
		reply, err := e.nlu.PhraseFailure(ctx, res.FailureReason)
		if err != nil || reply == "" {
			reply = fmt.Sprintf("Не получилось собрать план: %s.", res.FailureReason)
		}
		s.Reply = reply
		return nil
	}

	s.CurrentPlan = res.Plan
	s.PinPlan(res.Plan)
	s.PlanPresented = true
	for _, w := range res.Plan.Warnings {
		s.AddWarning(w)
	}

	reply, err := e.nlu.PhrasePlan(ctx, res.Plan, s.Criteria)
	if err != nil || reply == "" {
		reply = "Вот план:\n" + nlu.FormatPlan(res.Plan)
	}
	s.Reply = reply

	e.archive(ctx, s, res.Plan)
	return nil
}

func (e *Engine) archive(ctx context.Context, s *models.Session, plan *models.Itinerary) {
	if e.history == nil {
		return
	}
	rec := &models.PlanRecord{
		ChatID:  s.ChatID,
		City:    cityName(s),
		DateKey: s.DateKey,
		Plan:    *plan,
	}
	if err := e.history.Create(ctx, rec); err != nil {
		utils.GetLogger().Warn("failed to archive plan",
			zap.String("chatID", s.ChatID), zap.Error(err))
	}
}

// nodeFeedback parses a feedback utterance into commands and queues them.
func (e *Engine) nodeFeedback(ctx context.Context, s *models.Session) error {
	s.Intent = nil

	intents, err := e.nlu.ParseFeedback(ctx, s.UserMessage, s.CurrentPlan)
	if err != nil {
		return err
	}
	res := e.commands.Normalize(intents, s)
	s.CommandQueue = res.Commands
	if res.Sort != nil {
		s.Sorting = res.Sort
	}
	for _, note := range res.Dropped {
		s.AddWarning(note)
	}

	if len(s.CommandQueue) == 0 {
		s.Reply = "Не понял, что поменять в плане. Скажите, например: «найди сеанс попозже» или «убери парк»."
	}
	return nil
}

// nodeChitchat answers off-topic messages.
func (e *Engine) nodeChitchat(ctx context.Context, s *models.Session) error {
	s.Intent = nil
	reply, err := e.nlu.Chat(ctx, s.UserMessage)
	if err != nil {
		return err
	}
	s.Reply = reply
	return nil
}
