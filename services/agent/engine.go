package agent

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"planmate/database/repository/history"
	"planmate/models"
	"planmate/services/command"
	"planmate/services/geo"
	"planmate/services/nlu"
	"planmate/services/planner"
	"planmate/services/search"
	"planmate/utils"

	"go.uber.org/zap"
)

// maxSteps bounds one turn so a routing bug cannot spin forever.
const maxSteps = 12

// defaultStartHour is assumed when the user gave no time window.
const defaultStartHour = 9

// Engine drives one conversation turn through the node graph.
type Engine struct {
	store    SessionStore
	nlu      nlu.NLU
	search   search.Service
	geocoder geo.Geocoder
	builder  planner.Builder
	commands command.Processor
	history  history.Repository // nil disables archiving
	now      func() time.Time
}

// NewEngine wires the conversation engine. history may be nil.
func NewEngine(store SessionStore, lang nlu.NLU, searcher search.Service, geocoder geo.Geocoder, builder planner.Builder, commands command.Processor, archive history.Repository) *Engine {
	return &Engine{
		store:    store,
		nlu:      lang,
		search:   searcher,
		geocoder: geocoder,
		builder:  builder,
		commands: commands,
		history:  archive,
		now:      time.Now,
	}
}

// HandleMessage runs one user turn and returns the assistant's reply.
func (e *Engine) HandleMessage(ctx context.Context, chatID, message string) (models.ChatResponse, error) {
	log := utils.GetLogger()

	s, err := e.store.Get(ctx, chatID)
	if err != nil {
		return models.ChatResponse{}, err
	}
	if s == nil {
		s = models.NewSession(chatID)
	}
	s.UserMessage = message
	s.Reply = ""
	s.Warnings = nil
	s.LastError = ""

	// Turns answering a pending question skip classification: the reply
	// is an answer, not a new request.
	if !s.AwaitingStartAddress && !s.AwaitingCriteria {
		intent, err := e.nlu.Classify(ctx, message, s.PlanPresented)
		if err != nil {
			log.Error("intent classification failed", zap.String("chatID", chatID), zap.Error(err))
			intent = models.ClassifiedIntent{Intent: models.IntentChitchat}
		}
		s.Intent = &intent
		log.Info("message classified",
			zap.String("chatID", chatID), zap.String("intent", string(intent.Intent)))
	}

	for step := 0; step < maxSteps && s.Reply == ""; step++ {
		node := Decide(s)
		log.Debug("dispatching node", zap.String("chatID", chatID), zap.String("node", string(node)))

		if err := e.run(ctx, node, s); err != nil {
			log.Error("node failed",
				zap.String("chatID", chatID), zap.String("node", string(node)), zap.Error(err))
			s.LastError = err.Error()
			// A failed turn must not leave half-consumed state behind
			// for the next message to trip over.
			s.CommandQueue = nil
			s.Sorting = nil
			s.Intent = nil
			s.AwaitingStartAddress = false
			s.AwaitingCriteria = false
			reply, _ := e.nlu.PhraseFailure(ctx, "внутренняя ошибка, попробуйте переформулировать запрос")
			if reply == "" {
				reply = "Что-то пошло не так, попробуйте ещё раз."
			}
			s.Reply = reply
			break
		}
	}
	if s.Reply == "" {
		s.Reply = "Что-то пошло не так, попробуйте ещё раз."
	}

	if err := e.store.Save(ctx, s); err != nil {
		log.Error("failed to save session", zap.String("chatID", chatID), zap.Error(err))
	}
	return models.ChatResponse{ChatID: chatID, Reply: s.Reply, Warnings: s.Warnings}, nil
}

// Reset forgets everything about a chat.
func (e *Engine) Reset(ctx context.Context, chatID string) error {
	return e.store.Delete(ctx, chatID)
}

func (e *Engine) run(ctx context.Context, node Node, s *models.Session) error {
	switch node {
	case NodeStartAddress:
		return e.nodeStartAddress(ctx, s)
	case NodeClarifyCriteria:
		return e.nodeClarifyCriteria(ctx, s)
	case NodeExtract:
		return e.nodeExtract(ctx, s)
	case NodeFeedback:
		return e.nodeFeedback(ctx, s)
	case NodeExecute:
		return e.nodeExecute(ctx, s)
	case NodeSearch:
		return e.nodeSearch(ctx, s)
	case NodeBuild:
		return e.nodeBuild(ctx, s)
	case NodePresent:
		return e.nodePresent(ctx, s)
	case NodeChitchat:
		return e.nodeChitchat(ctx, s)
	}
	return fmt.Errorf("unknown node %s", node)
}

// resolveLogistics turns the criteria's city and date descriptions into a
// catalog city id, a date key and a plan window.
func (e *Engine) resolveLogistics(ctx context.Context, s *models.Session) error {
	city, err := e.search.ResolveCity(ctx, s.Criteria.City)
	if err != nil {
		return fmt.Errorf("failed to resolve city %q: %w", s.Criteria.City, err)
	}
	s.CityID = city.ID
	s.Criteria.City = city.Name

	date, err := e.nlu.ResolveDate(ctx, s.Criteria.DateDescription, e.now())
	if err != nil {
		return fmt.Errorf("failed to resolve date: %w", err)
	}
	s.DateKey = date.Format("2006-01-02")

	start, end, flexible := parseTimeWindow(s.Criteria.TimeDescription, date)
	s.WindowStart = &start
	s.WindowEnd = &end
	s.StartFlexible = flexible
	return nil
}

var (
	windowRangeRe = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(?:-|–|—|до)\s*(\d{1,2})(?::(\d{2}))?`)
	windowFromRe  = regexp.MustCompile(`(?:с|после|from|after)\s*(\d{1,2})(?::(\d{2}))?`)
)

// parseTimeWindow reads "с 18", "18:00-23:00" and similar. Without a
// usable description the day starts at the default hour and the start is
// marked flexible.
func parseTimeWindow(desc string, date time.Time) (start, end time.Time, flexible bool) {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end = midnight.Add(23*time.Hour + 59*time.Minute)

	atHour := func(h, m int) time.Time {
		return midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}
	toInt := func(v string) int {
		n := 0
		for _, r := range v {
			n = n*10 + int(r-'0')
		}
		return n
	}

	if m := windowRangeRe.FindStringSubmatch(desc); m != nil {
		sh, sm := toInt(m[1]), 0
		if m[2] != "" {
			sm = toInt(m[2])
		}
		eh, em := toInt(m[3]), 0
		if m[4] != "" {
			em = toInt(m[4])
		}
		if sh <= 24 && eh <= 24 {
			start = atHour(sh, sm)
			if eh == 24 {
				end = midnight.Add(24 * time.Hour)
			} else {
				end = atHour(eh, em)
			}
			return start, end, false
		}
	}
	if m := windowFromRe.FindStringSubmatch(desc); m != nil {
		sh, sm := toInt(m[1]), 0
		if m[2] != "" {
			sm = toInt(m[2])
		}
		if sh <= 24 {
			return atHour(sh, sm), end, false
		}
	}
	return atHour(defaultStartHour, 0), end, true
}
