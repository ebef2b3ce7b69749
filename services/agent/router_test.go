package agent

import (
	"testing"

	"planmate/models"

	"github.com/stretchr/testify/assert"
)

func plannedSession() *models.Session {
	s := models.NewSession("chat-1")
	s.Criteria = &models.SearchCriteria{
		City:       "Москва",
		Activities: []models.ActivitySlot{{Type: models.ActivityMovie, Query: "кино"}},
	}
	s.DateKey = "2025-06-07"
	s.SetCandidates(models.ActivityMovie, []models.Candidate{
		models.NewEventCandidate(models.ActivityMovie, models.TimedEvent{Name: "Дюна"}),
	})
	return s
}

func TestDecidePendingQuestionsWinOverIntent(t *testing.T) {
	s := plannedSession()
	s.Intent = &models.ClassifiedIntent{Intent: models.IntentPlanRequest}

	s.AwaitingStartAddress = true
	assert.Equal(t, NodeStartAddress, Decide(s))

	s.AwaitingStartAddress = false
	s.AwaitingCriteria = true
	assert.Equal(t, NodeClarifyCriteria, Decide(s))
}

func TestDecidePlanRequestBeatsQueuedCommands(t *testing.T) {
	s := plannedSession()
	s.Intent = &models.ClassifiedIntent{Intent: models.IntentPlanRequest}
	s.CommandQueue = []models.Command{{Kind: models.CommandDelete, Target: models.ActivityMovie}}

	assert.Equal(t, NodeExtract, Decide(s))
}

func TestDecideCommandQueueBeforePipeline(t *testing.T) {
	s := plannedSession()
	s.CommandQueue = []models.Command{{Kind: models.CommandModify, Target: models.ActivityMovie}}

	assert.Equal(t, NodeExecute, Decide(s))
}

func TestDecidePipelineFallback(t *testing.T) {
	s := models.NewSession("chat-1")
	assert.Equal(t, NodeExtract, Decide(s))

	s = plannedSession()
	s.Candidates = models.CandidatePool{}
	assert.Equal(t, NodeSearch, Decide(s))

	s = plannedSession()
	assert.Equal(t, NodeBuild, Decide(s))

	s.BuildResult = &models.BuildResult{}
	assert.Equal(t, NodePresent, Decide(s))
}

func TestDecideChitchat(t *testing.T) {
	s := models.NewSession("chat-1")
	s.Intent = &models.ClassifiedIntent{Intent: models.IntentChitchat}
	assert.Equal(t, NodeChitchat, Decide(s))
}
