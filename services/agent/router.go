package agent

import "planmate/models"

// Node names one step of the conversation engine.
type Node string

const (
	NodeStartAddress    Node = "START_ADDRESS"
	NodeClarifyCriteria Node = "CLARIFY_CRITERIA"
	NodeExtract         Node = "EXTRACT_CRITERIA"
	NodeFeedback        Node = "ANALYZE_FEEDBACK"
	NodeExecute         Node = "EXECUTE_COMMAND"
	NodeSearch          Node = "SEARCH"
	NodeBuild           Node = "BUILD_PLAN"
	NodePresent         Node = "PRESENT_RESULTS"
	NodeChitchat        Node = "CHITCHAT"
)

// Decide picks the next node for the session. Priorities, highest first:
// pending replies the assistant explicitly asked for, a fresh plan
// request (which supersedes everything), feedback analysis, queued
// commands, then the pipeline fallback: criteria, search, build, present.
func Decide(s *models.Session) Node {
	if s.AwaitingStartAddress {
		return NodeStartAddress
	}
	if s.AwaitingCriteria {
		return NodeClarifyCriteria
	}

	if s.Intent != nil {
		switch s.Intent.Intent {
		case models.IntentPlanRequest:
			return NodeExtract
		case models.IntentFeedback:
			return NodeFeedback
		}
	}

	if len(s.CommandQueue) > 0 {
		return NodeExecute
	}

	if s.Intent != nil && s.Intent.Intent == models.IntentChitchat {
		return NodeChitchat
	}

	if s.Criteria == nil {
		return NodeExtract
	}
	if s.BuildResult == nil {
		if needsSearch(s) {
			return NodeSearch
		}
		return NodeBuild
	}
	return NodePresent
}

// needsSearch reports whether any requested activity has no cached
// shortlist for the current date.
func needsSearch(s *models.Session) bool {
	if s.Criteria == nil {
		return false
	}
	for _, slot := range s.Criteria.Activities {
		if len(s.CandidatesFor(slot.Type)) == 0 {
			return true
		}
	}
	return false
}
