// Package planner filters candidate shortlists and assembles feasible
// day itineraries out of them.
package planner

import (
	"strings"
	"time"

	"planmate/models"
)

// DefaultExpansion is how far time constraints are loosened on the one
// retry allowed after a build finds nothing.
const DefaultExpansion = 15 * time.Minute

// ApplyConstraint returns the candidates satisfying one constraint.
// slack loosens time comparisons in the caller's favor; pass zero for a
// strict first attempt. Candidates missing the compared attribute are
// dropped for threshold operators, since they cannot be verified to
// satisfy the user's ask. Unknown attributes leave the pool untouched.
func ApplyConstraint(pool []models.Candidate, c models.Constraint, slack time.Duration) []models.Candidate {
	switch c.Attribute {
	case models.AttrStartTime:
		return filterByTime(pool, c, slack)
	case models.AttrPrice:
		return filterByNumber(pool, c, models.Candidate.Price)
	case models.AttrRating:
		return filterByNumber(pool, c, models.Candidate.RatingValue)
	case models.AttrName:
		return filterByName(pool, c)
	}
	return pool
}

func filterByTime(pool []models.Candidate, c models.Constraint, slack time.Duration) []models.Candidate {
	want, ok := c.TimeValue()
	if !ok {
		return pool
	}
	var out []models.Candidate
	for _, cand := range pool {
		st, has := cand.StartTime()
		if !has {
			// Open-hours venues have no fixed start; the builder places
			// them, so a start-time constraint cannot exclude them here.
			out = append(out, cand)
			continue
		}
		switch c.Operator {
		case models.OpGreaterThan:
			if st.After(want.Add(-slack)) {
				out = append(out, cand)
			}
		case models.OpLessThan:
			if st.Before(want.Add(slack)) {
				out = append(out, cand)
			}
		case models.OpEquals:
			diff := st.Sub(want)
			if diff < 0 {
				diff = -diff
			}
			if diff <= slack {
				out = append(out, cand)
			}
		case models.OpNotEquals:
			if !st.Equal(want) {
				out = append(out, cand)
			}
		default:
			out = append(out, cand)
		}
	}
	return out
}

func filterByNumber(pool []models.Candidate, c models.Constraint, value func(models.Candidate) (float64, bool)) []models.Candidate {
	want, ok := c.NumericValue()
	if !ok {
		return pool
	}
	var out []models.Candidate
	for _, cand := range pool {
		v, has := value(cand)
		switch c.Operator {
		case models.OpGreaterThan:
			if has && v > want {
				out = append(out, cand)
			}
		case models.OpLessThan:
			if has && v < want {
				out = append(out, cand)
			}
		case models.OpEquals:
			if has && v == want {
				out = append(out, cand)
			}
		case models.OpNotEquals:
			if !has || v != want {
				out = append(out, cand)
			}
		default:
			out = append(out, cand)
		}
	}
	return out
}

func filterByName(pool []models.Candidate, c models.Constraint) []models.Candidate {
	want := strings.ToLower(strings.TrimSpace(c.Value))
	if want == "" {
		return pool
	}
	var out []models.Candidate
	for _, cand := range pool {
		name := strings.ToLower(cand.Name())
		match := strings.Contains(name, want)
		switch c.Operator {
		case models.OpNotEquals:
			if !match {
				out = append(out, cand)
			}
		default:
			// Equality is the only other meaningful name operator.
			if match {
				out = append(out, cand)
			}
		}
	}
	return out
}

// ApplyConstraints runs a constraint list left to right.
func ApplyConstraints(pool []models.Candidate, cs []models.Constraint, slack time.Duration) []models.Candidate {
	for _, c := range cs {
		pool = ApplyConstraint(pool, c, slack)
	}
	return pool
}
