package nlu

import (
	"testing"
	"time"

	"planmate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandLines(t *testing.T) {
	raw := `Вот команды:
<commands>
modify;MOVIE;start_time;>;;1 час
delete;PARK;;;;
add;RESTAURANT;;;суши;
</commands>`

	intents := ParseCommandLines(raw)
	require.Len(t, intents, 3)

	first := intents[0]
	assert.Equal(t, "modify", first.CommandType)
	assert.Equal(t, "MOVIE", first.Target)
	assert.Equal(t, models.AttrStartTime, first.Attribute)
	assert.Equal(t, models.OpGreaterThan, first.Operator)
	require.NotNil(t, first.ValueNum)
	assert.Equal(t, float64(1), *first.ValueNum)
	assert.Equal(t, "час", first.ValueUnit)

	assert.Equal(t, "delete", intents[1].CommandType)
	assert.Equal(t, "PARK", intents[1].Target)

	assert.Equal(t, "суши", intents[2].ValueStr)
	assert.Nil(t, intents[2].ValueNum)
}

func TestParseCommandLinesWithoutBlock(t *testing.T) {
	intents := ParseCommandLines("modify;RESTAURANT;price;MIN;;")
	require.Len(t, intents, 1)
	assert.Equal(t, models.OpMin, intents[0].Operator)
}

func TestParseCommandLinesSkipsGarbage(t *testing.T) {
	raw := `<commands>
not a command
modify;MOVIE;price;<;;500
# comment
;;;;
</commands>`

	intents := ParseCommandLines(raw)
	require.Len(t, intents, 1)
	require.NotNil(t, intents[0].ValueNum)
	assert.Equal(t, float64(500), *intents[0].ValueNum)
}

func TestParseCommandLinesNullFields(t *testing.T) {
	intents := ParseCommandLines("modify;MOVIE;name;null;null;null")
	require.Len(t, intents, 1)
	assert.Equal(t, models.Operator(""), intents[0].Operator)
	assert.Empty(t, intents[0].ValueStr)
	assert.Nil(t, intents[0].ValueNum)
}

func TestSplitNumUnit(t *testing.T) {
	n, unit, ok := splitNumUnit("30 минут")
	require.True(t, ok)
	assert.Equal(t, float64(30), n)
	assert.Equal(t, "минут", unit)

	n, unit, ok = splitNumUnit("500")
	require.True(t, ok)
	assert.Equal(t, float64(500), n)
	assert.Empty(t, unit)

	_, _, ok = splitNumUnit("дорого")
	assert.False(t, ok)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"city":"Москва"}`, StripFences("```json\n{\"city\":\"Москва\"}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}

func TestFormatPlan(t *testing.T) {
	start, err := time.Parse("2006-01-02 15:04", "2025-06-07 19:00")
	require.NoError(t, err)
	price := 500
	plan := &models.Itinerary{
		Stops: []models.PlanStop{{
			Candidate: models.NewEventCandidate(models.ActivityMovie, models.TimedEvent{
				Name:      "Дюна",
				VenueName: "Октябрь",
				StartTime: start,
				MinPrice:  &price,
			}),
			StartTime: start,
			EndTime:   start.Add(2 * time.Hour),
			Travel:    &models.RouteSegment{DurationSeconds: 600},
		}},
		TotalTravelSeconds: 600,
	}

	out := FormatPlan(plan)
	assert.Contains(t, out, "Дюна")
	assert.Contains(t, out, "Октябрь")
	assert.Contains(t, out, "19:00")
	assert.Contains(t, out, "500")
	assert.Contains(t, out, "10 мин")

	assert.Equal(t, "план пуст", FormatPlan(nil))
}
