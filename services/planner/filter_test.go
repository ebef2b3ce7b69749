package planner

import (
	"testing"
	"time"

	"planmate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movieAt(t *testing.T, name, start string, minPrice int) models.Candidate {
	t.Helper()
	st, err := time.Parse("2006-01-02 15:04", start)
	require.NoError(t, err)
	return models.NewEventCandidate(models.ActivityMovie, models.TimedEvent{
		Name:      name,
		StartTime: st,
		MinPrice:  &minPrice,
	})
}

func restaurant(name, avgBill, rating string) models.Candidate {
	return models.NewPlaceCandidate(models.ActivityRestaurant, models.OpenHoursPlace{
		Name:        name,
		AvgBillText: avgBill,
		RatingText:  rating,
	})
}

func TestApplyConstraintStartTimeAfter(t *testing.T) {
	pool := []models.Candidate{
		movieAt(t, "early", "2025-06-07 14:00", 400),
		movieAt(t, "late", "2025-06-07 20:00", 400),
	}
	c := models.Constraint{
		Attribute: models.AttrStartTime,
		Operator:  models.OpGreaterThan,
		Value:     "2025-06-07T18:00:00Z",
	}

	out := ApplyConstraint(pool, c, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "late", out[0].Name())
}

func TestApplyConstraintStartTimeSlack(t *testing.T) {
	pool := []models.Candidate{movieAt(t, "borderline", "2025-06-07 17:50", 400)}
	c := models.Constraint{
		Attribute: models.AttrStartTime,
		Operator:  models.OpGreaterThan,
		Value:     "2025-06-07T18:00:00Z",
	}

	assert.Empty(t, ApplyConstraint(pool, c, 0))
	assert.Len(t, ApplyConstraint(pool, c, 15*time.Minute), 1)
}

func TestApplyConstraintPrice(t *testing.T) {
	pool := []models.Candidate{
		movieAt(t, "cheap", "2025-06-07 14:00", 300),
		movieAt(t, "pricey", "2025-06-07 15:00", 900),
		restaurant("bistro", "средний чек 1 500 руб", "4,6"),
	}
	c := models.Constraint{
		Attribute: models.AttrPrice,
		Operator:  models.OpLessThan,
		Value:     "500",
	}

	out := ApplyConstraint(pool, c, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "cheap", out[0].Name())
}

func TestApplyConstraintPriceDropsUnknownForThresholds(t *testing.T) {
	pool := []models.Candidate{restaurant("mystery", "", "")}
	c := models.Constraint{
		Attribute: models.AttrPrice,
		Operator:  models.OpLessThan,
		Value:     "1000",
	}
	assert.Empty(t, ApplyConstraint(pool, c, 0))

	// Not-equals keeps unverifiable candidates.
	c.Operator = models.OpNotEquals
	assert.Len(t, ApplyConstraint(pool, c, 0), 1)
}

func TestApplyConstraintRatingFromText(t *testing.T) {
	pool := []models.Candidate{
		restaurant("good", "", "4,8 из 5"),
		restaurant("bad", "", "3.1"),
	}
	c := models.Constraint{
		Attribute: models.AttrRating,
		Operator:  models.OpGreaterThan,
		Value:     "4",
	}

	out := ApplyConstraint(pool, c, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "good", out[0].Name())
}

func TestApplyConstraintNameNotEquals(t *testing.T) {
	pool := []models.Candidate{
		movieAt(t, "Дюна", "2025-06-07 14:00", 400),
		movieAt(t, "Комета", "2025-06-07 15:00", 400),
	}
	c := models.Constraint{
		Attribute: models.AttrName,
		Operator:  models.OpNotEquals,
		Value:     "дюна",
	}

	out := ApplyConstraint(pool, c, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "Комета", out[0].Name())
}

func TestApplyConstraintUnknownAttributeIsNoop(t *testing.T) {
	pool := []models.Candidate{movieAt(t, "any", "2025-06-07 14:00", 400)}
	c := models.Constraint{Attribute: "color", Operator: models.OpEquals, Value: "red"}
	assert.Len(t, ApplyConstraint(pool, c, 0), 1)
}

func TestTimeConstraintKeepsOpenHoursVenues(t *testing.T) {
	pool := []models.Candidate{restaurant("bistro", "1000", "4.5")}
	c := models.Constraint{
		Attribute: models.AttrStartTime,
		Operator:  models.OpGreaterThan,
		Value:     "2025-06-07T18:00:00Z",
	}
	assert.Len(t, ApplyConstraint(pool, c, 0), 1)
}
