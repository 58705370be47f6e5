package service

import (
	"context"
	"testing"
	"time"

	"nutricoach/coach-app/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func trackingDay(name string, date time.Time) domain.Day {
	return domain.Day{
		Name:           name,
		StartDate:      date,
		DayMacros:      entryMacros(),
		EatenDayMacros: domain.MacroTarget{Calories: 50, Proteins: 5, Fats: 2, Carbs: 10},
	}
}

func TestBuildTrackingWindow_FillsCalendarGaps(t *testing.T) {
	now := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)

	plans := []domain.Plan{{
		Days: []domain.Day{
			trackingDay("Day 1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			trackingDay("Day 5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		},
	}}

	window := buildTrackingWindow(plans, 7, now)
	require.Len(t, window, 5)

	require.Equal(t, "Day 1", window[0].Name)
	require.False(t, window[0].Missing)
	require.Equal(t, "Day 5", window[4].Name)
	require.False(t, window[4].Missing)

	// Jan 2-4 are synthesized placeholders with zero macros.
	for i := 1; i <= 3; i++ {
		require.Equal(t, MissingDayName, window[i].Name)
		require.True(t, window[i].Missing)
		require.True(t, window[i].DayMacros.IsZero())
		require.True(t, window[i].EatenDayMacros.IsZero())
		require.Equal(t, time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC), window[i].StartDate)
	}
}

func TestBuildTrackingWindow_MergesPlansSorted(t *testing.T) {
	now := time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC)

	// An archived plan and the current one both contribute history.
	plans := []domain.Plan{
		{Days: []domain.Day{trackingDay("Current Day", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))}},
		{Days: []domain.Day{trackingDay("Archived Day", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}},
	}

	window := buildTrackingWindow(plans, 7, now)
	require.Len(t, window, 3)
	require.Equal(t, "Archived Day", window[0].Name)
	require.Equal(t, MissingDayName, window[1].Name)
	require.Equal(t, "Current Day", window[2].Name)
}

func TestBuildTrackingWindow_ExcludesDaysOutsideWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	plans := []domain.Plan{{
		Days: []domain.Day{
			trackingDay("Ancient", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			trackingDay("Recent", time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)),
		},
	}}

	window := buildTrackingWindow(plans, 7, now)
	require.Len(t, window, 1)
	require.Equal(t, "Recent", window[0].Name)
}

func TestBuildTrackingWindow_Empty(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	window := buildTrackingWindow(nil, 7, now)
	require.Empty(t, window)
}

func TestGetTrackingWindow_ValidatesInput(t *testing.T) {
	svc := NewTrackingService(newFakePlanRepo())

	_, err := svc.GetTrackingWindow(context.Background(), primitive.NewObjectID(), 0)
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.GetTrackingWindow(context.Background(), primitive.NilObjectID, 7)
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestGetTrackingWindow_ReadOnly(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := NewTrackingService(planRepo)

	traineeID := primitive.NewObjectID()
	plan := makeDatedPlan(traineeID, primitive.NewObjectID(), time.Now().UTC().AddDate(0, 0, -1), 2)
	_, err := planRepo.Create(context.Background(), plan)
	require.NoError(t, err)

	window, err := svc.GetTrackingWindow(context.Background(), traineeID, 7)
	require.NoError(t, err)
	require.Len(t, window, 2)

	// Deriving the window never mutates the stored plan.
	stored, err := planRepo.GetByID(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.Version)
}
