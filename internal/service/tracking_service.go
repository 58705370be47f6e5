package service

import (
	"context"
	"sort"
	"time"

	"nutricoach/coach-app/internal/domain"
	"nutricoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MissingDayName labels synthesized placeholder days in a tracking window.
const MissingDayName = "Missing Day"

// TrackingDay is one entry of a tracking window: either a real plan day with
// its intended and eaten totals, or a zero-macro placeholder for a calendar
// gap.
type TrackingDay struct {
	Name           string             `json:"day"`
	StartDate      time.Time          `json:"startDate"`
	DayMacros      domain.MacroTarget `json:"dayTotal"`
	EatenDayMacros domain.MacroTarget `json:"eatenTotal"`
	Missing        bool               `json:"missing"`
}

// --- Service Interface ---
type TrackingService interface {
	// GetTrackingWindow returns the trainee's daily series for the last
	// windowDays, ascending by date, with Missing Day placeholders filling
	// every calendar gap between real days. Read-only.
	GetTrackingWindow(ctx context.Context, traineeID primitive.ObjectID, windowDays int) ([]TrackingDay, error)
}

// --- Service Implementation ---

// trackingService implements the TrackingService interface.
type trackingService struct {
	planRepo repository.PlanRepository
}

// NewTrackingService creates a new instance of trackingService.
func NewTrackingService(planRepo repository.PlanRepository) TrackingService {
	return &trackingService{planRepo: planRepo}
}

// GetTrackingWindow gathers every plan the trainee owns (Current and
// Archived both count toward history; templates carry no trainee and never
// appear), flattens their days and derives the gap-filled series. Stored
// plans are never mutated.
func (s *trackingService) GetTrackingWindow(ctx context.Context, traineeID primitive.ObjectID, windowDays int) ([]TrackingDay, error) {
	if traineeID == primitive.NilObjectID || windowDays <= 0 {
		return nil, ErrValidationFailed
	}

	plans, err := s.planRepo.GetByTrainee(ctx, traineeID)
	if err != nil {
		return nil, err
	}

	return buildTrackingWindow(plans, windowDays, time.Now().UTC()), nil
}

// buildTrackingWindow derives the contiguous daily series from the trainee's
// plan history. Separated from the repository fetch so the windowing and
// gap-filling logic is a pure function of its inputs.
func buildTrackingWindow(plans []domain.Plan, windowDays int, now time.Time) []TrackingDay {
	earliest := now.AddDate(0, 0, -windowDays)
	latest := now.AddDate(0, 0, windowDays)

	var days []TrackingDay
	for _, plan := range plans {
		for _, day := range plan.Days {
			if day.StartDate.Before(earliest) || day.StartDate.After(latest) {
				continue
			}
			days = append(days, TrackingDay{
				Name:           day.Name,
				StartDate:      day.StartDate,
				DayMacros:      day.DayMacros,
				EatenDayMacros: day.EatenDayMacros,
			})
		}
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].StartDate.Before(days[j].StartDate)
	})

	// Fill calendar gaps between consecutive real days with zero-macro
	// placeholders so the series has no implicit holes.
	filled := make([]TrackingDay, 0, len(days))
	for i, day := range days {
		if i > 0 {
			cursor := filled[len(filled)-1].StartDate.AddDate(0, 0, 1)
			for cursor.Before(day.StartDate) {
				filled = append(filled, TrackingDay{
					Name:      MissingDayName,
					StartDate: cursor,
					Missing:   true,
				})
				cursor = cursor.AddDate(0, 0, 1)
			}
		}
		filled = append(filled, day)
	}
	return filled
}
