package service

import (
	"errors"
	"math"
	"time"

	"nutricoach/coach-app/internal/domain"
)

// ErrIncompleteProfile means the calculator cannot produce a target because
// required biometric fields are missing. Callers must treat the accompanying
// zero target as "not computable", never as a real zero-calorie goal.
var ErrIncompleteProfile = errors.New("biometric profile is incomplete")

// activityFactors maps activity levels to their TDEE multiplier. Unrecognized
// levels fall back to 1.0 so a malformed intake degrades to BMR instead of
// failing the whole plan creation.
var activityFactors = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:  1.2,
	domain.ActivityLight:      1.375,
	domain.ActivityModerate:   1.55,
	domain.ActivityActive:     1.725,
	domain.ActivityVeryActive: 1.9,
}

// Calorie adjustment applied on top of TDEE for weight goals.
const goalCalorieAdjustment = 300

// Macro split ratios and energy densities (kcal per gram).
const (
	proteinRatio = 0.30
	fatRatio     = 0.25
	carbRatio    = 0.45

	proteinKcalPerGram = 4
	fatKcalPerGram     = 9
	carbKcalPerGram    = 4
)

// CalculateMacros derives a daily calorie/macro target from a biometric
// profile using Mifflin-St Jeor. Returns ErrIncompleteProfile and a zeroed
// target when any required field is missing.
func CalculateMacros(profile domain.BiometricProfile) (domain.MacroTarget, error) {
	return calculateMacrosAt(profile, time.Now().UTC())
}

// calculateMacrosAt is CalculateMacros with an injectable clock for tests.
func calculateMacrosAt(profile domain.BiometricProfile, now time.Time) (domain.MacroTarget, error) {
	if err := validateProfile(profile); err != nil {
		return domain.MacroTarget{}, err
	}

	// BMR via Mifflin-St Jeor: different constant for male vs female
	age := ageAt(profile.BirthDate, now)
	bmr := 10*profile.WeightKg + 6.25*profile.HeightCm - 5*float64(age)
	if profile.Gender == domain.GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	factor, found := activityFactors[profile.ActivityLevel]
	if !found {
		factor = 1.0
	}
	tdee := bmr * factor

	switch profile.Goal {
	case domain.GoalLoseWeight:
		tdee -= goalCalorieAdjustment
	case domain.GoalBuildMuscle:
		tdee += goalCalorieAdjustment
	}

	// TDEE never drops below BMR; a deficit goal cannot push the target
	// under the body's resting requirement.
	if tdee < bmr {
		tdee = bmr
	}

	return domain.MacroTarget{
		Calories: int(math.Round(tdee)),
		Proteins: int(math.Round(tdee * proteinRatio / proteinKcalPerGram)),
		Fats:     int(math.Round(tdee * fatRatio / fatKcalPerGram)),
		Carbs:    int(math.Round(tdee * carbRatio / carbKcalPerGram)),
	}, nil
}

func validateProfile(profile domain.BiometricProfile) error {
	if profile.Gender != domain.GenderMale && profile.Gender != domain.GenderFemale {
		return ErrIncompleteProfile
	}
	if profile.BirthDate.IsZero() || profile.WeightKg <= 0 || profile.HeightCm <= 0 {
		return ErrIncompleteProfile
	}
	return nil
}

// ageAt computes full years between birth and now: calendar-year difference
// adjusted down by one when the birthday has not happened yet this year.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Before(birth.AddDate(age, 0, 0)) {
		age--
	}
	return age
}
