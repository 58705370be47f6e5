package domain

import "time"

// Gender type for biometric profiles
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// FitnessGoal drives the calorie adjustment applied on top of TDEE.
type FitnessGoal string

const (
	GoalLoseWeight       FitnessGoal = "lose_weight"
	GoalBuildMuscle      FitnessGoal = "build_muscle"
	GoalHealthyLifestyle FitnessGoal = "healthy_lifestyle"
)

// ActivityLevel maps to a TDEE multiplier in the macro calculator.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// BiometricProfile is the immutable intake data a diet assessment supplies.
// It is the input of the macro calculator; this core never mutates it.
type BiometricProfile struct {
	Gender        Gender        `bson:"gender" json:"gender"`
	BirthDate     time.Time     `bson:"birthDate" json:"birthDate"`
	WeightKg      float64       `bson:"weightKg" json:"weightKg"`
	HeightCm      float64       `bson:"heightCm" json:"heightCm"`
	Goal          FitnessGoal   `bson:"goal" json:"goal"`
	ActivityLevel ActivityLevel `bson:"activityLevel" json:"activityLevel"`
}

// MacroTarget is a daily calorie/macro quadruple. Values are whole kcal and
// grams; they are cached on plans, days, meals and foods at authoring time
// rather than recomputed from children.
type MacroTarget struct {
	Calories int `bson:"calories" json:"calories"`
	Proteins int `bson:"proteins" json:"proteins"`
	Fats     int `bson:"fats" json:"fats"`
	Carbs    int `bson:"carbs" json:"carbs"`
}

// IsZero reports whether every component is zero.
func (m MacroTarget) IsZero() bool {
	return m.Calories == 0 && m.Proteins == 0 && m.Fats == 0 && m.Carbs == 0
}

// Add returns m with other added component-wise.
func (m MacroTarget) Add(other MacroTarget) MacroTarget {
	return MacroTarget{
		Calories: m.Calories + other.Calories,
		Proteins: m.Proteins + other.Proteins,
		Fats:     m.Fats + other.Fats,
		Carbs:    m.Carbs + other.Carbs,
	}
}

// Subtract returns m with other removed component-wise, floored at zero so
// rounding drift can never push an eaten total negative.
func (m MacroTarget) Subtract(other MacroTarget) MacroTarget {
	return MacroTarget{
		Calories: maxInt(m.Calories-other.Calories, 0),
		Proteins: maxInt(m.Proteins-other.Proteins, 0),
		Fats:     maxInt(m.Fats-other.Fats, 0),
		Carbs:    maxInt(m.Carbs-other.Carbs, 0),
	}
}

// Scale returns m multiplied by a serving amount, rounded to whole units.
func (m MacroTarget) Scale(amount float64) MacroTarget {
	return MacroTarget{
		Calories: roundToInt(float64(m.Calories) * amount),
		Proteins: roundToInt(float64(m.Proteins) * amount),
		Fats:     roundToInt(float64(m.Fats) * amount),
		Carbs:    roundToInt(float64(m.Carbs) * amount),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func roundToInt(v float64) int {
	if v < 0 {
		return -roundToInt(-v)
	}
	return int(v + 0.5)
}
