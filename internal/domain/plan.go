package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanType distinguishes trainer-authored templates from trainee-owned plans.
type PlanType string

const (
	PlanTypeFreeTemplate PlanType = "free_template"
	PlanTypeCustomized   PlanType = "customized"
	PlanTypeMyPlan       PlanType = "my_plan"
)

// PlanStatus is the plan lifecycle state. A trainee has at most one Current
// plan; older plans are Archived when a newer one supersedes them.
type PlanStatus string

const (
	PlanStatusCurrent  PlanStatus = "current"
	PlanStatusArchived PlanStatus = "archived"
)

// MealType for the fixed meal slots within a day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealSnack     MealType = "snack"
	MealDinner    MealType = "dinner"
)

// ErrInvalidIndex is returned when a day/meal/food index does not address an
// existing element of the plan tree.
var ErrInvalidIndex = errors.New("day, meal or food index out of range")

// Plan is the top-level nutrition aggregate. The whole Day/Meal/FoodEntry
// tree is stored inline in one document, so the plan is the unit of
// persistence and of concurrency control (see Version).
type Plan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TraineeID *primitive.ObjectID `bson:"traineeId,omitempty" json:"traineeId,omitempty"` // nil while the plan is an unpublished template
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name      string             `bson:"name" json:"name"`
	PlanType  PlanType           `bson:"planType" json:"planType"`
	Status    PlanStatus         `bson:"status" json:"status"`
	StartDate time.Time          `bson:"startDate" json:"startDate"`
	Days      []Day              `bson:"days" json:"days"`

	// PlanMacros is the intended daily target, copied from the assessment or
	// template at creation time. It is never recomputed from the days.
	PlanMacros MacroTarget `bson:"planMacros" json:"planMacros"`

	// OriginalPlanID points back to the template a customized plan was cloned
	// from. Lookup only; deleting the template does not affect clones.
	OriginalPlanID *primitive.ObjectID `bson:"originalPlanId,omitempty" json:"originalPlanId,omitempty"`

	// Version guards the whole-document read-modify-write cycle. Every
	// repository update compares and increments it.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Day is one calendar day within a plan. Days have no identity of their own;
// they are addressed by index through the owning plan.
type Day struct {
	Name      string    `bson:"name" json:"name"` // e.g. "Day 1"
	StartDate time.Time `bson:"startDate" json:"startDate"`

	// DayMacros is the intended total: the sum of the meals' MealMacros at
	// authoring time.
	DayMacros MacroTarget `bson:"dayMacros" json:"dayMacros"`

	// EatenDayMacros is the running total of consumed macros. It is adjusted
	// incrementally on every consumed-flag transition, never rebuilt by a
	// full rescan.
	EatenDayMacros MacroTarget `bson:"eatenDayMacros" json:"eatenDayMacros"`

	Meals []Meal `bson:"meals" json:"meals"`
}

// Meal groups food entries within a day.
type Meal struct {
	Name       string      `bson:"name" json:"name"`
	Type       MealType    `bson:"type" json:"type"`
	Note       string      `bson:"note,omitempty" json:"note,omitempty"`
	MealMacros MacroTarget `bson:"mealMacros" json:"mealMacros"` // sum of foods at authoring time
	Foods      []FoodEntry `bson:"foods" json:"foods"`
}

// FoodEntry is a quantified reference to a catalog food. Display fields and
// macros are cached from the catalog at authoring time so the plan document
// stays self-contained.
type FoodEntry struct {
	FoodID      primitive.ObjectID `bson:"foodId" json:"foodId"`
	Name        string             `bson:"name" json:"name"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	ServingUnit string             `bson:"servingUnit,omitempty" json:"servingUnit,omitempty"`
	Amount      float64            `bson:"amount" json:"amount"`
	Macros      MacroTarget        `bson:"macros" json:"macros"` // catalog macros × amount
	Consumed    bool               `bson:"consumed" json:"consumed"`
}

// IsTemplate reports whether the plan is a trainer-authored template.
func (p *Plan) IsTemplate() bool {
	return p.PlanType == PlanTypeFreeTemplate
}

// OwnedBy reports whether the plan belongs to the given trainee.
func (p *Plan) OwnedBy(traineeID primitive.ObjectID) bool {
	return p.TraineeID != nil && *p.TraineeID == traineeID
}

// DayAt returns the day at index i, or ErrInvalidIndex.
func (p *Plan) DayAt(i int) (*Day, error) {
	if i < 0 || i >= len(p.Days) {
		return nil, ErrInvalidIndex
	}
	return &p.Days[i], nil
}

// MealAt returns the meal addressed by (dayIndex, mealIndex), or
// ErrInvalidIndex.
func (p *Plan) MealAt(dayIndex, mealIndex int) (*Meal, error) {
	day, err := p.DayAt(dayIndex)
	if err != nil {
		return nil, err
	}
	if mealIndex < 0 || mealIndex >= len(day.Meals) {
		return nil, ErrInvalidIndex
	}
	return &day.Meals[mealIndex], nil
}

// FoodAt returns the food entry at index i, or ErrInvalidIndex.
func (m *Meal) FoodAt(i int) (*FoodEntry, error) {
	if i < 0 || i >= len(m.Foods) {
		return nil, ErrInvalidIndex
	}
	return &m.Foods[i], nil
}

// FullyConsumed reports whether every food in the meal is consumed. An empty
// meal is never fully consumed, so the meal-level aggregate cannot fire for
// meals without foods.
func (m *Meal) FullyConsumed() bool {
	if len(m.Foods) == 0 {
		return false
	}
	for i := range m.Foods {
		if !m.Foods[i].Consumed {
			return false
		}
	}
	return true
}

// ApplyConsumptionDelta adjusts the day's eaten total by the given macros.
// Both the per-food and the whole-meal consumption paths go through this
// single primitive so the arithmetic cannot diverge between them.
func (d *Day) ApplyConsumptionDelta(macros MacroTarget, consumed bool) {
	if consumed {
		d.EatenDayMacros = d.EatenDayMacros.Add(macros)
	} else {
		d.EatenDayMacros = d.EatenDayMacros.Subtract(macros)
	}
}

// SetFoodConsumed flips one food's consumed flag and adjusts the day's eaten
// total. The adjustment happens only on a genuine transition: re-submitting
// the value a food already has is a no-op, which makes the operation
// idempotent. Reports whether the flag actually changed.
func (d *Day) SetFoodConsumed(mealIndex, foodIndex int, consumed bool) (bool, error) {
	if mealIndex < 0 || mealIndex >= len(d.Meals) {
		return false, ErrInvalidIndex
	}
	meal := &d.Meals[mealIndex]
	food, err := meal.FoodAt(foodIndex)
	if err != nil {
		return false, err
	}
	if food.Consumed == consumed {
		return false, nil
	}
	food.Consumed = consumed
	d.ApplyConsumptionDelta(food.Macros, consumed)
	return true, nil
}

// LastDayDate returns the start date of the plan's last day. ok is false for
// plans without days (a freshly provisioned customized plan has none until
// the trainer fills it in).
func (p *Plan) LastDayDate() (time.Time, bool) {
	if len(p.Days) == 0 {
		return time.Time{}, false
	}
	return p.Days[len(p.Days)-1].StartDate, true
}

// StampDayDates fixes every day's start date to start + its index in days.
// Day dates are derived, never authored.
func (p *Plan) StampDayDates(start time.Time) {
	p.StartDate = start
	for i := range p.Days {
		p.Days[i].StartDate = start.AddDate(0, 0, i)
	}
}

// CloneDays deep-copies the plan's day tree for a new instance starting at
// start. Consumed flags and eaten totals never carry over: every cloned food
// starts unconsumed and every cloned day's eaten total is zero, regardless
// of the source plan's state. The source plan is left untouched.
func (p *Plan) CloneDays(start time.Time) []Day {
	days := make([]Day, len(p.Days))
	for i, src := range p.Days {
		day := Day{
			Name:      src.Name,
			StartDate: start.AddDate(0, 0, i),
			DayMacros: src.DayMacros,
			Meals:     make([]Meal, len(src.Meals)),
		}
		for j, srcMeal := range src.Meals {
			meal := Meal{
				Name:       srcMeal.Name,
				Type:       srcMeal.Type,
				Note:       srcMeal.Note,
				MealMacros: srcMeal.MealMacros,
				Foods:      make([]FoodEntry, len(srcMeal.Foods)),
			}
			for k, srcFood := range srcMeal.Foods {
				food := srcFood
				food.Consumed = false
				meal.Foods[k] = food
			}
			day.Meals[j] = meal
		}
		days[i] = day
	}
	return days
}
