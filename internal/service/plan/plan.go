package plan

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/errors"
)

const (
	MinDays = 5

	recommendedDays = 20
)

var (
	MinPerDayAmount = decimal.NewFromInt(50)

	defaultDays  = []int{10, 20, 30}
	autoNameExpr = regexp.MustCompile(`^\d+-Day Plan$`)
)

// EffectivePrice is the price installments are planned against.
func EffectivePrice(regular, sale decimal.Decimal) decimal.Decimal {
	return model.FinalPrice(regular, sale)
}

func Calculate(days int, perDay decimal.Decimal) decimal.Decimal {
	return perDay.Mul(decimal.NewFromInt(int64(days)))
}

// Recalculate returns a copy of plans with every total recomputed.
func Recalculate(plans []model.Plan) []model.Plan {
	out := make([]model.Plan, len(plans))
	for i, p := range plans {
		p.TotalAmount = Calculate(p.Days, p.PerDayAmount)
		out[i] = p
	}
	return out
}

func Name(days int) string {
	return fmt.Sprintf("%d-Day Plan", days)
}

// DefaultPlans seeds a new product. Names and days are locked; the admin
// only fills in the per-day amount.
func DefaultPlans() []model.Plan {
	plans := make([]model.Plan, 0, len(defaultDays))
	for _, d := range defaultDays {
		plans = append(plans, model.Plan{
			Name:          Name(d),
			Days:          d,
			PerDayAmount:  decimal.Zero,
			TotalAmount:   decimal.Zero,
			IsRecommended: d == recommendedDays,
			IsLocked:      true,
		})
	}
	return plans
}

// SyncName keeps a custom plan's name in step with its days until the admin
// types a name of their own.
func SyncName(p *model.Plan) {
	if p.IsLocked {
		return
	}
	name := strings.TrimSpace(p.Name)
	if name == "" || autoNameExpr.MatchString(name) {
		p.Name = Name(p.Days)
	}
}

// Validate checks plans before a save. Totals are recomputed, never trusted.
func Validate(plans []model.Plan) error {
	if len(plans) == 0 {
		return errors.BadRequest("at least one installment plan is required", nil)
	}

	recommended := 0
	for i, p := range plans {
		if err := validatePlan(p); err != nil {
			return errors.BadRequest(fmt.Sprintf("plan %d (%s): %s", i+1, label(p), err), nil)
		}
		if p.IsRecommended {
			recommended++
		}
	}

	if recommended != 1 {
		return errors.BadRequest(
			fmt.Sprintf("exactly one plan must be recommended, got %d", recommended), nil)
	}
	return nil
}

func validatePlan(p model.Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.Days < MinDays {
		return fmt.Errorf("days must be at least %d", MinDays)
	}
	if p.PerDayAmount.LessThan(MinPerDayAmount) {
		return fmt.Errorf("per-day amount must be at least %s", MinPerDayAmount)
	}
	if want := Calculate(p.Days, p.PerDayAmount); !p.TotalAmount.Equal(want) {
		return fmt.Errorf("total amount %s does not equal %d x %s", p.TotalAmount, p.Days, p.PerDayAmount)
	}
	if p.IsLocked && (!isDefaultDays(p.Days) || p.Name != Name(p.Days)) {
		return fmt.Errorf("locked plans cannot be renamed or resized")
	}
	return nil
}

func isDefaultDays(days int) bool {
	for _, d := range defaultDays {
		if d == days {
			return true
		}
	}
	return false
}

func label(p model.Plan) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return Name(p.Days)
}
