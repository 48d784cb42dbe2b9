package plan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi-platform/admin-api/internal/model"
	apperrors "github.com/epi-platform/admin-api/pkg/errors"
)

func filledDefaults(perDay int64) []model.Plan {
	plans := DefaultPlans()
	for i := range plans {
		plans[i].PerDayAmount = decimal.NewFromInt(perDay)
	}
	return Recalculate(plans)
}

func TestDefaultPlans(t *testing.T) {
	plans := DefaultPlans()
	require.Len(t, plans, 3)

	assert.Equal(t, "10-Day Plan", plans[0].Name)
	assert.Equal(t, 20, plans[1].Days)
	assert.True(t, plans[1].IsRecommended)
	assert.False(t, plans[0].IsRecommended)
	for _, p := range plans {
		assert.True(t, p.IsLocked)
		assert.True(t, p.PerDayAmount.IsZero())
	}
}

func TestCalculate(t *testing.T) {
	assert.True(t, Calculate(10, decimal.NewFromInt(50)).Equal(decimal.NewFromInt(500)))
	assert.True(t, Calculate(7, decimal.RequireFromString("55.5")).Equal(decimal.RequireFromString("388.5")))
	assert.True(t, Calculate(0, decimal.NewFromInt(99)).IsZero())
}

func TestRecalculateDoesNotMutateInput(t *testing.T) {
	in := []model.Plan{{Days: 10, PerDayAmount: decimal.NewFromInt(60), TotalAmount: decimal.NewFromInt(1)}}
	out := Recalculate(in)

	assert.True(t, out[0].TotalAmount.Equal(decimal.NewFromInt(600)))
	assert.True(t, in[0].TotalAmount.Equal(decimal.NewFromInt(1)))
}

func TestEffectivePrice(t *testing.T) {
	assert.True(t, EffectivePrice(decimal.NewFromInt(1000), decimal.Zero).Equal(decimal.NewFromInt(1000)))
	assert.True(t, EffectivePrice(decimal.NewFromInt(1000), decimal.NewFromInt(800)).Equal(decimal.NewFromInt(800)))
}

func TestSyncName(t *testing.T) {
	p := model.Plan{Days: 15}
	SyncName(&p)
	assert.Equal(t, "15-Day Plan", p.Name)

	p.Days = 45
	SyncName(&p)
	assert.Equal(t, "45-Day Plan", p.Name)

	p.Name = "Festive offer"
	p.Days = 60
	SyncName(&p)
	assert.Equal(t, "Festive offer", p.Name)

	locked := DefaultPlans()[0]
	locked.Days = 99
	SyncName(&locked)
	assert.Equal(t, "10-Day Plan", locked.Name)
}

func TestValidateAcceptsFilledDefaults(t *testing.T) {
	assert.NoError(t, Validate(filledDefaults(50)))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(plans []model.Plan) []model.Plan
		wantErr string
	}{
		{
			name:    "no plans",
			mutate:  func([]model.Plan) []model.Plan { return nil },
			wantErr: "at least one installment plan",
		},
		{
			name: "tampered total",
			mutate: func(p []model.Plan) []model.Plan {
				p[0].TotalAmount = decimal.NewFromInt(1)
				return p
			},
			wantErr: "does not equal",
		},
		{
			name: "per-day below minimum",
			mutate: func(p []model.Plan) []model.Plan {
				p[2].PerDayAmount = decimal.NewFromInt(49)
				return Recalculate(p)
			},
			wantErr: "plan 3 (30-Day Plan): per-day amount must be at least 50",
		},
		{
			name: "too few days",
			mutate: func(p []model.Plan) []model.Plan {
				return append(p, model.Plan{Name: "Short", Days: 4, PerDayAmount: decimal.NewFromInt(100), TotalAmount: decimal.NewFromInt(400)})
			},
			wantErr: "days must be at least 5",
		},
		{
			name: "blank name",
			mutate: func(p []model.Plan) []model.Plan {
				return append(p, model.Plan{Name: "  ", Days: 12, PerDayAmount: decimal.NewFromInt(100), TotalAmount: decimal.NewFromInt(1200)})
			},
			wantErr: "name is required",
		},
		{
			name: "no recommended plan",
			mutate: func(p []model.Plan) []model.Plan {
				p[1].IsRecommended = false
				return p
			},
			wantErr: "exactly one plan must be recommended, got 0",
		},
		{
			name: "two recommended plans",
			mutate: func(p []model.Plan) []model.Plan {
				p[0].IsRecommended = true
				return p
			},
			wantErr: "got 2",
		},
		{
			name: "renamed locked plan",
			mutate: func(p []model.Plan) []model.Plan {
				p[0].Name = "Ten days"
				return p
			},
			wantErr: "locked plans",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mutate(filledDefaults(60)))
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAcceptsCustomPlan(t *testing.T) {
	plans := filledDefaults(75)
	custom := model.Plan{Days: 45, PerDayAmount: decimal.NewFromInt(55)}
	SyncName(&custom)
	plans = Recalculate(append(plans, custom))

	require.NoError(t, Validate(plans))
	assert.True(t, plans[3].TotalAmount.Equal(decimal.NewFromInt(2475)))
}
