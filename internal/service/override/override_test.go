package override

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi-platform/admin-api/internal/model"
	apperrors "github.com/epi-platform/admin-api/pkg/errors"
)

func regions() []model.Region {
	return []model.Region{
		{Code: "IN", Name: "India", Currency: "INR"},
		{Code: "US", Name: "United States", Currency: "USD"},
		{Code: "AE", Name: "United Arab Emirates", Currency: "AED"},
	}
}

func boolPtr(b bool) *bool { return &b }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCoerce(t *testing.T) {
	assert.True(t, Decimal("12.50").Equal(dec("12.5")))
	assert.True(t, Decimal("abc").IsZero())
	assert.True(t, Decimal("").IsZero())
	assert.True(t, Decimal("-4").IsZero())

	assert.Equal(t, 7, Int("7"))
	assert.Equal(t, 5, Int("5.9"))
	assert.Equal(t, 0, Int("lots"))

	assert.Equal(t, []string{"phone", "android", "5g"}, Keywords(" phone, android ,, 5g,"))
	assert.Empty(t, Keywords(" , "))
}

func TestIntRejectsOutOfRangeQuantities(t *testing.T) {
	assert.Equal(t, 12, Int("12.7"))
	assert.Equal(t, 2147483647, Int("2147483647"))
	assert.Equal(t, 0, Int("2147483648"))
	assert.Equal(t, 0, Int("18446744073709551617"))
	assert.Equal(t, 0, Int("99999999999999999999"))
	assert.Equal(t, 0, Int("1e30"))
}

func TestFormValueAcceptsNumbersAndStrings(t *testing.T) {
	var in model.RegionRowInput
	err := json.Unmarshal([]byte(`{"region":"IN","stockQuantity":5,"price":"12.5","salePrice":null}`), &in)
	require.NoError(t, err)

	assert.Equal(t, 5, Int(in.StockQuantity))
	assert.True(t, Decimal(in.Price).Equal(dec("12.5")))
	assert.True(t, Decimal(in.SalePrice).IsZero())
}

func TestToggleKeepsValues(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Toggle("US", true))
	require.NoError(t, e.Set("US", model.RegionRowInput{Price: "20", MetaTitle: "US title"}))

	require.NoError(t, e.Toggle("US", false))
	assert.False(t, e.FieldsEditable("US"))

	row, ok := e.Row("US")
	require.True(t, ok)
	assert.True(t, row.Price.Equal(dec("20")))
	assert.Equal(t, "US title", row.MetaTitle)

	require.NoError(t, e.Toggle("US", true))
	assert.True(t, e.FieldsEditable("US"))
	row, _ = e.Row("US")
	assert.True(t, row.Price.Equal(dec("20")))
}

func TestSetRejectsDisabledAndUnknownRows(t *testing.T) {
	e := NewEditor(regions())

	err := e.Set("IN", model.RegionRowInput{Price: "10"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))

	assert.Error(t, e.Toggle("FR", true))
	assert.False(t, e.FieldsEditable("FR"))
}

func TestEnabledCodesFollowRegistryOrder(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Toggle("AE", true))
	require.NoError(t, e.Toggle("in", true))

	assert.Equal(t, []string{"IN", "AE"}, e.EnabledCodes())
	assert.Len(t, e.Rows(), 3)
}

func TestApplyRejectsDuplicateRegions(t *testing.T) {
	e := NewEditor(regions())
	err := e.Apply([]model.RegionRowInput{
		{Region: "IN", Enabled: true},
		{Region: "in", Enabled: false},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

// Regular price 1000, no sale price, IN checked with stock 5, US unchecked
// with a cached price of 20.
func TestCollectExampleScenario(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Apply([]model.RegionRowInput{
		{Region: "IN", Enabled: true, StockQuantity: "5"},
		{Region: "US", Enabled: false, Price: "20"},
	}))

	out, err := Collect(e, Base{RegularPrice: dec("1000")}, Options{LowStockThreshold: 3})
	require.NoError(t, err)

	require.Len(t, out.RegionalPricing, 1)
	p := out.RegionalPricing[0]
	assert.Equal(t, "IN", p.Region)
	assert.True(t, p.RegularPrice.Equal(dec("1000")))
	assert.True(t, p.SalePrice.Equal(dec("1000")))
	assert.True(t, p.FinalPrice.Equal(dec("1000")))

	assert.Equal(t, []model.RegionalAvailability{{
		Region:        "IN",
		StockQuantity: 5,
		IsAvailable:   true,
		StockStatus:   model.StockStatusInStock,
	}}, out.RegionalAvailability)

	assert.Empty(t, out.RegionalSeo)

	row, _ := e.Row("US")
	assert.True(t, row.Price.Equal(dec("20")), "unchecked values stay in the editor")
}

func TestFinalPrice(t *testing.T) {
	cases := []struct {
		regular, sale, want string
	}{
		{"100", "80", "80"},
		{"100", "0", "100"},
		{"100", "-5", "100"},
		{"0", "0", "0"},
		{"49.99", "120", "120"},
	}
	for _, c := range cases {
		got := model.FinalPrice(dec(c.regular), dec(c.sale))
		assert.True(t, got.Equal(dec(c.want)), "regular=%s sale=%s got %s", c.regular, c.sale, got)
	}
}

func TestCollectedFinalPriceMatchesSale(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Apply([]model.RegionRowInput{
		{Region: "IN", Enabled: true, Price: "500", SalePrice: "450", StockQuantity: "10"},
		{Region: "US", Enabled: true, StockQuantity: "10"},
		{Region: "AE", Enabled: true, Price: "300", StockQuantity: "10"},
	}))

	out, err := Collect(e, Base{RegularPrice: dec("1000"), SalePrice: dec("900")}, Options{})
	require.NoError(t, err)
	require.Len(t, out.RegionalPricing, 3)

	for _, p := range out.RegionalPricing {
		if p.SalePrice.IsPositive() {
			assert.True(t, p.FinalPrice.Equal(p.SalePrice), p.Region)
		} else {
			assert.True(t, p.FinalPrice.Equal(p.RegularPrice), p.Region)
		}
	}

	assert.True(t, out.RegionalPricing[0].FinalPrice.Equal(dec("450")))
	assert.True(t, out.RegionalPricing[1].FinalPrice.Equal(dec("900")))
	assert.True(t, out.RegionalPricing[2].RegularPrice.Equal(dec("300")))
	assert.True(t, out.RegionalPricing[2].FinalPrice.Equal(dec("300")))
}

func TestUnavailableRowsAreOutOfStock(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Apply([]model.RegionRowInput{
		{Region: "IN", Enabled: true, IsAvailable: boolPtr(false), StockQuantity: "42"},
		{Region: "US", Enabled: true, IsAvailable: boolPtr(false), StockQuantity: "garbage"},
	}))

	out, err := Collect(e, Base{RegularPrice: dec("10")}, Options{})
	require.NoError(t, err)
	require.Len(t, out.RegionalAvailability, 2)

	for _, a := range out.RegionalAvailability {
		assert.False(t, a.IsAvailable)
		assert.Zero(t, a.StockQuantity)
		assert.Equal(t, model.StockStatusOutOfStock, a.StockStatus)
	}
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, model.StockStatusLowStock, StockStatus(true, 0, 3))
	assert.Equal(t, model.StockStatusLowStock, StockStatus(true, 1, 3))
	assert.Equal(t, model.StockStatusLowStock, StockStatus(true, 3, 3))
	assert.Equal(t, model.StockStatusInStock, StockStatus(true, 4, 3))
	assert.Equal(t, model.StockStatusOutOfStock, StockStatus(false, 100, 3))
}

func TestAvailableWithZeroStockIsIncluded(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Apply([]model.RegionRowInput{
		{Region: "IN", Enabled: true, IsAvailable: boolPtr(true), StockQuantity: "0"},
	}))

	out, err := Collect(e, Base{RegularPrice: dec("10")}, Options{LowStockThreshold: 3})
	require.NoError(t, err)
	require.Len(t, out.RegionalAvailability, 1)
	assert.True(t, out.RegionalAvailability[0].IsAvailable)
	assert.Zero(t, out.RegionalAvailability[0].StockQuantity)
	assert.Equal(t, model.StockStatusLowStock, out.RegionalAvailability[0].StockStatus)
	assert.Len(t, LowStock(out), 1)
}

func TestGlobalEntityClearsRegionalArrays(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Apply([]model.RegionRowInput{
		{Region: "IN", Enabled: true, Price: "10", StockQuantity: "5", MetaTitle: "t"},
		{Region: "US", Enabled: true, Price: "20", StockQuantity: "5"},
	}))

	out, err := Collect(e, Base{RegularPrice: dec("10"), IsGlobal: true}, Options{RequireRegion: true})
	require.NoError(t, err)

	assert.NotNil(t, out.RegionalPricing)
	assert.Empty(t, out.RegionalPricing)
	assert.Empty(t, out.RegionalAvailability)
	assert.Empty(t, out.RegionalSeo)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"regionalPricing":[],"regionalAvailability":[],"regionalSeo":[]}`, string(body))
}

func TestRequireRegion(t *testing.T) {
	e := NewEditor(regions())

	_, err := Collect(e, Base{RegularPrice: dec("10")}, Options{RequireRegion: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))

	_, err = Collect(e, Base{RegularPrice: dec("10")}, Options{})
	assert.NoError(t, err)
}

func TestSeoRecords(t *testing.T) {
	e := NewEditor(regions())
	require.NoError(t, e.Apply([]model.RegionRowInput{
		{Region: "IN", Enabled: true, MetaTitle: " Phones ", Keywords: "a, b,,c"},
		{Region: "US", Enabled: true, MetaTitle: " ", MetaDescription: ""},
	}))

	out, err := Collect(e, Base{RegularPrice: dec("10")}, Options{})
	require.NoError(t, err)

	require.Len(t, out.RegionalSeo, 1)
	assert.Equal(t, model.RegionalSeo{
		Region:    "IN",
		MetaTitle: "Phones",
		Keywords:  []string{"a", "b", "c"},
	}, out.RegionalSeo[0])
}

func TestLoadExistingOverrides(t *testing.T) {
	e := NewEditor(regions())
	e.Load(model.Regional{
		RegionalPricing:      []model.RegionalPricing{{Region: "US", RegularPrice: dec("20"), SalePrice: dec("15")}},
		RegionalAvailability: []model.RegionalAvailability{{Region: "US", StockQuantity: 2, IsAvailable: true}},
		RegionalSeo:          []model.RegionalSeo{{Region: "US", MetaTitle: "t", Keywords: []string{"x", "y"}}, {Region: "ZZ"}},
	})

	assert.Equal(t, []string{"US"}, e.EnabledCodes())
	row, _ := e.Row("US")
	assert.Equal(t, 2, row.StockQuantity)
	assert.Equal(t, "x, y", row.Keywords)

	out, err := Collect(e, Base{}, Options{LowStockThreshold: 3})
	require.NoError(t, err)
	assert.Equal(t, []model.RegionalAvailability{{
		Region: "US", StockQuantity: 2, IsAvailable: true, StockStatus: model.StockStatusLowStock,
	}}, out.RegionalAvailability)
	assert.Len(t, LowStock(out), 1)
}
