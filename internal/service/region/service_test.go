package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi-platform/admin-api/internal/config"
	"github.com/epi-platform/admin-api/internal/model"
	apperrors "github.com/epi-platform/admin-api/pkg/errors"
)

func testRegions() []model.Region {
	return []model.Region{
		{Code: "IN", Name: "India", Currency: "INR"},
		{Code: "US", Name: "United States", Currency: "USD"},
		{Code: "ae", Name: "United Arab Emirates", Currency: "AED"},
	}
}

func TestRegistryKeepsOrder(t *testing.T) {
	svc, err := NewService(testRegions())
	require.NoError(t, err)

	assert.Equal(t, []string{"IN", "US", "AE"}, svc.Codes())
	assert.Len(t, svc.List(), 3)
}

func TestRegistryLookup(t *testing.T) {
	svc, err := NewService(testRegions())
	require.NoError(t, err)

	r, ok := svc.Get(" us ")
	require.True(t, ok)
	assert.Equal(t, "USD", r.Currency)

	assert.True(t, svc.Has("AE"))
	assert.False(t, svc.Has("FR"))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewService([]model.Region{{Code: "IN"}, {Code: "in"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewService([]model.Region{{Code: " "}})
	require.Error(t, err)
}

func TestListIsACopy(t *testing.T) {
	svc, err := NewService(testRegions())
	require.NoError(t, err)

	list := svc.List()
	list[0].Name = "changed"

	r, _ := svc.Get("IN")
	assert.Equal(t, "India", r.Name)
}

func TestValidate(t *testing.T) {
	svc, err := FromConfig([]config.RegionConfig{{Code: "IN"}, {Code: "US"}})
	require.NoError(t, err)

	assert.NoError(t, svc.Validate("IN", "US"))

	err = svc.Validate("IN", "FR")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}
