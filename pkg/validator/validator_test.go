package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Code string `json:"code" validate:"required,region_code"`
	Days int    `json:"days" validate:"min=5"`
}

func TestRegionCodeTag(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(sample{Code: "IN", Days: 10}))
	assert.Error(t, v.Struct(sample{Code: "in", Days: 10}))
	assert.Error(t, v.Struct(sample{Code: "I", Days: 10}))
}

func TestMessageUsesJSONNames(t *testing.T) {
	v := New()

	err := v.Struct(sample{Code: "", Days: 3})
	require.Error(t, err)

	msg := Message(err)
	assert.Contains(t, msg, "code is required")
	assert.Contains(t, msg, "days must be at least 5")
}
