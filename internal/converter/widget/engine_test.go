package widget

import (
	"errors"
	"github.com/langowen/converter/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]float64{
		"10":     10,
		"0.5":    0.5,
		" 7.25 ": 7.25,
		"1e3":    1000,
	}
	for text, want := range valid {
		got, err := ParseAmount(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}

	for _, text := range []string{"", " ", "-5", "0", "-0", "abc", "10abc", "NaN", "+Inf"} {
		_, err := ParseAmount(text)
		assert.True(t, errors.Is(err, entities.ErrValidation), text)
	}
}

func TestConvert(t *testing.T) {
	rates := table("USD", map[string]float64{"AFN": 87.5})

	conv, err := Convert(10, rates, "AFN")
	require.NoError(t, err)
	assert.Equal(t, entities.Conversion{Amount: 10, From: "USD", To: "AFN", Rate: 87.5, Value: 875}, conv)

	_, err = Convert(10, rates, "ZZZ")
	assert.True(t, errors.Is(err, entities.ErrRateUnavailable))
	assert.Equal(t, entities.KindRateUnavailable, entities.KindOf(err))

	_, err = Convert(10, nil, "AFN")
	assert.True(t, errors.Is(err, entities.ErrRateUnavailable))
}

func TestConvert_Overflow(t *testing.T) {
	rates := table("USD", map[string]float64{"AFN": 87.5, "EUR": 0.5})

	conv, err := Convert(1e308, rates, "AFN")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrValidation))
	assert.Equal(t, "The converted amount is too large.", entities.UserMessage(err))
	assert.Equal(t, entities.Conversion{}, conv)

	conv, err = Convert(1e308, rates, "EUR")
	require.NoError(t, err)
	assert.Equal(t, 5e307, conv.Value)
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "875.00 AFN", FormatResult(entities.Conversion{Value: 875, To: "AFN"}))
	assert.Equal(t, "0.33 EUR", FormatResult(entities.Conversion{Value: 1.0 / 3, To: "EUR"}))
	assert.Equal(t, "1234567.89 JPY", FormatResult(entities.Conversion{Value: 1234567.891, To: "JPY"}))
	assert.Equal(t, "1.01 USD", FormatResult(entities.Conversion{Value: 1.005, To: "USD"}))

	assert.NotPanics(t, func() {
		assert.Equal(t, "+Inf AFN", FormatResult(entities.Conversion{Value: math.Inf(1), To: "AFN"}))
		assert.Equal(t, "NaN AFN", FormatResult(entities.Conversion{Value: math.NaN(), To: "AFN"}))
	})
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "USD", NormalizeCode("usd"))
	assert.Equal(t, "EUR", NormalizeCode("eUr"))
	assert.Equal(t, "", NormalizeCode(""))
	assert.Equal(t, "NOT A CODE", NormalizeCode("not a code"))
}
