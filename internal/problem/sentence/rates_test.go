package sentence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRatesValidate(t *testing.T) {
	r := DefaultRates()
	assert.NoError(t, r.Validate(false))
	assert.NoError(t, r.Validate(true))
}

func TestDefaultWordTableSumsToOne(t *testing.T) {
	table, err := DefaultRates().WordTable()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, table.Total(), 1e-9)
	assert.True(t, table.AddsUpStrict(1e-9))
}

func TestWordTableFollowsDeclarationOrder(t *testing.T) {
	r := Rates{WordType: map[string]float64{"conjunction": 0.5, "noun": 0.5}}
	table, err := r.WordTable()
	require.NoError(t, err)

	require.Len(t, table, len(Categories()))
	assert.Equal(t, Noun, table[0].Category)
	assert.Equal(t, 0.5, table[0].Rate)
	assert.Equal(t, Conjunction, table[len(table)-1].Category)
	assert.Equal(t, 0.0, table[1].Rate)
}

func TestFloorCheckIsLenient(t *testing.T) {
	r := Rates{WordType: map[string]float64{"noun": 0.9, "verb": 0.9}}
	assert.NoError(t, r.Validate(false), "floor(1.8) is 1")

	err := r.Validate(true)
	var rateErr *RateError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "word_type", rateErr.Table)

	r.WordType["adverb"] = 0.3
	assert.Error(t, r.Validate(false), "floor(2.1) is 2")
}

func TestRatesRejectBadKeys(t *testing.T) {
	r := DefaultRates()
	r.NounType = map[string]float64{"plural": 0.5, "past": 0.5}
	err := r.Validate(false)
	var rateErr *RateError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "noun_type", rateErr.Table)

	r = DefaultRates()
	r.WordType["pronoun"] = 0.1
	assert.Error(t, r.Validate(false))
}

func TestRatesRejectNegativeAndEmpty(t *testing.T) {
	r := DefaultRates()
	r.VerbType["past"] = -0.1
	assert.Error(t, r.Validate(false))

	r = DefaultRates()
	r.WordType = nil
	assert.Error(t, r.Validate(false))
}
