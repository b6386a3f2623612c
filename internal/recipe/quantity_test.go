package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	// Plain numbers
	assert.Equal(t, 2.0, *ParseQuantity("2"))
	assert.Equal(t, 0.5, *ParseQuantity("0.5"))
	assert.Equal(t, 3.0, *ParseQuantity(" 3 "))

	// Fractions
	assert.Equal(t, 0.5, *ParseQuantity("1/2"))
	assert.Equal(t, 0.75, *ParseQuantity("3/4"))
	assert.Equal(t, 0.5, *ParseQuantity("½"))
	assert.InDelta(t, 1.0/3, *ParseQuantity("⅓"), 1e-9)

	// Mixed numbers
	assert.Equal(t, 1.5, *ParseQuantity("1 1/2"))
	assert.Equal(t, 2.25, *ParseQuantity("2 ¼"))

	// Trailing unit text
	assert.Equal(t, 2.0, *ParseQuantity("2 cups"))
	assert.Equal(t, 1.5, *ParseQuantity("1 1/2 tbsp"))
}

func TestParseQuantity_Qualitative(t *testing.T) {
	assert.Nil(t, ParseQuantity(""))
	assert.Nil(t, ParseQuantity("to taste"))
	assert.Nil(t, ParseQuantity("To Taste"))
	assert.Nil(t, ParseQuantity("pinch"))
	assert.Nil(t, ParseQuantity("some"))
	assert.Nil(t, ParseQuantity("a little"))
}

func TestParseQuantity_Garbage(t *testing.T) {
	assert.Nil(t, ParseQuantity("plenty"))
	assert.Nil(t, ParseQuantity("1/0"))
	assert.Nil(t, ParseQuantity("cups"))
}
