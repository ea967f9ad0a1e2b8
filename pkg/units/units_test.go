package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Units
	}{
		{"mm", Millimetres},
		{"", Millimetres},
		{"Metric", Millimetres},
		{"inch", Inches},
		{" in ", Inches},
		{"imperial", Inches},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("furlongs")
	assert.Error(t, err)
}

func TestConversion(t *testing.T) {
	assert.InDelta(t, 1.0, Inches.FromInternal(25.4), 1e-12)
	assert.InDelta(t, 50.8, Inches.ToInternal(2), 1e-12)
	assert.Equal(t, 7.5, Millimetres.FromInternal(7.5))

	var unset Units
	assert.Equal(t, 3.0, unset.FromInternal(3.0), "zero factor behaves as millimetres")
	assert.True(t, unset.IsMetric())
	assert.False(t, Inches.IsMetric())
}

func TestString(t *testing.T) {
	assert.Equal(t, "mm", Millimetres.String())
	assert.Equal(t, "inch", Inches.String())
	assert.Equal(t, "Units(10)", Units(10).String())
}
