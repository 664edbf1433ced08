package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Purity(t *testing.T) {
	tests := []struct {
		value float64
		want  Tier
	}{
		{value: 1.79, want: Acceptable},
		{value: 1.80, want: Optimal},
		{value: 2.0, want: Optimal},
		{value: 2.0000001, want: Acceptable},
		{value: 2.30, want: Acceptable},
		{value: 2.31, want: Poor},
		{value: 1.5, want: Acceptable},
		{value: 1.4999, want: Poor},
		{value: 0, want: Poor},
		{value: -3, want: Poor},
		{value: math.Inf(1), want: Poor},
	}

	for _, tt := range tests {
		got, ok := Classify(Purity, tt.value)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "purity %v", tt.value)
	}
}

func TestClassify_Concentration(t *testing.T) {
	tests := []struct {
		value float64
		want  Tier
	}{
		{value: 19.99, want: Low},
		{value: 20, want: Medium},
		{value: 35, want: Medium},
		{value: 50, want: Medium},
		{value: 50.01, want: High},
		{value: -1, want: Low},
		{value: 1e9, want: High},
	}

	for _, tt := range tests {
		got, ok := Classify(Concentration, tt.value)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "concentration %v", tt.value)
	}
}

func TestClassify_ExhaustiveAndExclusive(t *testing.T) {
	for _, m := range []Metric{Purity, Concentration} {
		for v := -5.0; v <= 80; v += 0.005 {
			tier, ok := Classify(m, v)
			require.True(t, ok, "%s %v", m, v)

			matches := 0
			for _, candidate := range m.Tiers() {
				if candidate == tier {
					matches++
				}
			}
			assert.Equal(t, 1, matches, "%s %v", m, v)
		}
	}
}

func TestClassify_Absent(t *testing.T) {
	_, ok := Classify(Purity, math.NaN())
	assert.False(t, ok)

	_, ok = Classify(Metric("ph"), 7)
	assert.False(t, ok)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "1.85", want: 1.85, ok: true},
		{in: " 2 ", want: 2, ok: true},
		{in: "1,85", want: 1.85, ok: true},
		{in: "1e2", want: 100, ok: true},
		{in: "", ok: false},
		{in: "n/a", ok: false},
		{in: "NaN", ok: false},
		{in: "inf", ok: false},
		{in: "1.000,5", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseValue(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestClassifyString(t *testing.T) {
	v, tier, ok := ClassifyString(Concentration, "20,0")
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)
	assert.Equal(t, Medium, tier)

	_, _, ok = ClassifyString(Concentration, "pendiente")
	assert.False(t, ok)
}

func TestAccept(t *testing.T) {
	for _, tier := range Purity.Tiers() {
		assert.True(t, Accept(Purity, nil, tier), "empty selection shows %s", tier)
	}

	selected := []Tier{Optimal, Poor}
	assert.True(t, Accept(Purity, selected, Optimal))
	assert.True(t, Accept(Purity, selected, Poor))
	assert.False(t, Accept(Purity, selected, Acceptable))

	assert.False(t, Accept(Concentration, nil, Optimal), "tier of another metric")
}

func TestParseTiers(t *testing.T) {
	got, err := ParseTiers(Concentration, []string{"low", " HIGH ", "low"})
	require.NoError(t, err)
	assert.Equal(t, []Tier{Low, High}, got)

	got, err = ParseTiers(Purity, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseTiers(Purity, []string{"low"})
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("Purity")
	require.NoError(t, err)
	assert.Equal(t, Purity, m)

	_, err = ParseMetric("ph")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestBands(t *testing.T) {
	purity := Bands(Purity)
	require.Len(t, purity, 3)
	assert.Equal(t, Optimal, purity[2].Tier)
	assert.Equal(t, PurityOptimalMin, purity[2].Low)
	assert.True(t, math.IsInf(purity[0].High, 1))

	conc := Bands(Concentration)
	require.Len(t, conc, 3)
	assert.Equal(t, ConcentrationMediumMax, conc[1].High)
	assert.Nil(t, Bands(Metric("ph")))

	assert.Equal(t, "Óptimo", Optimal.Label())
	assert.Equal(t, "other", Tier("other").Label())
}
