package charts

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genbea/internal/filter"
	"genbea/internal/quality"
)

func decode(t *testing.T, raw []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRender(t *testing.T) {
	specs := map[string]*Spec{
		"purity with bands": PuritySpec(extraction(), "Codigo", purityColumns, Options{ShowBands: true}),
		"concentration":     ConcentrationSpec(extraction(), "Codigo", "DNA_(ng/uL)", Options{ShowBands: true}),
		"period summary": PeriodSummarySpec("2024", []filter.PeriodSummary{
			{Label: "genbea2024-T1", Complete: 3, Incomplete: 1, Total: 4},
			{Label: "genbea2024-T2", Complete: 5, Incomplete: 0, Total: 5},
		}),
	}

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			raw, err := Render(spec)
			require.NoError(t, err)

			w, h := decode(t, raw)
			assert.Equal(t, ImageWidth, w)
			assert.Equal(t, ImageHeight, h)
		})
	}
}

func TestRender_AllZeroValues(t *testing.T) {
	spec := PeriodSummarySpec("2024", []filter.PeriodSummary{{Label: "genbea2024-T1"}})

	raw, err := Render(spec)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestRender_Empty(t *testing.T) {
	_, err := Render(nil)
	assert.ErrorIs(t, err, ErrEmptyChart)

	_, err = Render(PuritySpec(extraction(), "Codigo", purityColumns, Options{Tiers: []quality.Tier{"none"}}))
	assert.ErrorIs(t, err, ErrEmptyChart)
}

func TestValueRange(t *testing.T) {
	spec := &Spec{Points: []Point{{Value: 1.2}, {Value: 1.9}}}
	lo, hi := valueRange(spec)
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 2.09, hi, 1e-9)

	spec.Bands = quality.Bands(quality.Purity)
	_, hi = valueRange(spec)
	assert.InDelta(t, 2.53, hi, 1e-9, "finite band bounds stay visible")

	lo, hi = valueRange(&Spec{Points: []Point{{Value: -2}, {Value: 0}}})
	assert.Equal(t, -2.0, lo)
	assert.False(t, math.IsInf(hi, 0))
	assert.Greater(t, hi, lo)
}

func TestBars_GroupsAreAligned(t *testing.T) {
	spec := PuritySpec(extraction(), "Codigo", purityColumns, Options{})
	values := bars(spec, 0)

	// 3 groups of 2 bars plus 2 separators
	require.Len(t, values, 8)
	assert.Equal(t, "AAAAAAAA01", values[1].Label)
	assert.Equal(t, 0.0, values[2].Value, "separator")
	assert.Equal(t, 0.0, values[6].Value, "missing 260/230 keeps its slot")
	assert.Equal(t, 1.79, values[7].Value)
}
