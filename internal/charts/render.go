package charts

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"genbea/internal/quality"
)

// Image size in pixels, 16:9 to match the report layout.
const (
	ImageWidth  = 1600
	ImageHeight = 900
)

var seriesColors = []drawing.Color{
	drawing.ColorFromHex("636EFA"),
	drawing.ColorFromHex("EF553B"),
	drawing.ColorFromHex("00CC96"),
	drawing.ColorFromHex("AB63FA"),
}

var bandColors = map[quality.Tier]drawing.Color{
	quality.Poor:       drawing.ColorFromHex("FF0000"),
	quality.Acceptable: drawing.ColorFromHex("FFA500"),
	quality.Optimal:    drawing.ColorFromHex("008000"),
	quality.Low:        drawing.ColorFromHex("FFFF00"),
	quality.Medium:     drawing.ColorFromHex("00FFFF"),
	quality.High:       drawing.ColorFromHex("800080"),
}

// bandAlpha is roughly 15% opacity
const bandAlpha = 38

// SeriesColor returns the bar color of the i-th series.
func SeriesColor(i int) drawing.Color {
	return seriesColors[i%len(seriesColors)]
}

// Render rasterizes spec as a grouped bar chart PNG. Bars are grouped by
// category, one per series, with a gap between groups.
func Render(spec *Spec) ([]byte, error) {
	if spec.Empty() {
		return nil, ErrEmptyChart
	}

	yMin, yMax := valueRange(spec)

	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      ImageWidth,
		Height:     ImageHeight,
		BarWidth:   28,
		BarSpacing: 4,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		YAxis: chart.YAxis{
			Name:  spec.YLabel,
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		UseBaseValue: true,
		BaseValue:    math.Max(yMin, 0),
		Bars:         bars(spec, yMin),
	}

	for _, b := range spec.Bands {
		bc.Elements = append(bc.Elements, bandElement(b, yMin, yMax))
	}
	bc.Elements = append(bc.Elements, legendElement(spec.Series))

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}
	return buf.Bytes(), nil
}

// valueRange returns the plotted value range: from zero, or the lowest value
// when negative, to a margin above the highest value or finite band bound.
func valueRange(spec *Spec) (float64, float64) {
	lo, hi := 0.0, math.Inf(-1)
	for _, p := range spec.Points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	for _, b := range spec.Bands {
		if !math.IsInf(b.High, 1) {
			hi = math.Max(hi, b.High)
		}
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi * 1.1
}

// bars lays out the groups. Categories with fewer bars than series keep
// their width with invisible bars so groups stay aligned.
func bars(spec *Spec, base float64) []chart.Value {
	byCategory := make(map[string][]Point, len(spec.Categories))
	for _, p := range spec.Points {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	invisible := chart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent}

	var out []chart.Value
	for gi, cat := range spec.Categories {
		if gi > 0 {
			out = append(out, chart.Value{Value: base, Style: invisible})
		}

		var group []chart.Value
		for si, series := range spec.Series {
			found := false
			for _, p := range byCategory[cat] {
				if p.Series != series {
					continue
				}
				found = true
				color := SeriesColor(si)
				group = append(group, chart.Value{
					Value: p.Value,
					Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
				})
			}
			if !found {
				group = append(group, chart.Value{Value: base, Style: invisible})
			}
		}
		group[len(group)/2].Label = cat
		out = append(out, group...)
	}
	return out
}

// bandElement shades the value range of a quality band across the plot.
func bandElement(b quality.Band, yMin, yMax float64) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, _ chart.Style) {
		lo := math.Max(b.Low, yMin)
		hi := math.Min(b.High, yMax)
		if hi <= lo {
			return
		}
		toY := func(v float64) int {
			return canvas.Bottom - int(math.Ceil((v-yMin)/(yMax-yMin)*float64(canvas.Height())))
		}
		color := bandColors[b.Tier]
		chart.Draw.Box(r, chart.Box{
			Top:    toY(hi),
			Left:   canvas.Left,
			Right:  canvas.Right,
			Bottom: toY(lo),
		}, chart.Style{
			FillColor:   color.WithAlpha(bandAlpha),
			StrokeColor: color.WithAlpha(bandAlpha * 2),
			StrokeWidth: 0.5,
		})
	}
}

// legendElement lists the series with their colors in the top right corner
// of the plot.
func legendElement(series []string) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, defaults chart.Style) {
		if len(series) == 0 {
			return
		}
		text := chart.Style{
			Font:      defaults.Font,
			FontSize:  10,
			FontColor: chart.DefaultTextColor,
		}

		const swatch, gap, pad = 12, 6, 8
		width, lineHeight := 0, swatch
		for _, s := range series {
			tb := chart.Draw.MeasureText(r, s, text)
			width = max(width, tb.Width())
			lineHeight = max(lineHeight, tb.Height())
		}

		box := chart.Box{
			Top:   canvas.Top + pad,
			Right: canvas.Right - pad,
		}
		box.Left = box.Right - (pad*2 + swatch + gap + width)
		box.Bottom = box.Top + pad*2 + len(series)*(lineHeight+gap) - gap

		chart.Draw.Box(r, box, chart.Style{
			FillColor:   drawing.ColorWhite.WithAlpha(220),
			StrokeColor: chart.DefaultAxisColor,
			StrokeWidth: 1,
		})

		y := box.Top + pad
		for i, s := range series {
			color := SeriesColor(i)
			chart.Draw.Box(r, chart.Box{
				Top:    y,
				Left:   box.Left + pad,
				Right:  box.Left + pad + swatch,
				Bottom: y + swatch,
			}, chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1})
			chart.Draw.Text(r, s, box.Left+pad+swatch+gap, y+lineHeight, text)
			y += lineHeight + gap
		}
	}
}
