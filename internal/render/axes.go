package render

import (
	"image"
	"math"

	"github.com/dustin/go-humanize"
)

// niceMax rounds v up to 1, 2, 2.5 or 5 times a power of ten, so the
// y axis ends on a round tick. Zero becomes 1.
func niceMax(v int) int {
	if v <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(float64(v))))
	for _, step := range []float64{1, 2, 2.5, 5, 10} {
		if float64(v) <= step*mag {
			return int(math.Ceil(step * mag))
		}
	}
	return v
}

// plot is the data area of a chart together with its value scale.
type plot struct {
	area image.Rectangle
	max  int
}

// y converts a value to a pixel row.
func (p plot) y(v int) int {
	h := p.area.Dy()
	return p.area.Max.Y - int(math.Round(float64(v)/float64(p.max)*float64(h)))
}

// drawValueAxis paints the panel, horizontal grid lines and tick labels.
func drawValueAxis(c *Canvas, p plot, ticks int) {
	c.Rect(p.area, panel)
	if p.max < ticks {
		ticks = p.max
	}
	for i := 0; i <= ticks; i++ {
		v := p.max * i / ticks
		y := p.y(v)
		c.HLine(p.area.Min.X, p.area.Max.X-1, y, gridLine)
		label := humanize.Comma(int64(v))
		c.Text(p.area.Min.X-8, y-TextHeight(1), label, 2, black, AnchorRight)
	}
}
