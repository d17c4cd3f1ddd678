package render

import (
	"fmt"
	"image"
	"math"

	"shooting_stats/internal/report"
	"shooting_stats/internal/stats"
)

const (
	titleScale = 3
	labelScale = 2
	margin     = 40
)

func drawTitle(c *Canvas, title string) int {
	w := c.img.Bounds().Dx()
	c.Text(w/2, margin/2, title, titleScale, black, AnchorCenter)
	return margin/2 + TextHeight(titleScale) + margin/2
}

func drawNoData(c *Canvas, top int) {
	b := c.img.Bounds()
	c.Text(b.Dx()/2, top+(b.Dy()-top)/2, "No data", labelScale, gray, AnchorCenter)
}

// Pie draws a pie chart with a percentage label on every slice. Slices start
// at three o'clock and run counter-clockwise in series order.
func Pie(s stats.Series, chart report.Chart) *Canvas {
	const size = 720
	c := NewCanvas(size, size, white)
	top := drawTitle(c, chart.Title)
	total := s.Sum()
	if len(s) == 0 || total <= 0 {
		drawNoData(c, top)
		return c
	}

	cx := size / 2
	cy := top + (size-top)/2
	radius := float64(size-top)/2 - 70

	bounds := make([]float64, len(s))
	acc := 0.0
	for i, g := range s {
		acc += float64(g.Value) / float64(total) * 2 * math.Pi
		bounds[i] = acc
	}
	ri := int(math.Ceil(radius))
	for y := -ri; y <= ri; y++ {
		for x := -ri; x <= ri; x++ {
			if float64(x*x+y*y) > radius*radius {
				continue
			}
			// screen y grows downward
			angle := math.Atan2(float64(-y), float64(x))
			if angle < 0 {
				angle += 2 * math.Pi
			}
			for i, b := range bounds {
				if angle < b || i == len(bounds)-1 {
					c.set(cx+x, cy+y, SeriesColor(i))
					break
				}
			}
		}
	}

	start := 0.0
	for i, g := range s {
		end := bounds[i]
		if g.Value > 0 {
			mid := (start + end) / 2
			px := cx + int(math.Round(math.Cos(mid)*radius*0.6))
			py := cy - int(math.Round(math.Sin(mid)*radius*0.6))
			pct := fmt.Sprintf("%.1f%%", float64(g.Value)/float64(total)*100)
			c.Text(px, py-TextHeight(labelScale)/2, pct, labelScale, white, AnchorCenter)

			lx := cx + int(math.Round(math.Cos(mid)*(radius+12)))
			ly := cy - int(math.Round(math.Sin(mid)*(radius+12)))
			anchor := AnchorLeft
			if math.Cos(mid) < 0 {
				anchor = AnchorRight
			}
			c.Text(lx, ly-TextHeight(labelScale)/2, g.Key, labelScale, black, anchor)
		}
		start = end
	}
	return c
}

// Bar draws a vertical bar chart with rotated category labels.
func Bar(s stats.Series, chart report.Chart) *Canvas {
	width := 900
	if n := len(s); n > 12 {
		width = 200 + n*40
	}
	const height = 800
	c := NewCanvas(width, height, white)
	top := drawTitle(c, chart.Title)
	if len(s) == 0 {
		drawNoData(c, top)
		return c
	}

	labelSpace := 0
	for _, g := range s {
		if w := TextWidth(g.Key, labelScale); w > labelSpace {
			labelSpace = w
		}
	}
	peak := 0
	for _, g := range s {
		if g.Value > peak {
			peak = g.Value
		}
	}
	area := image.Rect(margin+100, top, width-margin, height-margin-labelSpace-TextHeight(labelScale)-16)
	p := plot{area: area, max: niceMax(peak)}
	drawValueAxis(c, p, 5)
	drawAxisLabels(c, p, chart)

	slot := float64(area.Dx()) / float64(len(s))
	barW := int(slot * 0.5)
	if barW < 1 {
		barW = 1
	}
	for i, g := range s {
		center := area.Min.X + int(slot*(float64(i)+0.5))
		bar := image.Rect(center-barW/2, p.y(g.Value), center-barW/2+barW, area.Max.Y)
		c.Rect(bar, SeriesColor(0))
		c.TextUp(center-TextHeight(labelScale)/2, area.Max.Y+6, g.Key, labelScale, black, AnchorRight)
	}
	return c
}

// GroupedBar draws one cluster per matrix row with a bar per column and a
// legend of column names.
func GroupedBar(m stats.Matrix, chart report.Chart) *Canvas {
	const width, height = 1000, 800
	c := NewCanvas(width, height, white)
	top := drawTitle(c, chart.Title)
	if len(m.Rows) == 0 || len(m.Columns) == 0 {
		drawNoData(c, top)
		return c
	}

	labelSpace := 0
	for _, r := range m.Rows {
		if w := TextWidth(r, labelScale); w > labelSpace {
			labelSpace = w
		}
	}
	peak := 0
	for _, r := range m.Rows {
		for _, col := range m.Columns {
			if v := m.Value(r, col); v > peak {
				peak = v
			}
		}
	}
	area := image.Rect(margin+100, top, width-margin-220, height-margin-labelSpace-TextHeight(labelScale)-16)
	p := plot{area: area, max: niceMax(peak)}
	drawValueAxis(c, p, 5)
	drawAxisLabels(c, p, chart)

	slot := float64(area.Dx()) / float64(len(m.Rows))
	barW := int(slot * 0.7 / float64(len(m.Columns)))
	if barW < 1 {
		barW = 1
	}
	for i, r := range m.Rows {
		center := area.Min.X + int(slot*(float64(i)+0.5))
		left := center - barW*len(m.Columns)/2
		for j, col := range m.Columns {
			if !m.Has(r, col) {
				continue
			}
			x := left + j*barW
			c.Rect(image.Rect(x, p.y(m.Value(r, col)), x+barW, area.Max.Y), SeriesColor(j))
		}
		c.TextUp(center-TextHeight(labelScale)/2, area.Max.Y+6, r, labelScale, black, AnchorRight)
	}

	lx := area.Max.X + 30
	ly := area.Min.Y + 10
	c.Text(lx, ly, chart.Legend, labelScale, black, AnchorLeft)
	for j, col := range m.Columns {
		y := ly + (j+1)*(TextHeight(labelScale)+8)
		c.Rect(image.Rect(lx, y+4, lx+18, y+22), SeriesColor(j))
		c.Text(lx+26, y, col, labelScale, black, AnchorLeft)
	}
	return c
}

func drawAxisLabels(c *Canvas, p plot, chart report.Chart) {
	if chart.YAxis != "" {
		c.TextUp(margin/2-TextHeight(1), p.area.Min.Y+p.area.Dy()/2, chart.YAxis, labelScale, black, AnchorCenter)
	}
	if chart.XAxis != "" {
		h := c.img.Bounds().Dy()
		c.Text(p.area.Min.X+p.area.Dx()/2, h-margin+4, chart.XAxis, labelScale, black, AnchorCenter)
	}
}
