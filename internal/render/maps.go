package render

import (
	"image"
	"math"

	"github.com/dustin/go-humanize"

	"shooting_stats/internal/geocode"
	"shooting_stats/internal/report"
	"shooting_stats/internal/stats"
)

// tile is a state's cell on the square-tile US map.
type tile struct{ row, col int }

var tiles = map[string]tile{
	"AK": {0, 0}, "ME": {0, 11},
	"WI": {1, 6}, "VT": {1, 10}, "NH": {1, 11},
	"WA": {2, 1}, "ID": {2, 2}, "MT": {2, 3}, "ND": {2, 4}, "MN": {2, 5}, "IL": {2, 6}, "MI": {2, 7}, "NY": {2, 9}, "MA": {2, 10},
	"OR": {3, 1}, "NV": {3, 2}, "WY": {3, 3}, "SD": {3, 4}, "IA": {3, 5}, "IN": {3, 6}, "OH": {3, 7}, "PA": {3, 8}, "NJ": {3, 9}, "CT": {3, 10}, "RI": {3, 11},
	"CA": {4, 1}, "UT": {4, 2}, "CO": {4, 3}, "NE": {4, 4}, "MO": {4, 5}, "KY": {4, 6}, "WV": {4, 7}, "VA": {4, 8}, "MD": {4, 9}, "DE": {4, 10},
	"AZ": {5, 2}, "NM": {5, 3}, "KS": {5, 4}, "AR": {5, 5}, "TN": {5, 6}, "NC": {5, 7}, "SC": {5, 8}, "DC": {5, 9},
	"OK": {6, 4}, "LA": {6, 5}, "MS": {6, 6}, "AL": {6, 7}, "GA": {6, 8},
	"HI": {7, 0}, "TX": {7, 4}, "FL": {7, 9},
}

const (
	tileCols = 12
	tileRows = 8
)

// Choropleth shades each state tile by its count between bounds. States
// without data stay white; keys that are not states are ignored.
func Choropleth(counts stats.Series, bounds *report.Bounds, chart report.Chart) *Canvas {
	const width, height = 1100, 900
	c := NewCanvas(width, height, white)
	top := drawTitle(c, chart.Title)

	values := make(map[string]int, len(counts))
	for _, g := range counts {
		if s, ok := geocode.LookupState(g.Key); ok {
			values[s.Code] += g.Value
		}
	}

	cell := (width - 2*margin) / tileCols
	gap := 4
	for _, s := range geocode.States {
		t, ok := tiles[s.Code]
		if !ok {
			continue
		}
		x := margin + t.col*cell
		y := top + t.row*cell
		r := image.Rect(x+gap/2, y+gap/2, x+cell-gap/2, y+cell-gap/2)
		fill := white
		textCol := black
		if v, ok := values[s.Code]; ok && bounds != nil {
			norm := Normalize(v, bounds.Min, bounds.Max)
			fill = Blues(norm)
			if norm > 0.6 {
				textCol = white
			}
		}
		c.Rect(r, fill)
		c.Outline(r, tileBorder)
		c.Text(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2-TextHeight(labelScale)/2, s.Code, labelScale, textCol, AnchorCenter)
	}

	barTop := top + tileRows*cell + 30
	drawColorbar(c, image.Rect(width/4, barTop, width*3/4, barTop+30), bounds, chart.Legend)
	return c
}

func drawColorbar(c *Canvas, r image.Rectangle, bounds *report.Bounds, label string) {
	for x := r.Min.X; x < r.Max.X; x++ {
		t := float64(x-r.Min.X) / float64(r.Dx()-1)
		c.VLine(x, r.Min.Y, r.Max.Y-1, Blues(t))
	}
	c.Outline(r, tileBorder)
	lo, hi := "0", "0"
	if bounds != nil {
		lo, hi = humanize.Comma(int64(bounds.Min)), humanize.Comma(int64(bounds.Max))
	} else {
		c.Text(r.Min.X+r.Dx()/2, r.Min.Y-TextHeight(labelScale)-4, "No data", labelScale, gray, AnchorCenter)
	}
	c.Text(r.Min.X, r.Max.Y+4, lo, labelScale, black, AnchorCenter)
	c.Text(r.Max.X, r.Max.Y+4, hi, labelScale, black, AnchorCenter)
	c.Text(r.Min.X+r.Dx()/2, r.Max.Y+4+TextHeight(labelScale), label, labelScale, black, AnchorCenter)
}

// Frame is the lon/lat box drawn by the point map.
type Frame struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// ContinentalUS frames the lower 48 states.
var ContinentalUS = Frame{MinLon: -119, MaxLon: -64, MinLat: 22, MaxLat: 49}

// project maps a coordinate into area with an equirectangular projection.
// ok is false outside the frame.
func (f Frame) project(area image.Rectangle, lat, lon float64) (int, int, bool) {
	if lon < f.MinLon || lon > f.MaxLon || lat < f.MinLat || lat > f.MaxLat {
		return 0, 0, false
	}
	x := area.Min.X + int(math.Round((lon-f.MinLon)/(f.MaxLon-f.MinLon)*float64(area.Dx())))
	y := area.Max.Y - int(math.Round((lat-f.MinLat)/(f.MaxLat-f.MinLat)*float64(area.Dy())))
	return x, y, true
}

// MarkerDiameter is sqrt(count)*10, the marker size of the printed maps.
func MarkerDiameter(count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Sqrt(float64(count)) * 10
}

// Points draws one red marker per placed state, sized by case count, over a
// 5° graticule. It reports how many points fell outside the frame.
func Points(placed []report.MapPoint, frame Frame, chart report.Chart) (*Canvas, int) {
	const width, height = 1100, 700
	c := NewCanvas(width, height, white)
	top := drawTitle(c, chart.Title)
	area := image.Rect(margin, top, width-margin, height-margin)
	c.Rect(area, panel)

	for lon := math.Ceil(frame.MinLon/5) * 5; lon <= frame.MaxLon; lon += 5 {
		if x, _, ok := frame.project(area, frame.MinLat, lon); ok {
			c.VLine(x, area.Min.Y, area.Max.Y-1, gridLine)
		}
	}
	for lat := math.Ceil(frame.MinLat/5) * 5; lat <= frame.MaxLat; lat += 5 {
		if _, y, ok := frame.project(area, lat, frame.MinLon); ok {
			c.HLine(area.Min.X, area.Max.X-1, y, gridLine)
		}
	}
	c.Outline(area, tileBorder)

	if len(placed) == 0 {
		drawNoData(c, top)
		return c, 0
	}
	outside := 0
	for _, p := range placed {
		x, y, ok := frame.project(area, p.Lat, p.Lon)
		if !ok {
			outside++
			continue
		}
		c.Disc(x, y, MarkerDiameter(p.Count)/2, markerRed)
	}
	return c, outside
}
