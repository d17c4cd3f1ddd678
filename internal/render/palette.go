package render

import (
	"image/color"
	"math"
)

var (
	white      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black      = color.RGBA{0x22, 0x22, 0x22, 0xff}
	gray       = color.RGBA{0x88, 0x88, 0x88, 0xff}
	panel      = color.RGBA{0xee, 0xee, 0xee, 0xff}
	gridLine   = color.RGBA{0xd8, 0xd8, 0xd8, 0xff}
	markerRed  = color.RGBA{0xd6, 0x27, 0x28, 0xb0}
	tileBorder = color.RGBA{0x99, 0x99, 0x99, 0xff}
)

// seriesColors follows the bmh style cycle.
var seriesColors = []color.RGBA{
	{0x34, 0x8a, 0xbd, 0xff},
	{0xa6, 0x0f, 0x28, 0xff},
	{0x7a, 0x68, 0xa6, 0xff},
	{0x46, 0x78, 0x21, 0xff},
	{0xd5, 0x5e, 0x00, 0xff},
	{0xcc, 0x79, 0xa7, 0xff},
	{0x56, 0xb4, 0xe9, 0xff},
	{0x00, 0x9e, 0x73, 0xff},
	{0xf0, 0xe4, 0x42, 0xff},
	{0x01, 0x72, 0xb2, 0xff},
}

// SeriesColor cycles through the palette.
func SeriesColor(i int) color.RGBA {
	return seriesColors[i%len(seriesColors)]
}

var bluesStops = []color.RGBA{
	{0xf7, 0xfb, 0xff, 0xff},
	{0xde, 0xeb, 0xf7, 0xff},
	{0xc6, 0xdb, 0xef, 0xff},
	{0x9e, 0xca, 0xe1, 0xff},
	{0x6b, 0xae, 0xd6, 0xff},
	{0x42, 0x92, 0xc6, 0xff},
	{0x21, 0x71, 0xb5, 0xff},
	{0x08, 0x51, 0x9c, 0xff},
	{0x08, 0x30, 0x6b, 0xff},
}

// Blues maps t in [0, 1] onto the sequential blue ramp.
func Blues(t float64) color.RGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	pos := t * float64(len(bluesStops)-1)
	i := int(math.Floor(pos))
	if i >= len(bluesStops)-1 {
		return bluesStops[len(bluesStops)-1]
	}
	f := pos - float64(i)
	a, b := bluesStops[i], bluesStops[i+1]
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + f*(float64(y)-float64(x)))) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

// Normalize scales v into [0, 1] between lo and hi. A flat range maps to 0.
func Normalize(v, lo, hi int) float64 {
	if hi <= lo {
		return 0
	}
	return float64(v-lo) / float64(hi-lo)
}
