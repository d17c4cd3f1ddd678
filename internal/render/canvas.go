package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Anchor positions text relative to its reference point.
type Anchor int

const (
	AnchorLeft Anchor = iota
	AnchorCenter
	AnchorRight
)

var face = basicfont.Face7x13

// Canvas is an RGBA image with the few primitives charts need.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas returns a w×h canvas filled with bg.
func NewCanvas(w, h int, bg color.Color) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &Canvas{img: img}
}

// Image exposes the backing image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Rect fills r with col.
func (c *Canvas) Rect(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// Outline draws a one pixel border around r.
func (c *Canvas) Outline(r image.Rectangle, col color.Color) {
	c.HLine(r.Min.X, r.Max.X-1, r.Min.Y, col)
	c.HLine(r.Min.X, r.Max.X-1, r.Max.Y-1, col)
	c.VLine(r.Min.X, r.Min.Y, r.Max.Y-1, col)
	c.VLine(r.Max.X-1, r.Min.Y, r.Max.Y-1, col)
}

// HLine draws a horizontal line from x0 to x1 inclusive.
func (c *Canvas) HLine(x0, x1, y int, col color.Color) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.set(x, y, col)
	}
}

// VLine draws a vertical line from y0 to y1 inclusive.
func (c *Canvas) VLine(x, y0, y1 int, col color.Color) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.set(x, y, col)
	}
}

// Disc fills a circle of radius r centered on (cx, cy).
func (c *Canvas) Disc(cx, cy int, r float64, col color.Color) {
	ri := int(math.Ceil(r))
	for y := -ri; y <= ri; y++ {
		for x := -ri; x <= ri; x++ {
			if float64(x*x+y*y) <= r*r {
				c.blend(cx+x, cy+y, col)
			}
		}
	}
}

func (c *Canvas) set(x, y int, col color.Color) {
	if image.Pt(x, y).In(c.img.Bounds()) {
		c.img.Set(x, y, col)
	}
}

func (c *Canvas) blend(x, y int, col color.Color) {
	if !image.Pt(x, y).In(c.img.Bounds()) {
		return
	}
	r := image.Rect(x, y, x+1, y+1)
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// TextWidth is the rendered width of s at scale.
func TextWidth(s string, scale int) int {
	return font.MeasureString(face, s).Ceil() * scale
}

// TextHeight is the line height at scale.
func TextHeight(scale int) int {
	return face.Metrics().Height.Ceil() * scale
}

// Text draws s with its top edge at y, horizontally placed by anchor.
// Glyphs come from a 7×13 bitmap face enlarged by an integer scale.
func (c *Canvas) Text(x, y int, s string, scale int, col color.Color, anchor Anchor) {
	glyphs := rasterize(s, col)
	if glyphs == nil {
		return
	}
	c.paste(glyphs, x, y, scale, anchor)
}

// TextUp draws s rotated 90° counter-clockwise, reading bottom to top,
// with its left edge at x and vertically placed by anchor around y.
func (c *Canvas) TextUp(x, y int, s string, scale int, col color.Color, anchor Anchor) {
	glyphs := rasterize(s, col)
	if glyphs == nil {
		return
	}
	rotated := rotateCCW(glyphs)
	w := rotated.Bounds().Dx() * scale
	h := rotated.Bounds().Dy() * scale
	top := y
	switch anchor {
	case AnchorCenter:
		top = y - h/2
	case AnchorLeft:
		// reads upward from y
		top = y - h
	}
	dst := image.Rect(x, top, x+w, top+h)
	xdraw.NearestNeighbor.Scale(c.img, dst, rotated, rotated.Bounds(), xdraw.Over, nil)
}

func (c *Canvas) paste(src *image.RGBA, x, y, scale int, anchor Anchor) {
	w := src.Bounds().Dx() * scale
	h := src.Bounds().Dy() * scale
	left := x
	switch anchor {
	case AnchorCenter:
		left = x - w/2
	case AnchorRight:
		left = x - w
	}
	dst := image.Rect(left, y, left+w, y+h)
	xdraw.NearestNeighbor.Scale(c.img, dst, src, src.Bounds(), xdraw.Over, nil)
}

func rasterize(s string, col color.Color) *image.RGBA {
	w := font.MeasureString(face, s).Ceil()
	h := face.Metrics().Height.Ceil()
	if w <= 0 || h <= 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
	return img
}

func rotateCCW(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(y, b.Dx()-1-x, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
