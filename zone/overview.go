package zone

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	overviewEmpty = color.RGBA{R: 24, G: 28, B: 36, A: 255}
	overviewWater = color.RGBA{R: 40, G: 110, B: 200, A: 255}
)

// Overview renders block occupancy as an image with one cell of cellSize
// pixels per block. Brighter cells hold more records; blocks holding only
// water are drawn blue. Row 0 is the top of the image.
func Overview(z *Zone, maxBlock, cellSize int) *image.RGBA {
	n := maxBlock + 1
	small := image.NewRGBA(image.Rect(0, 0, n, n))
	draw.Draw(small, small.Bounds(), &image.Uniform{C: overviewEmpty}, image.Point{}, draw.Src)

	busiest := 1
	for _, b := range z.Blocks {
		busiest = max(busiest, b.Len())
	}

	for c, b := range z.Blocks {
		if !c.InRange(maxBlock) || b.Len() == 0 {
			continue
		}
		if b.Len() == len(b.Water) {
			small.SetRGBA(c.X, c.Y, overviewWater)
			continue
		}
		v := uint8(80 + 175*b.Len()/busiest)
		small.SetRGBA(c.X, c.Y, color.RGBA{R: v, G: v, B: v / 2, A: 255})
	}

	if cellSize <= 1 {
		return small
	}
	out := image.NewRGBA(image.Rect(0, 0, n*cellSize, n*cellSize))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	return out
}
