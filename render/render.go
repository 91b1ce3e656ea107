// Package render turns a page built by the escp interpreter into an image.
package render

import (
	"image"
	"image/color"

	"github.com/ivanizag/unprint/escp"
)

// The appearance of each ink on white paper.
var inkColors = [escp.NumInks]color.RGBA{
	escp.Black:        {0x00, 0x00, 0x00, 0xFF},
	escp.Magenta:      {0xFF, 0x00, 0xFF, 0xFF},
	escp.Cyan:         {0x00, 0xFF, 0xFF, 0xFF},
	escp.Yellow:       {0xFF, 0xFF, 0x00, 0xFF},
	escp.LightMagenta: {0xFF, 0x80, 0xFF, 0xFF},
	escp.LightCyan:    {0x80, 0xFF, 0xFF, 0xFF},
}

// Palette holds one colour for every combination of inks. Palette index
// i is the colour of a dot covered by the inks whose bits are set in i.
var Palette = buildPalette()

func buildPalette() color.Palette {
	p := make(color.Palette, 1<<escp.NumInks)
	for mask := range p {
		r, g, b := 255, 255, 255
		for ink := range escp.NumInks {
			if mask&(1<<ink) == 0 {
				continue
			}
			c := inkColors[ink]
			r = r * int(c.R) / 255
			g = g * int(c.G) / 255
			b = b * int(c.B) / 255
		}
		p[mask] = color.RGBA{uint8(r), uint8(g), uint8(b), 0xFF}
	}
	return p
}

// Image composites all channels of the page onto white paper.
// One pixel of the image is one device dot, row y of the image is
// row y of the page.
func Image(page *escp.Page) *image.Paletted {
	width := max(page.Width(), 1)
	height := max(page.Height(), 1)
	img := image.NewPaletted(image.Rect(0, 0, width, height), Palette)

	for y, row := range page.Rows() {
		line := img.Pix[y*img.Stride : y*img.Stride+width]
		for ink := range escp.NumInks {
			ch := row.Channel(escp.Ink(ink))
			if ch == nil {
				continue
			}
			paint(line, ch, uint8(1)<<ink)
		}
	}
	return img
}

// paint adds one ink to a line of palette indices. Dot i of the channel
// covers the pixels from StartX + i*w/n up to StartX + (i+1)*w/n.
func paint(line []uint8, ch *escp.Channel, bit uint8) {
	n := ch.Dots
	w := ch.StopX - ch.StartX
	if n <= 0 || w <= 0 || ch.BPP <= 0 {
		return
	}
	for i := range n {
		if pixel(ch.Data, i, ch.BPP) == 0 {
			continue
		}
		x0 := ch.StartX + i*w/n
		x1 := min(ch.StartX+(i+1)*w/n, len(line))
		for x := x0; x < x1; x++ {
			line[x] |= bit
		}
	}
}

// pixel returns dot i of a packed line, most significant bits first.
// Dots past the end of the data are blank.
func pixel(data []byte, i, bpp int) int {
	v := 0
	for b := range bpp {
		bit := i*bpp + b
		if bit/8 >= len(data) {
			return 0
		}
		v = v<<1 | int(data[bit/8]>>(7-bit%8))&1
	}
	return v
}
