package render

import (
	"fmt"
	"image"
	"io"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// xterm -ti vt340
// mlterm

// Fit scales img down to at most maxWidth pixels, keeping the aspect
// ratio. Images which already fit are returned unchanged.
func Fit(img *image.Paletted, maxWidth int) *image.Paletted {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := max(b.Dy()*maxWidth/b.Dx(), 1)
	dst := image.NewPaletted(image.Rect(0, 0, maxWidth, height), img.Palette)
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// EncodeSixel writes img as a DEC sixel graphic.
func EncodeSixel(w io.Writer, img *image.Paletted) error {
	_, err := io.WriteString(w, sprintSixel(img))
	return err
}

func sprintSixel(img *image.Paletted) string {
	var sb strings.Builder
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	fmt.Fprintf(&sb, "\"1;1;%d;%d", width, height)
	for i, c := range img.Palette {
		r, g, bl, _ := c.RGBA()
		fmt.Fprintf(&sb, "#%d;2;%d;%d;%d", i, r*100/0xFFFF, g*100/0xFFFF, bl*100/0xFFFF)
	}

	// Each sixel row covers 6 lines of pixels, one pass per colour
	row := make([]uint8, width)
	for top := 0; top < height; top += 6 {
		var lines [][]uint8
		used := make([]bool, len(img.Palette))
		for j := 0; j < 6 && top+j < height; j++ {
			start := img.PixOffset(b.Min.X, b.Min.Y+top+j)
			line := img.Pix[start : start+width]
			for _, idx := range line {
				used[idx] = true
			}
			lines = append(lines, line)
		}

		first := true
		for i := range img.Palette {
			if !used[i] {
				continue
			}
			for x := range row {
				bits := uint8(0)
				for j, line := range lines {
					if int(line[x]) == i {
						bits |= 1 << j
					}
				}
				row[x] = bits
			}
			if !first {
				sb.WriteByte('$') // Back to the start of the row
			}
			first = false
			fmt.Fprintf(&sb, "#%d", i)
			writeSixels(&sb, row)
		}
		sb.WriteByte('-') // New graphic line
	}

	return fmt.Sprintf("\x1bPq%s\x1b\\", sb.String())
}

// writeSixels appends one colour pass, compressing repeated sixels.
func writeSixels(sb *strings.Builder, row []uint8) {
	for x := 0; x < len(row); {
		n := 1
		for x+n < len(row) && row[x+n] == row[x] {
			n++
		}
		ch := row[x] + 63
		if n > 3 {
			fmt.Fprintf(sb, "!%d%c", n, ch)
		} else {
			for range n {
				sb.WriteByte(ch)
			}
		}
		x += n
	}
}
