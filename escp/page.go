package escp

import (
	"iter"

	"github.com/bits-and-blooms/bitset"
)

// Channel is the raster data one ink deposited on one row.
type Channel struct {
	Data []byte

	// StartX and StopX give the horizontal extent in dots.
	StartX int
	StopX  int

	// Dots is the number of pixels in Data, each BPP bits wide.
	Dots int
	BPP  int
}

// Row holds the channels written to a single row of the page.
type Row struct {
	channels [NumInks]*Channel
}

// Channel returns the data the given ink deposited on the row,
// or nil if the ink was not used.
func (r *Row) Channel(ink Ink) *Channel {
	if ink < 0 || ink >= NumInks {
		return nil
	}
	return r.channels[ink]
}

// Page is a sparse store of rows, indexed by the vertical position
// relative to the top margin.
type Page struct {
	rows []*Row
	used *bitset.BitSet
}

func newPage(height int) *Page {
	height = max(height, 0)
	return &Page{
		rows: make([]*Row, height),
		used: bitset.New(uint(height)),
	}
}

// Height returns the number of rows of the page.
func (p *Page) Height() int {
	return len(p.rows)
}

// Row returns row y, or nil if nothing was printed there.
func (p *Page) Row(y int) *Row {
	if y < 0 || y >= len(p.rows) {
		return nil
	}
	return p.rows[y]
}

// Rows iterates over the rows which hold data, top to bottom.
func (p *Page) Rows() iter.Seq2[int, *Row] {
	return func(yield func(int, *Row) bool) {
		for y, ok := p.used.NextSet(0); ok; y, ok = p.used.NextSet(y + 1) {
			if !yield(int(y), p.rows[y]) {
				return
			}
		}
	}
}

// Len returns the number of rows which hold data.
func (p *Page) Len() int {
	return int(p.used.Count())
}

// Width returns the right-most dot position covered by any channel.
func (p *Page) Width() int {
	width := 0
	for _, row := range p.Rows() {
		for _, ch := range row.channels {
			if ch != nil {
				width = max(width, ch.StopX)
			}
		}
	}
	return width
}

func (p *Page) ensureRow(y int) *Row {
	row := p.rows[y]
	if row == nil {
		row = &Row{}
		p.rows[y] = row
		p.used.Set(uint(y))
	}
	return row
}

// composite stores a decoded band at the current print head position.
// The band covers height rows of width dots. A band holding exactly one
// line per row is split between the rows, any other band is copied to
// every row. The print head is not moved.
func (in *Interpreter) composite(band []byte, width, height int, ink Ink, bpp, density int) {
	skip := 0
	if density > 0 {
		skip = in.state.RelativeHorizontalUnits / density
	}
	if skip == 0 {
		in.warn(ProtocolWarning, "attempting to print at density %d, higher than units %d",
			density, in.state.RelativeHorizontalUnits)
	}

	if in.page == nil {
		in.warn(ProtocolWarning, "attempting to print before setting up the page")
		in.page = newPage(in.state.BottomMargin - in.state.TopMargin)
	}

	lineSize := stride(width, bpp)
	split := lineSize > 0 && len(band) == height*lineSize

	var outside, doubled int
	for k := range height {
		y := in.state.Y + k
		if y < 0 || y >= in.page.Height() {
			outside++
			continue
		}
		row := in.page.ensureRow(y)
		if row.channels[ink] != nil {
			doubled++
			continue
		}

		src := band
		if split {
			src = band[k*lineSize : (k+1)*lineSize]
		}
		data := make([]byte, len(src))
		copy(data, src)
		row.channels[ink] = &Channel{
			Data:   data,
			StartX: in.state.X,
			StopX:  in.state.X + width*skip,
			Dots:   width,
			BPP:    bpp,
		}
	}

	if outside > 0 {
		in.warn(ProtocolWarning, "%d rows outside of the page (height %d) dropped",
			outside, in.page.Height())
	}
	if doubled > 0 {
		in.warn(UnsupportedFeature, "double printing not supported, %d %s rows kept",
			doubled, ink)
	}
}
