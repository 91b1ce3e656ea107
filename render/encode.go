package render

import (
	"fmt"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/ivanizag/unprint/escp"
)

// Format selects the output encoding.
type Format int

// Supported output formats.
const (
	PNG Format = iota
	TIFF
	Sixel
	None
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case TIFF:
		return "tiff"
	case Sixel:
		return "sixel"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "png":
		return PNG, nil
	case "tiff", "tif":
		return TIFF, nil
	case "sixel":
		return Sixel, nil
	case "none":
		return None, nil
	}
	return 0, fmt.Errorf("unknown output format %q", name)
}

// Options controls Encode.
type Options struct {
	// MaxWidth limits the width of sixel output. Zero means no limit.
	MaxWidth int
}

// Encode renders page and writes it to w in the given format.
func Encode(w io.Writer, page *escp.Page, f Format, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	switch f {
	case None:
		return nil
	case PNG:
		return png.Encode(w, Image(page))
	case TIFF:
		return tiff.Encode(w, Image(page), &tiff.Options{Compression: tiff.Deflate})
	case Sixel:
		return EncodeSixel(w, Fit(Image(page), opts.MaxWidth))
	default:
		return fmt.Errorf("unsupported output format %s", f)
	}
}
