package escp

import "errors"

// Compression selects the encoding of raster data.
type Compression byte

// Raster compression modes.
const (
	Uncompressed Compression = 0
	RunLength    Compression = 1
	TIFF         Compression = 2
)

var errUnsupportedCompression = errors.New("unsupported compression mode")

// stride returns the number of bytes in one raster line of width dots.
func stride(width, bpp int) int {
	return (width*bpp + 7) / 8
}

// rasterSize returns the number of bytes in a raster image.
func rasterSize(width, height, bpp int) int {
	return height * stride(width, bpp)
}

// decodeRaster reads the data of one raster image.
//
// Uncompressed data is returned as a single band. Run-length data is
// returned as one band per run-length code, in stream order. Reading stops
// as soon as the bands hold at least the size of the image; the last band
// may extend past it if the final code overshoots.
func decodeRaster(r *reader, c Compression, bpp, width, height int) ([][]byte, error) {
	size := rasterSize(width, height, bpp)

	switch c {
	case Uncompressed:
		buf, err := r.readBytes(size, "raster data")
		if err != nil {
			return nil, err
		}
		return [][]byte{buf}, nil

	case RunLength:
		var bands [][]byte
		for total := 0; total < size; {
			code, err := r.readByte("run-length counter")
			if err != nil {
				return nil, err
			}

			var band []byte
			if code < 128 {
				band, err = r.readBytes(int(code)+1, "run-length literal data")
				if err != nil {
					return nil, err
				}
			} else {
				value, err := r.readByte("run-length repeated data")
				if err != nil {
					return nil, err
				}
				band = make([]byte, 257-int(code))
				for i := range band {
					band[i] = value
				}
			}
			total += len(band)
			bands = append(bands, band)
		}
		return bands, nil

	default:
		return nil, errUnsupportedCompression
	}
}
