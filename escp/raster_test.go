package escp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeUncompressed(t *testing.T) {
	data := []byte{0xFF, 0x80, 0x01, 0x02, 0x03, 0x04, 0x99}
	r := newReader(bytes.NewReader(data))

	// 2 rows of 10 dots at 1 bpp are 2 bytes each
	bands, err := decodeRaster(r, Uncompressed, 1, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]byte{data[:4]}, bands); diff != "" {
		t.Errorf("unexpected bands (-want +got):\n%s", diff)
	}
	if r.pos != 4 {
		t.Errorf("pos = %d, want 4", r.pos)
	}
}

func TestDecodeRunLength(t *testing.T) {
	testCases := []struct {
		name    string
		encoded []byte
		bpp     int
		width   int
		height  int
		bands   [][]byte
	}{
		{
			name:    "literal run",
			encoded: []byte{2, 1, 2, 3},
			bpp:     1, width: 24, height: 1,
			bands: [][]byte{{1, 2, 3}},
		},
		{
			name:    "repeated run",
			encoded: []byte{254, 7},
			bpp:     1, width: 24, height: 1,
			bands: [][]byte{{7, 7, 7}},
		},
		{
			name:    "mixed runs",
			encoded: []byte{1, 1, 2, 253, 4, 1, 9, 9},
			bpp:     2, width: 14, height: 2,
			bands: [][]byte{{1, 2}, {4, 4, 4, 4}, {9, 9}},
		},
		{
			name:    "overshoot",
			encoded: []byte{129, 5},
			bpp:     1, width: 8, height: 2,
			bands: [][]byte{bytes.Repeat([]byte{5}, 128)},
		},
		{
			name:    "empty image",
			encoded: []byte{0, 1},
			bpp:     1, width: 0, height: 5,
			bands: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newReader(bytes.NewReader(tc.encoded))
			bands, err := decodeRaster(r, RunLength, tc.bpp, tc.width, tc.height)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.bands, bands); diff != "" {
				t.Errorf("unexpected bands (-want +got):\n%s", diff)
			}
		})
	}
}

// Decoding stops as soon as the image is complete.
func TestDecodeRunLengthStops(t *testing.T) {
	encoded := []byte{1, 0xAA, 0xBB, 0x1B, '@'}
	r := newReader(bytes.NewReader(encoded))
	if _, err := decodeRaster(r, RunLength, 1, 16, 1); err != nil {
		t.Fatal(err)
	}
	if r.pos != 3 {
		t.Errorf("pos = %d, want 3", r.pos)
	}
}

func TestDecodeRunLengthMatchesUncompressed(t *testing.T) {
	images := [][]byte{
		{0, 0, 0, 0, 0, 0},
		{1, 2, 3, 4, 5, 6},
		{0xFF, 0xFF, 0x00, 0x01, 0x01, 0x01},
		bytes.Repeat([]byte{0x55, 0xAA, 0xAA}, 100),
		append(bytes.Repeat([]byte{3}, 200), bytes.Repeat([]byte{1, 2}, 50)...),
	}

	for i, img := range images {
		const height = 2
		width := len(img) / height * 8

		r := newReader(bytes.NewReader(img))
		plain, err := decodeRaster(r, Uncompressed, 1, width, height)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}

		r = newReader(bytes.NewReader(packBits(img)))
		bands, err := decodeRaster(r, RunLength, 1, width, height)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		got := bytes.Join(bands, nil)
		if len(got) != rasterSize(width, height, 1) {
			t.Errorf("case %d: decoded %d bytes, want %d", i, len(got), rasterSize(width, height, 1))
		}
		if diff := cmp.Diff(plain[0], got); diff != "" {
			t.Errorf("case %d: mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	testCases := []struct {
		name    string
		c       Compression
		encoded []byte
	}{
		{"uncompressed", Uncompressed, []byte{1, 2, 3}},
		{"missing counter", RunLength, []byte{0, 1}},
		{"short literal", RunLength, []byte{3, 1, 2}},
		{"missing repeat value", RunLength, []byte{200}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newReader(bytes.NewReader(tc.encoded))
			_, err := decodeRaster(r, tc.c, 1, 32, 1)
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("got %v, want ErrTruncated", err)
			}
		})
	}
}

func TestDecodeUnsupported(t *testing.T) {
	r := newReader(bytes.NewReader([]byte{1, 2, 3}))
	_, err := decodeRaster(r, TIFF, 1, 8, 1)
	if err != errUnsupportedCompression {
		t.Errorf("got %v, want %v", err, errUnsupportedCompression)
	}
	if r.pos != 0 {
		t.Errorf("pos = %d, want 0", r.pos)
	}
}

func FuzzDecodeRunLength(f *testing.F) {
	f.Add([]byte{2, 1, 2, 3}, uint8(3))
	f.Add([]byte{129, 0}, uint8(1))

	f.Fuzz(func(t *testing.T, encoded []byte, height uint8) {
		r := newReader(bytes.NewReader(encoded))
		bands, err := decodeRaster(r, RunLength, 1, 16, int(height))
		if errors.Is(err, ErrTruncated) {
			return
		} else if err != nil {
			t.Fatal(err)
		}

		size := rasterSize(16, int(height), 1)
		total := 0
		for i, band := range bands {
			if total >= size {
				t.Fatalf("band %d read after the image was complete", i)
			}
			total += len(band)
		}
		if total < size {
			t.Errorf("decoded %d bytes, want at least %d", total, size)
		}
	})
}
