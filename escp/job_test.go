package escp

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// job assembles a command stream for tests.
type job struct {
	bytes.Buffer
}

func (j *job) esc(code byte, args ...byte) *job {
	j.WriteByte(esc)
	j.WriteByte(code)
	j.Write(args)
	return j
}

func (j *job) reset() *job {
	return j.esc('@')
}

func (j *job) extended(sub byte, payload ...byte) *job {
	j.esc('(', sub, byte(len(payload)), byte(len(payload)>>8))
	j.Write(payload)
	return j
}

func (j *job) pageFormat(top, bottom uint16) *job {
	return j.extended('c', byte(top), byte(top>>8), byte(bottom), byte(bottom>>8))
}

// raster appends an ESC . command. The horizontal density byte hd gives
// a density of 3600/hd dots per inch.
func (j *job) raster(c, hd, m byte, n uint16, data []byte) *job {
	j.esc('.', c, hd, hd, m, byte(n), byte(n>>8))
	j.Write(data)
	return j
}

// rasterColor appends an ESC i command.
func (j *job) rasterColor(color, c, bpp byte, n, m uint16, data []byte) *job {
	j.esc('i', color, c, bpp, byte(n), byte(n>>8), byte(m), byte(m>>8))
	j.Write(data)
	return j
}

func (j *job) move(delta int16) *job {
	return j.esc('\\', byte(uint16(delta)), byte(uint16(delta)>>8))
}

func (j *job) moveTo(pos uint16) *job {
	return j.esc('$', byte(pos), byte(pos>>8))
}

// packBits encodes data as run-length codes, without end marker.
func packBits(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); {
		run := 1
		for i+run < len(data) && data[i+run] == data[i] && run < 128 {
			run++
		}
		if run >= 2 {
			out = append(out, byte(257-run), data[i])
			i += run
			continue
		}

		start := i
		for i < len(data) && i-start < 128 {
			if i+1 < len(data) && data[i+1] == data[i] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, data[start:i]...)
	}
	return out
}

func newTestInterpreter(legacy bool) (*Interpreter, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	in := New(&Options{Logger: logger, LegacyRunCompositing: legacy})
	return in, hook
}

func run(t *testing.T, j *job) *Interpreter {
	t.Helper()
	in, _ := newTestInterpreter(false)
	if err := in.Run(bytes.NewReader(j.Bytes())); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return in
}

func kinds(warnings []*Error) []Kind {
	var res []Kind
	for _, w := range warnings {
		res = append(res, w.Kind)
	}
	return res
}

func TestPackBits(t *testing.T) {
	data := []byte{1, 2, 3, 7, 7, 7, 7, 9}
	r := newReader(bytes.NewReader(packBits(data)))
	bands, err := decodeRaster(r, RunLength, 1, 8*len(data), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := bytes.Join(bands, nil); !bytes.Equal(got, data) {
		t.Errorf("got %v, want %v", got, data)
	}
}
