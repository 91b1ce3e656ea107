// Package escp interprets Epson ESC/P raster printer command streams.
//
// The interpreter consumes a print job one escape sequence at a time,
// tracks the printer state and composites the raster images of the job
// into a sparse page, one channel per ink.
package escp

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const esc = 0x1b

// Options configures an Interpreter. The zero value is ready to use.
type Options struct {
	// Logger receives diagnostics. If nil, the standard logrus logger is used.
	Logger logrus.FieldLogger

	// LegacyRunCompositing composites run-length compressed images once per
	// run-length code, all at the same print head position, instead of
	// once per image.
	LegacyRunCompositing bool
}

// Interpreter executes a print job.
type Interpreter struct {
	opts  Options
	log   logrus.FieldLogger
	state State
	page  *Page
	in    *reader

	warnings []*Error

	// the command being executed
	start int64
	cmd   string
}

// New returns an interpreter with an uninitialized printer state.
func New(opts *Options) *Interpreter {
	in := &Interpreter{}
	if opts != nil {
		in.opts = *opts
	}
	in.log = in.opts.Logger
	if in.log == nil {
		in.log = logrus.StandardLogger()
	}
	return in
}

// State returns a copy of the current printer state.
func (in *Interpreter) State() State {
	return in.state
}

// Page returns the page built so far, or nil if no page was set up.
// After Run failed, Page returns nil.
func (in *Interpreter) Page() *Page {
	return in.page
}

// Warnings returns the non-fatal problems reported so far.
func (in *Interpreter) Warnings() []*Error {
	return in.warnings
}

// Run executes the commands read from r until the end of the input.
// It returns nil at a clean end of input, and an *Error for truncated
// input or a fatal usage error. A failed run discards the page.
func (in *Interpreter) Run(r io.Reader) error {
	in.in = newReader(r)
	for {
		in.start = in.in.pos
		in.cmd = ""

		b, err := in.in.next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return in.abort(truncated("escape", err))
		}
		if b != esc {
			in.warn(ProtocolWarning, "corrupt stream? no ESC found (got 0x%02X)", b)
			continue
		}

		code, err := in.in.readByte("command")
		if err != nil {
			return in.abort(err)
		}
		in.cmd = commandName(code)
		in.log.WithField("offset", in.start).Debugf("got %s", in.cmd)

		err = in.dispatch(code)
		if err != nil {
			return in.abort(err)
		}
	}
}

func (in *Interpreter) dispatch(code byte) error {
	st := &in.state

	switch code {
	case '@': // initialize printer
		st.Initialize()

	case 'U': // unidirectional mode
		b, err := in.in.readByte("unidirectionality")
		if err != nil {
			return err
		}
		if validUnidirectional(b) {
			st.Unidirectional = b
		}

	case 'i': // transfer raster image
		colorCode, err := in.in.readByte("color")
		if err != nil {
			return err
		}
		c, err := in.in.readByte("compression mode")
		if err != nil {
			return err
		}
		bpp, err := in.in.readByte("bits per pixel")
		if err != nil {
			return err
		}
		n, err := in.in.readWord("number of horizontal dots")
		if err != nil {
			return err
		}
		m, err := in.in.readWord("number of vertical dots")
		if err != nil {
			return err
		}

		ink, ok := InkFromCode(colorCode)
		if !ok {
			in.warn(ProtocolWarning, "invalid color %d", colorCode)
		}
		return in.transferRaster(Compression(c), int(bpp), int(n), int(m),
			ink, ok, st.RelativeHorizontalUnits)

	case '.': // transfer raster image, compact form
		c, err := in.in.readByte("compression mode")
		if err != nil {
			return err
		}
		if c > 2 {
			in.warn(ProtocolWarning, "unknown compression mode %d", c)
			return nil
		}
		if _, err := in.in.readByte("vertical density"); err != nil {
			return err
		}
		h, err := in.in.readByte("horizontal density")
		if err != nil {
			return err
		}
		density := 0
		if h > 0 {
			density = 3600 / int(h)
		}
		m, err := in.in.readByte("number of vertical dots")
		if err != nil {
			return err
		}
		n, err := in.in.readWord("number of horizontal dots")
		if err != nil {
			return err
		}
		return in.transferRaster(Compression(c), 1, int(n), int(m),
			st.Color, true, density)

	case '\\': // relative horizontal position
		w, err := in.in.readWord("relative horizontal position")
		if err != nil {
			return err
		}
		delta := int(int16(w))
		if st.X+delta < 0 {
			in.warn(ProtocolWarning, "attempt to move to -X region ignored (x=%d, delta=%d)", st.X, delta)
			return nil
		}
		st.X += delta

	case '$': // absolute horizontal position
		w, err := in.in.readWord("absolute horizontal position")
		if err != nil {
			return err
		}
		if st.AbsoluteHorizontalUnits == 0 {
			in.warn(ProtocolWarning, "absolute horizontal units not set")
			return nil
		}
		st.X = int(w) * (st.RelativeHorizontalUnits / st.AbsoluteHorizontalUnits)

	case 0x06: // flush buffers

	case 0x19: // paper loading
		if _, err := in.in.readByte("paper control"); err != nil {
			return err
		}

	case 'r': // select printing color
		b, err := in.in.readByte("color")
		if err != nil {
			return err
		}
		if b > 4 || b == 3 {
			in.warn(ProtocolWarning, "invalid color %d", b)
			return nil
		}
		st.Color, _ = InkFromCode(b)

	case '(':
		return in.extended()

	default:
		in.warn(ProtocolWarning, "unknown command")
	}
	return nil
}

// extended executes a command of the form ESC ( c nL nH payload.
func (in *Interpreter) extended() error {
	st := &in.state

	sub, err := in.in.readByte("extended command")
	if err != nil {
		return err
	}
	in.cmd = "ESC ( " + printable(sub)
	size, err := in.in.readWord("payload size")
	if err != nil {
		return err
	}
	buf, err := in.in.readBytes(int(size), "payload")
	if err != nil {
		return err
	}
	in.log.WithField("offset", in.start).Debugf("%s with %d byte payload", in.cmd, size)

	switch sub {
	case 'G': // select graphics mode
		st.Microweave = false

	case 'U': // set units
		in.setUnits(buf)

	case 'i': // microweave
		if len(buf) != 1 {
			in.warn(UsageError, "malformed microweave setting command")
			return nil
		}
		switch buf[0] {
		case 0x00, 0x30:
			st.Microweave = false
		case 0x01, 0x31:
			st.Microweave = true
		default:
			in.warn(ProtocolWarning, "unknown microweave mode 0x%02X", buf[0])
		}

	case 'c': // page format
		if in.page != nil {
			return in.fail(UsageError,
				"setting the page format in the middle of printing a page is not supported")
		}
		if len(buf) != 4 {
			in.warn(UsageError, "malformed page format ignored")
			return nil
		}
		top := int(buf[0]) | int(buf[1])<<8
		bottom := int(buf[2]) | int(buf[3])<<8
		if bottom <= top {
			in.warn(ProtocolWarning, "bottom margin %d not below top margin %d", bottom, top)
			return nil
		}
		st.TopMargin = top
		st.BottomMargin = bottom
		st.Y = 0
		if top+bottom > st.PageLength {
			st.PageLength = top + bottom
		}
		in.page = newPage(bottom - top)

	case 'e', // dot size
		'V', // absolute vertical position
		'v', // relative vertical position
		'S', // paper dimensions
		'r', // select color
		'/', // relative horizontal position
		'$', // absolute horizontal position
		'C': // page length
		in.log.WithField("offset", in.start).Debugf("%s ignored", in.cmd)

	default:
		in.warn(ProtocolWarning, "unknown extended command")
	}
	return nil
}

func (in *Interpreter) setUnits(buf []byte) {
	st := &in.state

	switch len(buf) {
	case 1:
		if buf[0] == 0 {
			in.warn(ProtocolWarning, "zero unit divisor ignored")
			return
		}
		u := 3600 / int(buf[0])
		st.PageManagementUnits = u
		st.AbsoluteHorizontalUnits = u
		st.RelativeVerticalUnits = u
		st.AbsoluteVerticalUnits = u
	case 5:
		if buf[0] == 0 || buf[1] == 0 || buf[2] == 0 {
			in.warn(ProtocolWarning, "zero unit divisor ignored")
			return
		}
		base := int(buf[3]) | int(buf[4])<<8
		st.PageManagementUnits = base / int(buf[0])
		st.RelativeVerticalUnits = base / int(buf[1])
		st.AbsoluteVerticalUnits = base / int(buf[1])
		st.RelativeHorizontalUnits = base / int(buf[2])
		st.AbsoluteHorizontalUnits = base / int(buf[2])
	default:
		in.warn(UsageError, "malformed unit setting with %d byte payload ignored", len(buf))
	}
}

// transferRaster reads the data of a raster image and adds it to the page.
func (in *Interpreter) transferRaster(c Compression, bpp, width, height int, ink Ink, inkOK bool, density int) error {
	switch c {
	case Uncompressed, RunLength:
	case TIFF:
		in.warn(UnsupportedFeature, "TIFF compression not supported")
		return nil
	default:
		in.warn(ProtocolWarning, "unknown compression mode %d", c)
		return nil
	}

	bands, err := decodeRaster(in.in, c, bpp, width, height)
	if err != nil {
		return err
	}
	if !inkOK {
		return nil
	}

	if c == RunLength && !in.opts.LegacyRunCompositing {
		band := bytes.Join(bands, nil)
		if size := rasterSize(width, height, bpp); len(band) > size {
			in.warn(ProtocolWarning, "run-length data overshoots image by %d bytes", len(band)-size)
			band = band[:size]
		}
		bands = [][]byte{band}
	}
	for _, band := range bands {
		in.composite(band, width, height, ink, bpp, density)
	}
	return nil
}

func (in *Interpreter) warn(kind Kind, format string, args ...any) {
	err := &Error{
		Kind:    kind,
		Offset:  in.start,
		Command: in.cmd,
		Msg:     fmt.Sprintf(format, args...),
	}
	in.warnings = append(in.warnings, err)
	in.log.WithFields(logrus.Fields{
		"offset":  err.Offset,
		"command": err.Command,
		"kind":    kind.String(),
	}).Warn(err.Msg)
}

func (in *Interpreter) fail(kind Kind, msg string) error {
	return &Error{
		Kind:    kind,
		Offset:  in.start,
		Command: in.cmd,
		Msg:     msg,
	}
}

// abort ends a run with err, discarding the page.
func (in *Interpreter) abort(err error) error {
	in.page = nil
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Kind:    TruncatedStream,
		Offset:  in.start,
		Command: in.cmd,
		Err:     err,
	}
}

func commandName(code byte) string {
	return "ESC " + printable(code)
}

func printable(b byte) string {
	if b > ' ' && b < 0x7f && b != '\\' {
		return string(rune(b))
	}
	return fmt.Sprintf("0x%02X", b)
}
