package escp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// reader pulls bytes from a job and keeps track of the input offset.
// Every short read inside a command is reported as ErrTruncated.
type reader struct {
	r   *bufio.Reader
	pos int64
}

func newReader(r io.Reader) *reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &reader{r: br}
	}
	return &reader{r: bufio.NewReader(r)}
}

// next returns the next byte, or io.EOF at the end of the input.
func (r *reader) next() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

func (r *reader) readByte(what string) (byte, error) {
	b, err := r.next()
	if err != nil {
		return 0, truncated(what, err)
	}
	return b, nil
}

// readWord reads a little-endian 16 bit value.
func (r *reader) readWord(what string) (uint16, error) {
	lo, err := r.next()
	if err != nil {
		return 0, truncated(what, err)
	}
	hi, err := r.next()
	if err != nil {
		return 0, truncated(what, err)
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// Reads longer than this grow their buffer as data arrives, so that a
// corrupt size field cannot allocate more memory than the input holds.
const maxPrealloc = 64 * 1024

// readBytes returns a newly allocated buffer holding exactly n bytes.
func (r *reader) readBytes(n int, what string) ([]byte, error) {
	if n <= maxPrealloc {
		buf := make([]byte, n)
		read, err := io.ReadFull(r.r, buf)
		r.pos += int64(read)
		if err != nil {
			return nil, truncated(what, err)
		}
		return buf, nil
	}

	buf := &bytes.Buffer{}
	read, err := io.CopyN(buf, r.r, int64(n))
	r.pos += read
	if err != nil {
		return nil, truncated(what, err)
	}
	return buf.Bytes(), nil
}

func truncated(what string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("reading %s: %w", what, ErrTruncated)
	}
	return fmt.Errorf("reading %s: %w: %w", what, ErrTruncated, err)
}
