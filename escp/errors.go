package escp

import (
	"errors"
	"strconv"
)

// Kind classifies a problem found while interpreting a job.
type Kind int

const (
	// TruncatedStream means the input ended inside a command. It is fatal.
	TruncatedStream Kind = iota
	// ProtocolWarning is a recognized command with a malformed parameter.
	ProtocolWarning
	// UsageError is a request that is illegal in the current context.
	// Page format changes in the middle of a page are fatal, the rest
	// are reported and ignored.
	UsageError
	// UnsupportedFeature is a recognized but unimplemented feature.
	UnsupportedFeature
)

func (k Kind) String() string {
	switch k {
	case TruncatedStream:
		return "truncated"
	case ProtocolWarning:
		return "protocol"
	case UsageError:
		return "usage"
	case UnsupportedFeature:
		return "unsupported"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ErrTruncated is wrapped by every error caused by a short read.
var ErrTruncated = errors.New("truncated stream")

// Error describes a problem with the command at byte Offset.
type Error struct {
	Kind    Kind
	Offset  int64
	Command string
	Msg     string
	Err     error
}

func (err *Error) Error() string {
	s := err.Msg
	if err.Err != nil {
		if s != "" {
			s += ": "
		}
		s += err.Err.Error()
	}
	if err.Command != "" {
		s = err.Command + ": " + s
	}
	return s + " (at byte " + strconv.FormatInt(err.Offset, 10) + ")"
}

func (err *Error) Unwrap() error {
	return err.Err
}
