package escp

import "strconv"

// Ink is one of the six colour planes of the printer.
type Ink int

// The ink channels, in page store order.
const (
	Black Ink = iota
	Magenta
	Cyan
	Yellow
	LightMagenta
	LightCyan

	NumInks = 6
)

// The printer identifies inks by these codes.
var inkCodes = [NumInks]byte{0, 1, 2, 4, 17, 18}

// InkFromCode maps a printer colour code to its ink channel.
func InkFromCode(code byte) (Ink, bool) {
	for i, c := range inkCodes {
		if c == code {
			return Ink(i), true
		}
	}
	return 0, false
}

// Code returns the printer colour code of the ink.
func (ink Ink) Code() byte {
	return inkCodes[ink]
}

func (ink Ink) String() string {
	switch ink {
	case Black:
		return "black"
	case Magenta:
		return "magenta"
	case Cyan:
		return "cyan"
	case Yellow:
		return "yellow"
	case LightMagenta:
		return "light magenta"
	case LightCyan:
		return "light cyan"
	default:
		return "Ink(" + strconv.Itoa(int(ink)) + ")"
	}
}
