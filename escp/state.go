package escp

// The page length assumed after a reset, in 1/360 inch.
const defaultPageLength = 22 * 360

// State is the printer configuration visible to the interpreter.
// Units are dots per inch, margins and positions are in dots.
type State struct {
	// Unidirectional holds the raw mode byte of the last ESC U.
	Unidirectional byte
	Microweave     bool

	PageManagementUnits     int
	RelativeHorizontalUnits int
	AbsoluteHorizontalUnits int
	RelativeVerticalUnits   int
	AbsoluteVerticalUnits   int

	TopMargin    int
	BottomMargin int
	PageLength   int

	Color Ink

	// X and Y give the print head position. X is never negative,
	// Y indexes the rows of the page.
	X int
	Y int
}

// Initialize resets the configuration to the power-on defaults.
// The print head position and the current colour are left alone.
func (s *State) Initialize() {
	s.Unidirectional = 0
	s.Microweave = false
	s.PageManagementUnits = 360
	s.RelativeHorizontalUnits = 180
	s.AbsoluteHorizontalUnits = 60
	s.RelativeVerticalUnits = 360
	s.AbsoluteVerticalUnits = 360
	s.TopMargin = 120
	s.BottomMargin = defaultPageLength
	s.PageLength = defaultPageLength
}

// UnidirectionalOn reports whether unidirectional printing is selected.
func (s *State) UnidirectionalOn() bool {
	return s.Unidirectional == 1 || s.Unidirectional == '1'
}

func validUnidirectional(b byte) bool {
	return b <= 2 || (b >= '0' && b <= '2')
}
