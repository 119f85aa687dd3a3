package peakfit

import "fmt"

// Config selects the shape of every parameter vector in the package.
// The three flags jointly determine vector length and field order and must
// not change between building a vector and decoding it.
type Config struct {
	// Circle collapses the two widths into one shared width and disables
	// rotation regardless of Rotate.
	Circle bool
	// Rotate adds a rotation angle parameter (degrees).
	Rotate bool
	// Vheight adds a constant background height parameter at the front.
	Vheight bool
}

// Rotated reports whether a rotation parameter is actually present:
// a circular peak has no meaningful rotation.
func (c Config) Rotated() bool { return c.Rotate && !c.Circle }

// PeakFields returns the ordered parameter names for a single-peak vector
// under this configuration.
func (c Config) PeakFields() []string {
	fields := make([]string, 0, 7)
	if c.Vheight {
		fields = append(fields, "HEIGHT")
	}
	fields = append(fields, "AMPLITUDE", "XSHIFT", "YSHIFT")
	if c.Circle {
		fields = append(fields, "WIDTH")
	} else {
		fields = append(fields, "XWIDTH", "YWIDTH")
		if c.Rotate {
			fields = append(fields, "ROTATION")
		}
	}
	return fields
}

// NumPeakParams returns the single-peak parameter vector length.
func (c Config) NumPeakParams() int { return len(c.PeakFields()) }

// ModeFields returns the ordered parameter names for the head of a
// multimode vector (everything before the mode amplitude block).
func (c Config) ModeFields() []string {
	fields := make([]string, 0, 6)
	if c.Vheight {
		fields = append(fields, "HEIGHT")
	}
	fields = append(fields, "XSHIFT", "YSHIFT")
	if c.Circle {
		fields = append(fields, "WIDTH")
	} else {
		fields = append(fields, "XWIDTH", "YWIDTH")
		if c.Rotate {
			fields = append(fields, "ROTATION")
		}
	}
	return fields
}

// NumModeParams returns the full multimode vector length for the given
// maximum mode orders, amplitude block included.
func (c Config) NumModeParams(maxP, maxL int) int {
	return len(c.ModeFields()) + NumModes(maxP, maxL)
}

// NumModes returns the number of enumerated (p, l) mode indices.
func NumModes(maxP, maxL int) int { return (maxP + 1) * (maxL + 1) }

// ModeAmpName returns the metadata name for the amplitude of mode i in
// row-major (p, l) enumeration order.
func ModeAmpName(i, maxL int) string {
	return fmt.Sprintf("MODEAMP(%d,%d)", i/(maxL+1), i%(maxL+1))
}

func (c Config) String() string {
	return fmt.Sprintf("circle=%t rotate=%t vheight=%t", c.Circle, c.Rotate, c.Vheight)
}
