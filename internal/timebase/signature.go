package timebase

import "strconv"

// TimeSignature is a (numerator, denominator) pair. The numerator is the
// number of beats per bar.
type TimeSignature struct {
	Numerator   uint8
	Denominator uint8
}

// Frequently used signatures.
var (
	CommonTime = TimeSignature{Numerator: 4, Denominator: 4}
	WaltzTime  = TimeSignature{Numerator: 3, Denominator: 4}
)

// BeatsPerBar returns the numerator, or 4 for the zero value.
func (ts TimeSignature) BeatsPerBar() int {
	if ts.Numerator == 0 {
		return int(CommonTime.Numerator)
	}
	return int(ts.Numerator)
}

// Valid reports whether the numerator is non-zero and the denominator is a
// power of two.
func (ts TimeSignature) Valid() bool {
	d := ts.Denominator
	return ts.Numerator > 0 && d > 0 && d&(d-1) == 0
}

func (ts TimeSignature) String() string {
	return strconv.Itoa(int(ts.Numerator)) + "/" + strconv.Itoa(int(ts.Denominator))
}
