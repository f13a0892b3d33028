package audio

import "math"

const (
	BandSubBass    = "subBass"
	BandBass       = "bass"
	BandLowMid     = "lowMid"
	BandMid        = "mid"
	BandHighMid    = "highMid"
	BandPresence   = "presence"
	BandBrilliance = "brilliance"
	BandUltraHigh  = "ultraHigh"

	// BandAir is an alias of BandUltraHigh accepted from collaborator sources.
	BandAir = "air"
)

// NumBands is the number of canonical frequency bands present in every Frame.
const NumBands = 8

// Band is a contiguous frequency range whose average magnitude is tracked as one signal.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64

	// Value is the smoothed, normalized magnitude in [0,1].
	Value float64
}

// CanonicalBands lists the eight band ranges in ascending frequency order.
var CanonicalBands = [NumBands]Band{
	{Name: BandSubBass, LowHz: 20, HighHz: 60},
	{Name: BandBass, LowHz: 60, HighHz: 250},
	{Name: BandLowMid, LowHz: 250, HighHz: 500},
	{Name: BandMid, LowHz: 500, HighHz: 2000},
	{Name: BandHighMid, LowHz: 2000, HighHz: 4000},
	{Name: BandPresence, LowHz: 4000, HighHz: 6000},
	{Name: BandBrilliance, LowHz: 6000, HighHz: 12000},
	{Name: BandUltraHigh, LowHz: 12000, HighHz: 20000},
}

// BandIndex returns the position of a band name in CanonicalBands. BandAir resolves to BandUltraHigh.
func BandIndex(name string) (int, bool) {
	if name == BandAir {
		name = BandUltraHigh
	}
	for i, b := range CanonicalBands {
		if b.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Bands holds one value per canonical band.
type Bands [NumBands]Band

func newBands() Bands {
	var b Bands
	copy(b[:], CanonicalBands[:])
	return b
}

// Value returns the value of the named band, or 0 for unknown names.
func (b Bands) Value(name string) float64 {
	if i, ok := BandIndex(name); ok {
		return b[i].Value
	}
	return 0
}

// binIndex maps a frequency to a spectrum bin: round(freq / nyquist * n).
func binIndex(freq, nyquist float64, n int) int {
	return int(math.Round(freq / nyquist * float64(n)))
}
