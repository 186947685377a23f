package timebase

// TimeConverter translates between sample positions, seconds and musical time
// for a fixed sample rate, tempo and time signature.
type TimeConverter struct {
	Rate      SampleRate
	Tempo     Tempo
	Signature TimeSignature
}

// NewTimeConverter returns a converter for the given parameters.
func NewTimeConverter(rate SampleRate, tempo Tempo, sig TimeSignature) TimeConverter {
	return TimeConverter{Rate: rate, Tempo: tempo, Signature: sig}
}

// SamplesToSeconds converts a position to seconds.
func (c TimeConverter) SamplesToSeconds(p SamplePosition) float64 {
	return p.Seconds(c.Rate)
}

// SecondsToSamples converts seconds to a position.
func (c TimeConverter) SecondsToSamples(seconds float64) SamplePosition {
	return PositionFromSeconds(seconds, c.Rate)
}

// SamplesToMusical converts a position to bar/beat/tick, truncating to the
// tick that contains the sample.
func (c TimeConverter) SamplesToMusical(p SamplePosition) MusicalTime {
	spt := c.Tempo.SamplesPerTick(c.Rate)
	if spt <= 0 {
		return Origin
	}
	ticks := int64(float64(p) / spt)
	return MusicalTimeFromTicks(ticks, c.Signature.BeatsPerBar())
}

// MusicalToSamples converts bar/beat/tick to the nearest sample position.
func (c TimeConverter) MusicalToSamples(m MusicalTime) SamplePosition {
	ticks := m.ToTicks(c.Signature.BeatsPerBar())
	seconds := float64(ticks) / TicksPerQuarterNote * 60.0 / c.Tempo.BPM()
	return PositionFromSeconds(seconds, c.Rate)
}
