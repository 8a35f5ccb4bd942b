package abr

import "math"

// RateSelector is the buffer-based decision engine. It keeps the previously
// chosen index so that small buffer changes do not flap between qualities.
type RateSelector struct {
	maxIndex    int
	prior       int
	useOverride bool
	safeStep    float64
}

// NewRateSelector returns a selector over a ladder of maxIndex+1 entries,
// starting at index 0.
func NewRateSelector(maxIndex int, useOverride bool, safeStep float64) *RateSelector {
	return &RateSelector{maxIndex: maxIndex, useOverride: useOverride, safeStep: safeStep}
}

// Prior returns the index chosen by the last Decide.
func (s *RateSelector) Prior() int {
	return s.prior
}

// Decide picks the next index for the given buffer occupancy and capacity
// estimate and remembers it as the prior for the next call.
func (s *RateSelector) Decide(bounds ReservoirBounds, buffer, capacity float64) int {
	override := s.useOverride && capacity > 0 && capacity >= s.safeStep*float64(s.prior+1)
	s.prior = SelectIndex(bounds, s.maxIndex, buffer, s.prior, override)
	return s.prior
}

// SelectIndex is the stateless decision rule:
//
//	buffer <= low          -> 0
//	buffer >= high         -> maxIndex
//	override               -> floor(ideal)
//	ideal >= prior+1       -> floor(ideal)
//	ideal <= prior-1       -> ceil(ideal)
//	otherwise              -> prior
//
// where ideal = (buffer-low)*maxIndex/(high-low). The result is always
// within [0, maxIndex].
func SelectIndex(bounds ReservoirBounds, maxIndex int, buffer float64, prior int, override bool) int {
	if maxIndex <= 0 {
		return 0
	}
	if buffer <= bounds.Low {
		return 0
	}
	if buffer >= bounds.High {
		return maxIndex
	}

	ideal := IdealIndex(bounds, maxIndex, buffer)
	next := prior
	switch {
	case override:
		next = int(math.Floor(ideal))
	case ideal >= float64(prior+1):
		next = int(math.Floor(ideal))
	case ideal <= float64(prior-1):
		next = int(math.Ceil(ideal))
	}
	return clampIndex(next, maxIndex)
}

// IdealIndex is the real-valued linear interpolation of buffer across the
// ladder between the low and high reservoirs.
func IdealIndex(bounds ReservoirBounds, maxIndex int, buffer float64) float64 {
	return (buffer - bounds.Low) * float64(maxIndex) / (bounds.High - bounds.Low)
}
