package abr

import "math"

// ReservoirBounds are the buffer thresholds, in seconds, that bound the
// interpolation zone. Below Low the lowest quality is forced; at or above
// High the highest quality is forced.
type ReservoirBounds struct {
	Low    float64 `json:"low" yaml:"low"`
	High   float64 `json:"high" yaml:"high"`
	MinLow float64 `json:"min_low" yaml:"min_low"`
	MaxLow float64 `json:"max_low" yaml:"max_low"`
}

// Validate checks 0 <= MinLow <= Low <= MaxLow < High with finite values.
// MaxLow < High keeps Low < High true after any resize.
func (b ReservoirBounds) Validate() error {
	for _, f := range []float64{b.Low, b.High, b.MinLow, b.MaxLow} {
		if !isFinite(f) {
			return configErrorf(ErrInvalidReservoir, "non-finite bound in %+v", b)
		}
	}
	switch {
	case b.MinLow < 0:
		return configErrorf(ErrInvalidReservoir, "min_low %v is negative", b.MinLow)
	case b.MinLow > b.MaxLow:
		return configErrorf(ErrInvalidReservoir, "min_low %v > max_low %v", b.MinLow, b.MaxLow)
	case b.Low < b.MinLow || b.Low > b.MaxLow:
		return configErrorf(ErrInvalidReservoir, "low %v outside [%v, %v]", b.Low, b.MinLow, b.MaxLow)
	case b.MaxLow >= b.High:
		return configErrorf(ErrInvalidReservoir, "max_low %v must be below high %v", b.MaxLow, b.High)
	}
	return nil
}

// ReservoirController resizes the low reservoir from observed capacity.
type ReservoirController struct {
	bounds ReservoirBounds
}

// NewReservoirController returns a controller starting at bounds.
func NewReservoirController(bounds ReservoirBounds) (*ReservoirController, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &ReservoirController{bounds: bounds}, nil
}

// Bounds returns the current bounds.
func (c *ReservoirController) Bounds() ReservoirBounds {
	return c.bounds
}

// Update moves Low to 2*buffer*(avgSegmentBits/capacity - 1), clamped into
// [MinLow, MaxLow]. High never changes. When the inputs cannot produce a
// finite target the bounds are kept and ok is false.
func (c *ReservoirController) Update(buffer, avgSegmentBits, capacity float64) (bounds ReservoirBounds, ok bool) {
	if capacity <= 0 || !isFinite(capacity) || !isFinite(buffer) || !isFinite(avgSegmentBits) {
		return c.bounds, false
	}

	target := 2 * buffer * (avgSegmentBits/capacity - 1)
	if math.IsNaN(target) {
		return c.bounds, false
	}

	c.bounds.Low = math.Min(math.Max(target, c.bounds.MinLow), c.bounds.MaxLow)
	return c.bounds, true
}
