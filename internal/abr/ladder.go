package abr

// Representation is one encoded quality level of the media.
type Representation struct {
	ID      string `json:"id" yaml:"id"`
	Bitrate int64  `json:"bitrate" yaml:"bitrate"` // bits per second
}

// QualityLadder is the ordered list of representations for a session.
// Index 0 is the lowest quality. A ladder never changes after NewQualityLadder.
type QualityLadder struct {
	reps []Representation
}

// NewQualityLadder validates reps and returns an immutable ladder.
// The ladder must be non-empty with strictly increasing, positive bitrates.
func NewQualityLadder(reps []Representation) (*QualityLadder, error) {
	if len(reps) == 0 {
		return nil, &ConfigError{Err: ErrEmptyLadder}
	}
	if reps[0].Bitrate <= 0 {
		return nil, configErrorf(ErrUnsortedLadder, "index 0 has non-positive bitrate %d", reps[0].Bitrate)
	}
	for i := 1; i < len(reps); i++ {
		if reps[i].Bitrate <= reps[i-1].Bitrate {
			return nil, configErrorf(ErrUnsortedLadder, "index %d bitrate %d <= index %d bitrate %d",
				i, reps[i].Bitrate, i-1, reps[i-1].Bitrate)
		}
	}

	cp := make([]Representation, len(reps))
	copy(cp, reps)
	return &QualityLadder{reps: cp}, nil
}

// Len returns the number of representations.
func (l *QualityLadder) Len() int {
	return len(l.reps)
}

// MaxIndex returns the index of the highest quality.
func (l *QualityLadder) MaxIndex() int {
	return len(l.reps) - 1
}

// At returns the representation at index i, clamped into the ladder.
func (l *QualityLadder) At(i int) Representation {
	return l.reps[clampIndex(i, l.MaxIndex())]
}

// Representations returns a copy of the ladder.
func (l *QualityLadder) Representations() []Representation {
	cp := make([]Representation, len(l.reps))
	copy(cp, l.reps)
	return cp
}

// Contains reports whether i is a valid index.
func (l *QualityLadder) Contains(i int) bool {
	return i >= 0 && i < len(l.reps)
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
